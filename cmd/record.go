package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/audiolibrelab/takedeck/internal/take"

	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a new working take",
	Long: `Record from the default input device into the working take. Recording
runs until interrupted; the previous working take is overwritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		ok, err := svc.StartRecording()
		if err != nil {
			return fmt.Errorf("failed to start recording: %w", err)
		}
		if !ok {
			return fmt.Errorf("already recording")
		}

		slog.Info("Recording... Press Ctrl+C to stop")
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		ok, err = svc.StopRecording()
		if err != nil {
			return fmt.Errorf("failed to stop recording: %w", err)
		}
		if !ok {
			return fmt.Errorf("recording was no longer active")
		}

		md := svc.CatalogSnapshot()[take.WorkingName]
		fmt.Printf("Recorded %.2fs (%d bytes) to %s\n", md.Time, md.Size, svc.WorkingTakePath())
		return nil
	},
}
