package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/audiolibrelab/takedeck/internal/take"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the working take",
	Long: `Play the working take on the default output device. Playback stops
when the take ends or on Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		md, exists := svc.CatalogSnapshot()[take.WorkingName]
		if !exists {
			return fmt.Errorf("no working take to play")
		}

		ok, err := svc.StartPlaying()
		if err != nil {
			return fmt.Errorf("failed to start playback: %w", err)
		}
		if !ok {
			return fmt.Errorf("already playing")
		}

		slog.Info("Playing working take", "seconds", md.Time)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		// The session stays active after the audio drains, so stop
		// either when the runtime has elapsed or on interrupt.
		select {
		case <-sigChan:
		case <-time.After(time.Duration(md.Time * float64(time.Second))):
		}

		if _, err := svc.StopPlaying(); err != nil {
			return fmt.Errorf("failed to stop playback: %w", err)
		}
		return nil
	},
}
