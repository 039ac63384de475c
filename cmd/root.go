package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/audiolibrelab/takedeck/internal/audio"
	"github.com/audiolibrelab/takedeck/internal/config"
	"github.com/audiolibrelab/takedeck/internal/service"

	"github.com/spf13/cobra"
)

var (
	cfg          *config.Config
	cfgFile      string
	verboseLevel int
)

var rootCmd = &cobra.Command{
	Use:   "takedeck",
	Short: "Record, play back and catalog audio takes",
	Long: `TakeDeck maintains a single working take you can record over and
play back, plus a catalog of named takes saved from it. The serve
command exposes the same operations to remote callers over MCP.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verboseLevel)

		if cfgFile == "" {
			cfgFile = os.ExpandEnv("$HOME/.config/takedeck.yaml")
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/takedeck.yaml)")
	rootCmd.PersistentFlags().IntVarP(&verboseLevel, "verbose", "v", 0, "verbose level: 0=info, 1=debug")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(takesCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(configCmd)
}

// setupLogging configures slog based on the verbose level
func setupLogging(level int) {
	slogLevel := slog.LevelInfo
	if level >= 1 {
		slogLevel = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
}

// newService opens the audio device and constructs the engine. The
// caller owns the returned service and must Close it.
func newService() (service.Service, error) {
	device, err := audio.NewDevice()
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	svc, err := service.New(cfg, device)
	if err != nil {
		device.Close()
		return nil, fmt.Errorf("failed to start session engine: %w", err)
	}
	return svc, nil
}
