package cmd

import (
	"fmt"
	"log/slog"

	"github.com/audiolibrelab/takedeck/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the engine to remote callers over MCP",
	Long: `Start the MCP server so remote callers can drive recording, playback
and the take catalog. The http transport listens on server.port from
the config; the stdio transport serves a single client over
stdin/stdout (for MCP hosts that spawn the server themselves).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		if transport == "" {
			transport = cfg.Server.Transport
		}

		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		srv := server.New(svc)
		switch transport {
		case "stdio":
			return srv.ServeStdio()
		case "http":
			addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
			slog.Info("TakeDeck MCP server starting", "addr", addr, "config", cfgFile)
			return srv.ServeHTTP(addr)
		default:
			return fmt.Errorf("unknown transport %q (valid: http, stdio)", transport)
		}
	},
}

func init() {
	serveCmd.Flags().String("transport", "", "MCP transport: http or stdio (overrides config)")
}
