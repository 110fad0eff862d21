package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hemolens/hemolens/internal/config"
	"github.com/hemolens/hemolens/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the hemolens server",
	Long: `Start the hemolens HTTP server.

The server hosts the upload form at / and the analysis API under /api.
Generated documents live in a temp working directory that is wiped on
every start.

The active provider's API key must resolve at startup; without it the
server refuses to start.

Examples:
  hemolens serve                 # Start on default port 8080
  hemolens serve --port 3000     # Start on custom port
  hemolens serve --host 0.0.0.0  # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		cfgMgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		if err := cfgMgr.Get().Validate(); err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}
		cfgMgr.WatchConfig()

		cfg := cfgMgr.Get()
		host := serveHost
		if !cmd.Flags().Changed("host") && cfg.Server.Host != "" {
			host = cfg.Server.Host
		}
		port := servePort
		if !cmd.Flags().Changed("port") && cfg.Server.Port != "" {
			port = cfg.Server.Port
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			WorkdirPath:   cfg.Workdir,
			ConfigManager: cfgMgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
