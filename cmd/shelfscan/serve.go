package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelfscan/shelfscan/internal/config"
	"github.com/shelfscan/shelfscan/internal/home"
	"github.com/shelfscan/shelfscan/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the shelfscan server",
	Long: `Start the shelfscan HTTP server.

The server provides:
  - POST /scan     - Scan a bookshelf photo for books
  - GET  /health   - Basic server health check
  - GET  /status   - Server status with registered providers
  - GET  /llmcalls - Recorded inference call history

Configuration is hot-reloaded: edits to the config file take effect on
the next scan without a restart.

Examples:
  shelfscan serve                  # Start on the configured address
  shelfscan serve --addr :3000     # Start on a custom address`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		cfgPath := cfgFile
		if cfgPath == "" && h.ConfigExists() {
			cfgPath = h.ConfigPath()
		}
		cfgMgr, err := config.NewManager(cfgPath)
		if err != nil {
			return err
		}
		cfgMgr.WatchConfig()

		srv, err := server.New(server.Config{
			ListenAddr:    serveAddr,
			ConfigManager: cfgMgr,
			Home:          h,
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
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
