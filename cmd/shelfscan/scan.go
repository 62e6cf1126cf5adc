package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shelfscan/shelfscan/internal/api"
	"github.com/shelfscan/shelfscan/internal/config"
	"github.com/shelfscan/shelfscan/internal/home"
	"github.com/shelfscan/shelfscan/internal/llmcall"
	"github.com/shelfscan/shelfscan/internal/lookup"
	"github.com/shelfscan/shelfscan/internal/pipeline"
	"github.com/shelfscan/shelfscan/internal/providers"
)

var scanVerbose bool

// scanCmd runs the pipeline in-process, without a server.
var scanCmd = &cobra.Command{
	Use:   "scan <image>",
	Short: "Scan a bookshelf photo without a running server",
	Long: `Scan runs the extraction pipeline directly against the configured
providers and prints the resulting book list.

Examples:
  shelfscan scan shelf.jpg
  shelfscan scan shelf.jpg -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		level := slog.LevelWarn
		if scanVerbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		image, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", args[0], err)
		}
		mimeType := http.DetectContentType(image)
		if !strings.HasPrefix(mimeType, "image/") {
			return fmt.Errorf("%s does not look like an image (%s)", args[0], mimeType)
		}

		h, err := home.New(homeDir)
		if err != nil {
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
		cfg := cfgMgr.Get()

		registry := providers.NewRegistryFromConfig(cfg.ToProviderRegistryConfig())
		registry.SetLogger(logger)

		store := llmcall.NewStore(cfg.Server.CallHistory)
		opts := []pipeline.Option{pipeline.WithRecorder(store)}
		if client, err := registry.Get(cfg.Defaults.RepairProvider); err == nil {
			opts = append(opts, pipeline.WithRepairProvider(client))
		}
		if client, err := registry.Get(cfg.Defaults.ValidationProvider); err == nil {
			opts = append(opts, pipeline.WithValidationProvider(client))
		}
		if cfg.Lookup.Enabled {
			opts = append(opts, pipeline.WithLookup(lookup.NewClient(lookup.Config{
				BaseURL:   cfg.Lookup.BaseURL,
				Timeout:   cfg.Lookup.Timeout,
				CacheSize: cfg.Lookup.CacheSize,
				CacheTTL:  cfg.Lookup.CacheTTL,
			})))
		}

		p := pipeline.New(registry, logger, cfg.Pipeline, opts...)
		result, err := p.Run(ctx, pipeline.ScanRequest{
			Image:    image,
			MIMEType: mimeType,
		})
		if err != nil {
			return err
		}

		return api.Output(result)
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanVerbose, "verbose", false, "Log pipeline progress to stderr")

	rootCmd.AddCommand(scanCmd)
}
