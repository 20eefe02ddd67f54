package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/dgallion1/docoutline/internal/store"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "docoutline",
		Short:         "Extract heading outlines from documents and rank them against a persona",
		SilenceUsage:  true,
		SilenceErrors: true,
		// With no subcommand the container entrypoint behaves like `outline`.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutline(cmd, configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML configuration file")

	root.AddCommand(outlineCmd(&configPath))
	root.AddCommand(rankCmd(&configPath))
	root.AddCommand(serveCmd(&configPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger and processor shared by
// every command. The returned cleanup closes the outline cache, if any.
func setup(configPath string) (config.Config, *slog.Logger, *pipeline.Processor, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, nil, nil, err
	}
	log := newLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var cache *store.Cache
	cleanup := func() {}
	if cfg.CachePath != "" {
		cache, err = store.Open(cfg.CachePath)
		if err != nil {
			return config.Config{}, nil, nil, nil, err
		}
		cleanup = func() {
			if err := cache.Close(); err != nil {
				log.Warn("closing outline cache", "error", err)
			}
		}
	}

	proc, err := pipeline.NewProcessor(cfg, cache, log)
	if err != nil {
		cleanup()
		return config.Config{}, nil, nil, nil, err
	}
	return cfg, log, proc, cleanup, nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}
