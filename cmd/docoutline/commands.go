package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docoutline/internal/api"
	"github.com/dgallion1/docoutline/internal/pipeline"
)

func outlineCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "outline",
		Short: "Write one <name>.json outline per document in the input directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutline(cmd, *configPath)
		},
	}
}

func runOutline(cmd *cobra.Command, configPath string) error {
	cfg, log, proc, cleanup, err := setup(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	start := time.Now()
	sum, err := pipeline.NewBatch(proc, cfg, log).RunOutlines(cmd.Context())
	if err != nil {
		log.Error("outline run failed", "error", err)
		return err
	}
	log.Info("outline run complete",
		"discovered", sum.Discovered,
		"processed", sum.Processed,
		"skipped", sum.Skipped,
		"written", sum.Written,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func rankCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rank",
		Short: "Rank headings of the input collection against persona.json and job.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, proc, cleanup, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			sum, err := pipeline.NewBatch(proc, cfg, log).RunRanking(cmd.Context())
			if err != nil {
				log.Error("ranking run failed", "error", err)
				return err
			}
			log.Info("ranking run complete",
				"discovered", sum.Discovered,
				"processed", sum.Processed,
				"skipped", sum.Skipped,
				"written", sum.Written,
			)
			return nil
		},
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the outline and ranking HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, proc, cleanup, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := cfg.ValidateServe(); err != nil {
				log.Error("invalid configuration", "error", err)
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			orch := pipeline.NewOrchestrator(cfg, proc, log)
			orch.Start(ctx)

			httpServer := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      api.NewServer(orch, log, cfg),
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 120 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			// Graceful shutdown.
			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				<-sigCh
				log.Info("shutting down...")

				orch.Stop()

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				httpServer.Shutdown(shutdownCtx)
			}()

			log.Info("starting docoutline", "port", cfg.Port, "strategy", cfg.Strategy)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("server error", "error", err)
				return err
			}
			return nil
		},
	}
}
