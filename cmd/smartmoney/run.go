package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"smartmoney/internal/config"
	"smartmoney/internal/ledger"
	"smartmoney/internal/logging"
	"smartmoney/internal/notify"
	"smartmoney/internal/pipeline"
	"smartmoney/internal/storage"
	"smartmoney/internal/upstream"
)

func runCmd() *cobra.Command {
	var (
		dryRun     bool
		jsonReport bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one fetch, score, alert and digest cycle",
		Long: `Fetch the government, insider and contract feeds, persist new records,
score them, alert on high-conviction trades and send one digest.

Scheduling is left to cron or a similar trigger; each invocation is one cycle.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runCycle(ctx, dryRun, jsonReport)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print notifications instead of delivering them")
	cmd.Flags().BoolVar(&jsonReport, "json", false, "Print the run report as JSON")
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}
	cfg.ApplyEnv(config.LoadSecrets(envFile))
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return store, nil
}

func runCycle(ctx context.Context, dryRun, jsonReport bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	fetcher, err := upstream.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}

	var (
		sender ledger.Sender
		buffer *notify.Buffer
	)
	if dryRun {
		buffer = notify.NewBuffer(0)
		sender = buffer
	} else {
		multi, err := notify.NewFromConfig(cfg, logger)
		if err != nil {
			return err
		}
		defer multi.Close()
		sender = multi
	}

	report, runErr := pipeline.New(cfg, store, fetcher, sender, logger).Run(ctx)

	if buffer != nil {
		for _, msg := range buffer.Messages() {
			fmt.Println(msg)
			fmt.Println()
		}
	}
	if jsonReport {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	}
	return runErr
}
