package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lotofacil_sync/internal/scheduler"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sync on the configured interval until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to start", "error", err)
			return err
		}
		defer a.Close()

		logger.Info("starting lotofacil syncer",
			"bundle_file", cfg.Local.BundleFile,
			"interval", cfg.Sync.Interval,
			"publish", cfg.RabbitMQ.Enabled,
		)

		sched := scheduler.NewScheduler(a.sync, cfg.Sync.Interval, cfg.Sync.Timeout, logger)
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler error", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
