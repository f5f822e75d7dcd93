package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Check the remote bundle once and download it if it changed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ctx, cancel := context.WithTimeout(ctx, cfg.Sync.Timeout)
		defer cancel()

		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to start", "error", err)
			return err
		}
		defer a.Close()

		stats, err := a.sync.Sync(ctx)
		if err != nil {
			logger.Error("sync failed", "error", err)
			return err
		}

		out := cmd.OutOrStdout()
		switch {
		case !stats.Checked:
			fmt.Fprintln(out, "no remote metadata published")
		case stats.Downloaded:
			fmt.Fprintf(out, "bundle updated: checksum=%s draws=%d published=%d in %s\n",
				deref(stats.Checksum), stats.Draws, stats.Published, stats.Duration)
		default:
			fmt.Fprintln(out, "bundle up to date")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
