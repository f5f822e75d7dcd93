package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lotofacil_sync/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "syncer",
	Short: "Keep a local copy of the Lotofácil bundle in sync with Firebase",
	Long: `syncer downloads the published Lotofácil draws bundle whenever its
checksum changes, indexes the draws in PostgreSQL and notifies
subscribers over RabbitMQ.

Examples:
  # Poll on the configured interval until interrupted
  syncer run --config config.yaml

  # Check once and exit
  syncer sync

  # Serve the HTTP API alongside the scheduler
  syncer serve`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, setupLogger(cfg.LogLevel), nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
