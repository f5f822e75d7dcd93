package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lotofacil_sync/internal/api"
	"lotofacil_sync/internal/scheduler"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and keep syncing in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to start", "error", err)
			return err
		}
		defer a.Close()

		var draws api.DrawReader
		if a.drawStore != nil {
			draws = a.drawStore
		}

		handler := api.NewRouter(api.NewHandler(a.sync, draws, a.betStore, logger), api.RouterConfig{
			JWTSecret: cfg.Server.JWTSecret,
			SyncRate:  cfg.Server.SyncRate,
			SyncBurst: cfg.Server.SyncBurst,
		}, logger)

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		schedCtx, stopScheduler := context.WithCancel(ctx)
		var wg sync.WaitGroup
		defer func() {
			stopScheduler()
			wg.Wait()
		}()

		sched := scheduler.NewScheduler(a.sync, cfg.Sync.Interval, cfg.Sync.Timeout, logger)
		sched.Go(schedCtx, &wg)

		errCh := make(chan error, 1)
		go func() {
			logger.Info("server starting", "addr", cfg.Server.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			logger.Error("server error", "error", err)
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server forced shutdown", "error", err)
			return err
		}

		logger.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (overrides server.addr)")
}
