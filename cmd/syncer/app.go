package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"lotofacil_sync/internal/bundle"
	"lotofacil_sync/internal/config"
	"lotofacil_sync/internal/publisher"
	"lotofacil_sync/internal/service"
	"lotofacil_sync/internal/source/firebase"
	"lotofacil_sync/internal/storage/postgres"
)

// app holds the wired dependencies shared by run, sync and serve.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	db        *sqlx.DB
	publisher *publisher.RabbitMQ
	drawStore *postgres.DrawStore
	betStore  *postgres.SavedBetStore
	sync      *service.SyncService
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	locator, err := firebase.ResolveLocator(cfg.Firebase.StorageRoot, cfg.Firebase.BundlePath)
	if err != nil {
		return nil, fmt.Errorf("resolve bundle locator: %w", err)
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("connected to database")

	a := &app{cfg: cfg, logger: logger, db: db, betStore: postgres.NewSavedBetStore(db)}

	// Interfaces stay nil unless the feature is on, so the service can
	// tell "disabled" from "present".
	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}
		a.publisher = rabbitMQ
		pub = rabbitMQ
	}

	var draws service.DrawStore
	if cfg.Local.ShouldIndexDraws() {
		a.drawStore = postgres.NewDrawStore(db)
		draws = a.drawStore
	}

	client := firebase.NewClient(firebase.Config{
		Timeout:           cfg.Firebase.Timeout,
		RequestsPerSecond: cfg.Firebase.RequestsPerSecond,
		MaxAttempts:       cfg.Firebase.Retry.MaxAttempts,
		InitialBackoff:    cfg.Firebase.Retry.InitialBackoff,
		MaxBackoff:        cfg.Firebase.Retry.MaxBackoff,
	}, logger)

	a.sync = service.NewSyncService(
		firebase.NewMetadataReader(client, cfg.Firebase.DatabaseURL, cfg.Firebase.MetadataPath, cfg.Firebase.AuthToken, logger),
		firebase.NewBundleFetcher(client, cfg.Local.BundleFile, firebase.BundleOptions{
			AuthToken:      cfg.Firebase.AuthToken,
			VerifyChecksum: cfg.Local.VerifyChecksum,
		}, logger),
		bundle.NewFile(cfg.Local.BundleFile),
		postgres.NewMetadataCache(db),
		draws,
		postgres.NewSyncStateStore(db),
		postgres.NewTransactionManager(db),
		pub,
		logger,
		locator,
	)

	return a, nil
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close publisher", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}
