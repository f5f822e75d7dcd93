package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"lotofacil_sync/internal/domain"
)

type MetadataReader interface {
	Fetch(ctx context.Context) (*domain.RemoteMetadata, error)
}

type BundleFetcher interface {
	Download(ctx context.Context, locator string, checksum *string) (string, error)
}

type BundleFile interface {
	Exists() bool
	Read() (*domain.LocalBundle, error)
}

type MetadataCache interface {
	Get(ctx context.Context) (*domain.CachedMetadata, error)
	Put(ctx context.Context, meta *domain.RemoteMetadata) error
}

type DrawStore interface {
	UpsertBatch(ctx context.Context, draws []domain.LocalDraw) error
}

type SyncStateStore interface {
	Get(ctx context.Context, bundleID string) (*domain.SyncState, error)
	Update(ctx context.Context, state *domain.SyncState) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, meta *domain.RemoteMetadata) error
	Close() error
}
