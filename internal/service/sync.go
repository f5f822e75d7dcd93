package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lotofacil_sync/internal/domain"
)

const BundleID = "lotofacil"

// ErrRemoteUnavailable marks failures talking to the remote store, as
// opposed to local storage failures.
var ErrRemoteUnavailable = errors.New("remote unavailable")

// SyncService keeps the local bundle in step with the published one,
// comparing checksums before paying for a download.
type SyncService struct {
	metadata  MetadataReader
	fetcher   BundleFetcher
	local     BundleFile
	cache     MetadataCache
	draws     DrawStore
	syncState SyncStateStore
	txManager TransactionManager
	publisher Publisher
	locator   string
	logger    *slog.Logger

	// mu serializes syncs so two callers never race on the bundle file
	// and the cache entries.
	mu sync.Mutex
}

// NewSyncService wires the orchestrator. draws and publisher may be nil
// to skip draw indexing and notifications.
func NewSyncService(
	metadata MetadataReader,
	fetcher BundleFetcher,
	local BundleFile,
	cache MetadataCache,
	draws DrawStore,
	syncState SyncStateStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	locator string,
) *SyncService {
	return &SyncService{
		metadata:  metadata,
		fetcher:   fetcher,
		local:     local,
		cache:     cache,
		draws:     draws,
		syncState: syncState,
		txManager: txManager,
		publisher: publisher,
		locator:   locator,
		logger:    logger.With("bundle", BundleID),
	}
}

// SyncIfNeeded downloads the bundle when there is no local copy or the
// remote checksum differs from the cached one. It reports whether a
// download happened.
func (s *SyncService) SyncIfNeeded(ctx context.Context) (bool, error) {
	stats, err := s.Sync(ctx)
	if err != nil {
		return false, err
	}
	return stats.Downloaded, nil
}

// Sync is SyncIfNeeded with the details of the run.
func (s *SyncService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	startTime := time.Now()
	stats := &domain.SyncStats{BundleID: BundleID}

	remote, err := s.metadata.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch remote metadata: %w: %w", ErrRemoteUnavailable, err)
	}
	if remote == nil {
		s.logger.Info("no remote metadata published")
		stats.Duration = time.Since(startTime)
		return stats, nil
	}
	stats.Checked = true

	cached, err := s.cache.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cached metadata: %w", err)
	}

	if !needsDownload(s.local.Exists(), remote, cached) {
		s.logger.Debug("bundle up to date", "checksum", remote.Checksum)
		stats.Duration = time.Since(startTime)
		return stats, nil
	}

	if _, err := s.fetcher.Download(ctx, s.locator, remote.Checksum); err != nil {
		return nil, fmt.Errorf("download bundle: %w: %w", ErrRemoteUnavailable, err)
	}

	indexed, err := s.apply(ctx, remote)
	if err != nil {
		return nil, fmt.Errorf("apply bundle: %w", err)
	}

	stats.Downloaded = true
	stats.Version = remote.Version
	stats.Checksum = remote.Checksum
	stats.Draws = indexed

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, remote); err != nil {
			s.logger.Warn("failed to publish bundle update", "error", err)
			stats.Errors++
		} else {
			stats.Published++
		}
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("bundle updated",
		"version", remote.Version,
		"checksum", remote.Checksum,
		"draws", stats.Draws,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return stats, nil
}

// ReadLocalBundle parses the on-disk bundle; nil when nothing was
// downloaded yet.
func (s *SyncService) ReadLocalBundle() (*domain.LocalBundle, error) {
	b, err := s.local.Read()
	if err != nil {
		return nil, fmt.Errorf("read local bundle: %w", err)
	}
	return b, nil
}

// LastSync returns the bookkeeping row of the last applied download.
func (s *SyncService) LastSync(ctx context.Context) (*domain.SyncState, error) {
	return s.syncState.Get(ctx, BundleID)
}

// needsDownload: a missing local bundle always downloads. A nil remote
// checksum gives nothing to compare against and never forces one.
func needsDownload(hasLocal bool, remote *domain.RemoteMetadata, cached *domain.CachedMetadata) bool {
	if !hasLocal {
		return true
	}
	if remote.Checksum == nil {
		return false
	}
	if cached == nil || cached.Checksum == nil {
		return true
	}
	return *cached.Checksum != *remote.Checksum
}

// apply records a finished download in one transaction: indexed draws,
// cached metadata and sync state either all land or none do.
func (s *SyncService) apply(ctx context.Context, remote *domain.RemoteMetadata) (int, error) {
	indexed := 0

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if s.draws != nil {
			b, err := s.local.Read()
			if err != nil {
				return fmt.Errorf("read bundle: %w", err)
			}
			if b != nil && len(b.Draws) > 0 {
				if err := s.draws.UpsertBatch(txCtx, b.Draws); err != nil {
					return fmt.Errorf("index draws: %w", err)
				}
				indexed = len(b.Draws)
			}
		}

		if err := s.cache.Put(txCtx, remote); err != nil {
			return fmt.Errorf("save cached metadata: %w", err)
		}

		state, err := s.syncState.Get(txCtx, BundleID)
		if err != nil {
			return fmt.Errorf("get sync state: %w", err)
		}

		now := time.Now()
		state.BundleID = BundleID
		state.LastVersion = remote.Version
		state.LastChecksum = remote.Checksum
		state.LastDownloadedAt = &now
		state.TotalDownloads++

		if err := s.syncState.Update(txCtx, state); err != nil {
			return fmt.Errorf("update sync state: %w", err)
		}
		return nil
	})

	return indexed, err
}
