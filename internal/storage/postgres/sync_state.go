package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"lotofacil_sync/internal/domain"
)

type SyncStateStore struct {
	db *sqlx.DB
}

func NewSyncStateStore(db *sqlx.DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

func (s *SyncStateStore) Get(ctx context.Context, bundleID string) (*domain.SyncState, error) {
	var state domain.SyncState
	query := `
		SELECT id, bundle_id, last_version, last_checksum, last_downloaded_at, total_downloads
		FROM sync_state
		WHERE bundle_id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &state, query, bundleID)
	if errors.Is(err, sql.ErrNoRows) {
		// Return empty state for bundles never downloaded
		return &domain.SyncState{BundleID: bundleID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *SyncStateStore) Update(ctx context.Context, state *domain.SyncState) error {
	query := `
		INSERT INTO sync_state (bundle_id, last_version, last_checksum, last_downloaded_at, total_downloads)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (bundle_id) DO UPDATE SET
			last_version = EXCLUDED.last_version,
			last_checksum = EXCLUDED.last_checksum,
			last_downloaded_at = EXCLUDED.last_downloaded_at,
			total_downloads = EXCLUDED.total_downloads`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		state.BundleID,
		state.LastVersion,
		state.LastChecksum,
		state.LastDownloadedAt,
		state.TotalDownloads,
	)
	return err
}
