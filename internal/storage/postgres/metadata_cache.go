package postgres

import (
	"context"
	"strconv"

	"github.com/jmoiron/sqlx"

	"lotofacil_sync/internal/domain"
)

const (
	CacheNamespace = "lotofacil_bundle_cache"

	keyVersion  = "version"
	keyChecksum = "checksum"
)

// MetadataCache keeps the version and checksum of the last downloaded
// bundle as two scalar entries in the kv_cache table.
type MetadataCache struct {
	db        *sqlx.DB
	namespace string
}

func NewMetadataCache(db *sqlx.DB) *MetadataCache {
	return &MetadataCache{db: db, namespace: CacheNamespace}
}

type kvEntry struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// Get returns empty metadata when nothing was cached yet.
func (c *MetadataCache) Get(ctx context.Context) (*domain.CachedMetadata, error) {
	var entries []kvEntry
	query := `
		SELECT key, value
		FROM kv_cache
		WHERE namespace = $1 AND key IN ($2, $3)`

	err := sqlx.SelectContext(ctx, GetExecutor(ctx, c.db), &entries, query, c.namespace, keyVersion, keyChecksum)
	if err != nil {
		return nil, err
	}

	meta := &domain.CachedMetadata{}
	for _, e := range entries {
		switch e.Key {
		case keyVersion:
			if v, err := strconv.ParseInt(e.Value, 10, 64); err == nil {
				meta.Version = &v
			}
		case keyChecksum:
			checksum := e.Value
			meta.Checksum = &checksum
		}
	}
	return meta, nil
}

// Put stores the version and checksum that are present; absent fields
// keep their previous value.
func (c *MetadataCache) Put(ctx context.Context, meta *domain.RemoteMetadata) error {
	exec := GetExecutor(ctx, c.db)

	if meta.Version != nil {
		if err := c.set(ctx, exec, keyVersion, strconv.FormatInt(*meta.Version, 10)); err != nil {
			return err
		}
	}
	if meta.Checksum != nil {
		if err := c.set(ctx, exec, keyChecksum, *meta.Checksum); err != nil {
			return err
		}
	}
	return nil
}

func (c *MetadataCache) set(ctx context.Context, exec sqlx.ExtContext, key, value string) error {
	query := `
		INSERT INTO kv_cache (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at`

	_, err := exec.ExecContext(ctx, query, c.namespace, key, value)
	return err
}
