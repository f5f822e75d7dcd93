package domain

import "time"

// RemoteMetadata describes the latest published bundle.
type RemoteMetadata struct {
	Version        *int64  `json:"version"`
	Checksum       *string `json:"checksum"`
	GeneratedAt    string  `json:"generatedAt"`
	SchemaVersion  int     `json:"schemaVersion"`
	RowCount       int     `json:"rowCount"`
	ContestMin     int     `json:"contestMin"`
	ContestMax     int     `json:"contestMax"`
	NumbersPerDraw int     `json:"numbersPerDraw"`
}

// CachedMetadata is what was last downloaded.
type CachedMetadata struct {
	Version  *int64
	Checksum *string
}

type LocalDraw struct {
	ID      int    `json:"id"`
	Date    string `json:"date"`
	Numbers []int  `json:"numbers"`
}

// LocalBundle is the parsed on-disk bundle. RawStats is owned by the
// backend and passed through untouched.
type LocalBundle struct {
	Metadata RemoteMetadata
	Draws    []LocalDraw
	RawStats map[string]any
}

// SyncState is the per-bundle bookkeeping row kept next to the cache.
type SyncState struct {
	ID               int64      `db:"id" json:"-"`
	BundleID         string     `db:"bundle_id" json:"bundleId"`
	LastVersion      *int64     `db:"last_version" json:"lastVersion"`
	LastChecksum     *string    `db:"last_checksum" json:"lastChecksum"`
	LastDownloadedAt *time.Time `db:"last_downloaded_at" json:"lastDownloadedAt"`
	TotalDownloads   int64      `db:"total_downloads" json:"totalDownloads"`
}
