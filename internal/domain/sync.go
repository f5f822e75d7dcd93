package domain

import "time"

// SyncStats holds statistics about a sync operation.
type SyncStats struct {
	BundleID   string
	Checked    bool
	Downloaded bool
	Version    *int64
	Checksum   *string
	Draws      int
	Published  int
	Errors     int
	Duration   time.Duration
}
