package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"lotofacil_sync/internal/bundle"
	"lotofacil_sync/internal/domain"
)

const maxMetadataBytes = 1 << 20

// MetadataReader reads the metadata document from the Realtime Database
// REST API.
type MetadataReader struct {
	client *Client
	url    string
	logger *slog.Logger
}

// NewMetadataReader targets {databaseURL}/{metadataPath}.json. The auth
// token, when set, is passed as the auth query parameter.
func NewMetadataReader(client *Client, databaseURL, metadataPath, authToken string, logger *slog.Logger) *MetadataReader {
	u := strings.TrimRight(databaseURL, "/") + "/" + strings.Trim(metadataPath, "/") + ".json"
	if authToken != "" {
		u += "?auth=" + url.QueryEscape(authToken)
	}

	return &MetadataReader{
		client: client,
		url:    u,
		logger: logger.With("source", SourceID),
	}
}

// Fetch returns nil, nil when no metadata is published or the document
// cannot be read as an object. Transport failures are returned.
func (r *MetadataReader) Fetch(ctx context.Context) (*domain.RemoteMetadata, error) {
	if r.client.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.client.timeout)
		defer cancel()
	}

	resp, err := r.client.get(ctx, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataBytes))
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		r.logger.Warn("malformed metadata document", "error", err)
		return nil, nil
	}

	m, ok := doc.(map[string]any)
	if !ok {
		if doc != nil {
			r.logger.Warn("metadata document is not an object")
		}
		return nil, nil
	}

	meta := bundle.MetadataFromMap(m)
	r.logger.Debug("fetched metadata",
		"version", meta.Version,
		"checksum", meta.Checksum,
		"row_count", meta.RowCount,
	)

	return &meta, nil
}
