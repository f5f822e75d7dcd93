package firebase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const storageAPI = "https://firebasestorage.googleapis.com/v0/b"

var ErrChecksumMismatch = errors.New("bundle checksum mismatch")

// ResolveLocator builds the download URL for bundlePath under a storage
// root. A gs://bucket root maps to the Firebase Storage media endpoint,
// an http(s) root is joined with the path.
func ResolveLocator(root, bundlePath string) (string, error) {
	u, err := url.Parse(root)
	if err != nil {
		return "", fmt.Errorf("parse storage root: %w", err)
	}

	switch u.Scheme {
	case "gs":
		if u.Host == "" {
			return "", fmt.Errorf("storage root %q has no bucket", root)
		}
		object := strings.Trim(path.Join(u.Path, bundlePath), "/")
		return fmt.Sprintf("%s/%s/o/%s?alt=media", storageAPI, u.Host, url.PathEscape(object)), nil
	case "http", "https":
		return u.JoinPath(bundlePath).String(), nil
	default:
		return "", fmt.Errorf("unsupported storage root scheme %q", u.Scheme)
	}
}

type BundleOptions struct {
	AuthToken      string
	VerifyChecksum bool
}

// BundleFetcher streams the bundle blob to a fixed local path.
type BundleFetcher struct {
	client    *Client
	dest      string
	authToken string
	verify    bool
	logger    *slog.Logger
}

func NewBundleFetcher(client *Client, dest string, opts BundleOptions, logger *slog.Logger) *BundleFetcher {
	return &BundleFetcher{
		client:    client,
		dest:      dest,
		authToken: opts.AuthToken,
		verify:    opts.VerifyChecksum,
		logger:    logger.With("source", SourceID),
	}
}

// Download writes the blob at locator to a temporary file next to the
// destination and renames it into place once complete, so a failed or
// cancelled download leaves the previous bundle untouched. When checksum
// verification is enabled and checksum is set, the download must match
// it: a "sha256:" checksum covers the canonical draws and stats content,
// a bare hex one the raw bytes.
func (f *BundleFetcher) Download(ctx context.Context, locator string, checksum *string) (string, error) {
	dir := filepath.Dir(f.dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create bundle dir: %w", err)
	}

	var header http.Header
	if f.authToken != "" {
		header = http.Header{"Authorization": []string{"Bearer " + f.authToken}}
	}

	resp, err := f.client.get(ctx, locator, header)
	if err != nil {
		return "", fmt.Errorf("get bundle: %w", err)
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.dest)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	hash := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, hash), resp.Body)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("write bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	if f.verify && checksum != nil {
		if err := verifyChecksum(tmpPath, hex.EncodeToString(hash.Sum(nil)), *checksum); err != nil {
			return "", err
		}
	}

	if err := os.Rename(tmpPath, f.dest); err != nil {
		return "", fmt.Errorf("replace bundle: %w", err)
	}
	committed = true

	f.logger.Info("bundle downloaded",
		"path", f.dest,
		"bytes", written,
	)

	return f.dest, nil
}
