package firebase

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const contentPrefix = "sha256:"

// verifyChecksum compares a downloaded file against the published
// checksum. A "sha256:" value digests the canonical draws and stats
// content; a bare hex value digests the raw bytes.
func verifyChecksum(path, rawDigest, checksum string) error {
	want := checksum
	got := rawDigest

	if len(checksum) >= len(contentPrefix) && strings.EqualFold(checksum[:len(contentPrefix)], contentPrefix) {
		want = checksum[len(contentPrefix):]
		digest, err := contentDigest(path)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrChecksumMismatch, err)
		}
		got = digest
	}

	if !strings.EqualFold(got, want) {
		return fmt.Errorf("%w: want %s, got %s", ErrChecksumMismatch, want, got)
	}
	return nil
}

// contentDigest hashes the compact JSON of {"draws", "stats"} with sorted
// keys and unescaped HTML characters. Numbers keep their source literal.
func contentDigest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read bundle: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return "", fmt.Errorf("decode bundle: %w", err)
	}
	if root == nil {
		return "", fmt.Errorf("bundle is not an object")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any{
		"draws": root["draws"],
		"stats": root["stats"],
	}); err != nil {
		return "", fmt.Errorf("encode content: %w", err)
	}

	sum := sha256.Sum256(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return hex.EncodeToString(sum[:]), nil
}
