package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"lotofacil_sync/internal/domain"
)

// ErrNotObject is returned when the bundle file is valid JSON but not an object.
var ErrNotObject = errors.New("bundle is not a JSON object")

// File is the fixed on-disk location of the last downloaded bundle.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

// Exists reports whether a bundle has been downloaded to the path.
func (f *File) Exists() bool {
	info, err := os.Stat(f.path)
	return err == nil && !info.IsDir()
}

// Read parses the bundle file. It returns nil, nil when nothing was downloaded yet.
func (f *File) Read() (*domain.LocalBundle, error) {
	return Parse(f.path)
}

// Parse reads a bundle file leniently: missing scalars fall back to zero
// values, non-object draw entries are skipped and a draw without numbers
// keeps an empty slice. Only a document that is not a JSON object fails.
func Parse(path string) (*domain.LocalBundle, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if root == nil {
		return nil, ErrNotObject
	}

	return &domain.LocalBundle{
		Metadata: MetadataFromMap(root),
		Draws:    parseDraws(root["draws"]),
		RawStats: parseStats(root["stats"]),
	}, nil
}

// MetadataFromMap maps a decoded metadata document. Fields with an
// unexpected type are left nil or zero. The version must be a JSON
// number; a numeric string is not a version.
func MetadataFromMap(m map[string]any) domain.RemoteMetadata {
	return domain.RemoteMetadata{
		Version:        optNumber(m, "version"),
		Checksum:       optString(m, "checksum"),
		GeneratedAt:    stringField(m, "generatedAt"),
		SchemaVersion:  intField(m, "schemaVersion"),
		RowCount:       intField(m, "rowCount"),
		ContestMin:     intField(m, "contestMin"),
		ContestMax:     intField(m, "contestMax"),
		NumbersPerDraw: intField(m, "numbersPerDraw"),
	}
}

func parseDraws(raw any) []domain.LocalDraw {
	items, ok := raw.([]any)
	if !ok {
		return []domain.LocalDraw{}
	}

	draws := make([]domain.LocalDraw, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}

		numbers := []int{}
		if list, ok := obj["numbers"].([]any); ok {
			numbers = make([]int, 0, len(list))
			for _, n := range list {
				v, _ := toInt64(n)
				numbers = append(numbers, int(v))
			}
		}

		draws = append(draws, domain.LocalDraw{
			ID:      intField(obj, "id"),
			Date:    stringField(obj, "date"),
			Numbers: numbers,
		})
	}
	return draws
}

func parseStats(raw any) map[string]any {
	if stats, ok := raw.(map[string]any); ok {
		return stats
	}
	return map[string]any{}
}

func intField(m map[string]any, key string) int {
	v, _ := toInt64(m[key])
	return int(v)
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func optNumber(m map[string]any, key string) *int64 {
	if _, ok := m[key].(string); ok {
		return nil
	}
	v, ok := toInt64(m[key])
	if !ok {
		return nil
	}
	return &v
}

func optString(m map[string]any, key string) *string {
	s, ok := m[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// toInt64 accepts decoder numbers, plain floats and numeric strings.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}
