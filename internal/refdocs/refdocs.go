// Package refdocs serves a read-only, pre-built reference documentation
// index bundled with the binary. Chunk vectors are stored quantized to one
// byte per dimension and decoded at load time.
package refdocs

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"notevec/internal/vector"
)

//go:embed assets/refdocs.jsonl.gz
var bundledData []byte

//go:embed assets/manifest.json
var bundledManifest []byte

// ErrChunkNotFound is returned when no chunk matches a doc title and index.
var ErrChunkNotFound = errors.New("reference chunk not found")

// Manifest describes the bundled dataset.
type Manifest struct {
	Version   int    `json:"version"`
	Model     string `json:"model"`
	Dims      int    `json:"dims"`
	Count     int    `json:"count"`
	CreatedAt string `json:"created_at"`
	DataFile  string `json:"data_file"`
}

// Chunk is one reference documentation segment.
type Chunk struct {
	ID    string `json:"id"`
	Doc   string `json:"doc"`
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// chunkEntry is the on-disk JSONL row: a chunk plus its quantized vector.
type chunkEntry struct {
	ID     string  `json:"id"`
	Doc    string  `json:"doc"`
	Index  int     `json:"index"`
	Text   string  `json:"text"`
	Vector string  `json:"vector"`
	Scale  float32 `json:"scale"`
}

// Index is the loaded reference index. It is immutable after Load and safe
// for concurrent use.
type Index struct {
	manifest  Manifest
	chunks    []Chunk
	vectors   [][]float32
	docCounts map[string]int
}

// Load decompresses and parses the bundled dataset. When cacheDir is
// non-empty the decompressed JSONL is kept there, guarded by a sha256
// sidecar so a new binary refreshes a stale cache. Cache trouble is never
// fatal; the embedded data always works.
func Load(cacheDir string) (*Index, error) {
	var manifest Manifest
	if err := json.Unmarshal(bundledManifest, &manifest); err != nil {
		return nil, fmt.Errorf("invalid bundled manifest: %w", err)
	}
	if manifest.Dims <= 0 {
		return nil, fmt.Errorf("invalid dims in bundled manifest: %d", manifest.Dims)
	}

	data, err := readDataset(cacheDir)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		manifest:  manifest,
		docCounts: make(map[string]int),
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry chunkEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("invalid reference dataset row: %w", err)
		}
		blob, err := base64.StdEncoding.DecodeString(entry.Vector)
		if err != nil {
			return nil, fmt.Errorf("invalid vector for %s: %w", entry.ID, err)
		}
		if len(blob) != manifest.Dims {
			return nil, fmt.Errorf("vector for %s has %d dims, manifest says %d", entry.ID, len(blob), manifest.Dims)
		}

		idx.chunks = append(idx.chunks, Chunk{
			ID:    entry.ID,
			Doc:   entry.Doc,
			Index: entry.Index,
			Text:  entry.Text,
		})
		idx.vectors = append(idx.vectors, vector.Dequantize(blob, entry.Scale))
		idx.docCounts[entry.Doc]++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reference dataset: %w", err)
	}
	if len(idx.chunks) != manifest.Count {
		return nil, fmt.Errorf("reference dataset has %d chunks, manifest says %d", len(idx.chunks), manifest.Count)
	}

	return idx, nil
}

// Count returns the number of chunks in the index.
func (idx *Index) Count() int {
	return len(idx.chunks)
}

// Manifest returns the bundled dataset's manifest.
func (idx *Index) Manifest() Manifest {
	return idx.manifest
}

// readDataset returns the decompressed JSONL, preferring a valid cache file.
func readDataset(cacheDir string) ([]byte, error) {
	if cacheDir == "" {
		return decompress(bundledData)
	}

	sum := fmt.Sprintf("%x", sha256.Sum256(bundledData))
	cachePath := filepath.Join(cacheDir, "refdocs.jsonl")
	sidecarPath := cachePath + ".sha256"

	if sidecar, err := os.ReadFile(sidecarPath); err == nil && string(bytes.TrimSpace(sidecar)) == sum {
		if data, err := os.ReadFile(cachePath); err == nil {
			return data, nil
		}
	}

	data, err := decompress(bundledData)
	if err != nil {
		return nil, err
	}

	if err := writeCache(cacheDir, cachePath, sidecarPath, data, sum); err != nil {
		slog.Debug("failed to write reference cache", "error", err)
	}
	return data, nil
}

func writeCache(cacheDir, cachePath, sidecarPath string, data []byte, sum string) error {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return err
	}
	if err := os.WriteFile(cachePath, data, 0644); err != nil {
		return err
	}
	return os.WriteFile(sidecarPath, []byte(sum+"\n"), 0644)
}

func decompress(gz []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(gz))
	if err != nil {
		return nil, fmt.Errorf("failed to open bundled dataset: %w", err)
	}
	defer func() {
		_ = r.Close()
	}()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress bundled dataset: %w", err)
	}
	return data, nil
}
