package refdocs

import (
	"errors"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// queryVector builds a bag-of-words vector matching the bundled dataset's
// encoding, standing in for a live embedding provider.
func queryVector(text string) []float32 {
	vec := make([]float32, 64)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%64]++
	}
	return vec
}

func loadIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("failed to load reference index: %v", err)
	}
	return idx
}

func TestLoad(t *testing.T) {
	idx := loadIndex(t)
	if idx.Count() == 0 {
		t.Fatal("index is empty")
	}
	if idx.Count() != idx.Manifest().Count {
		t.Errorf("count=%d, manifest says %d", idx.Count(), idx.Manifest().Count)
	}
}

func TestLoadWithoutCacheDir(t *testing.T) {
	idx, err := Load("")
	if err != nil {
		t.Fatalf("failed to load without cache: %v", err)
	}
	if idx.Count() == 0 {
		t.Fatal("index is empty")
	}
}

func TestLoadCacheLifecycle(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "refdocs.jsonl")
	sidecarPath := cachePath + ".sha256"

	if _, err := Load(dir); err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}
	firstCache, err := os.ReadFile(cachePath)
	if err != nil {
		t.Fatalf("failed to read cache: %v", err)
	}

	// A stale sidecar marks the cache invalid and gets it rewritten.
	if err := os.WriteFile(sidecarPath, []byte("stale\n"), 0644); err != nil {
		t.Fatalf("failed to corrupt sidecar: %v", err)
	}
	if err := os.WriteFile(cachePath, []byte("garbage"), 0644); err != nil {
		t.Fatalf("failed to corrupt cache: %v", err)
	}

	idx, err := Load(dir)
	if err != nil {
		t.Fatalf("reload after corruption failed: %v", err)
	}
	if idx.Count() == 0 {
		t.Fatal("index empty after cache refresh")
	}
	refreshed, err := os.ReadFile(cachePath)
	if err != nil {
		t.Fatalf("failed to read refreshed cache: %v", err)
	}
	if string(refreshed) != string(firstCache) {
		t.Error("refreshed cache differs from original")
	}
}

func TestSearch(t *testing.T) {
	idx := loadIndex(t)

	matches := idx.Search(queryVector("sync engine conflicted copy remote edits"), 3, 0)
	if len(matches) == 0 {
		t.Fatal("no matches")
	}
	if matches[0].Doc != "Sync and Backup" {
		t.Errorf("top doc=%q, want Sync and Backup (matches: %+v)", matches[0].Doc, matches)
	}
	if matches[0].Score < 0.3 {
		t.Errorf("top score=%v, want >= 0.3", matches[0].Score)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("matches not sorted at %d", i)
		}
	}
}

func TestSearchMinScore(t *testing.T) {
	idx := loadIndex(t)

	all := idx.Search(queryVector("keyboard shortcuts"), 100, 0)
	strict := idx.Search(queryVector("keyboard shortcuts"), 100, 0.9)
	if len(strict) >= len(all) {
		t.Errorf("minScore did not drop anything: %d vs %d", len(strict), len(all))
	}
	for _, m := range strict {
		if m.Score < 0.9 {
			t.Errorf("match below threshold: %+v", m)
		}
	}
}

func TestSearchDimensionMismatchScoresZero(t *testing.T) {
	idx := loadIndex(t)

	// A query vector from a different model has different dimensions;
	// every score degrades to zero instead of erroring.
	for _, m := range idx.Search(make([]float32, 1536), 100, 0) {
		if m.Score != 0 {
			t.Errorf("expected zero score on dims mismatch, got %+v", m)
		}
	}
}

func TestSearchText(t *testing.T) {
	idx := loadIndex(t)

	matches := idx.SearchText("shortcuts", 5)
	if len(matches) == 0 {
		t.Fatal("no matches")
	}
	if matches[0].Doc != "Keyboard Shortcuts" {
		t.Errorf("top doc=%q, want Keyboard Shortcuts", matches[0].Doc)
	}
	// The chunk whose body also contains the term outranks title-only hits.
	if matches[0].Index != 1 {
		t.Errorf("top chunk index=%d, want 1", matches[0].Index)
	}
}

func TestSearchTextNoTerms(t *testing.T) {
	idx := loadIndex(t)
	if got := idx.SearchText("   ", 5); len(got) != 0 {
		t.Errorf("expected no matches for blank query, got %d", len(got))
	}
}

func TestSearchTextLimit(t *testing.T) {
	idx := loadIndex(t)
	if got := idx.SearchText("the", 2); len(got) > 2 {
		t.Errorf("limit not applied: %d matches", len(got))
	}
}

func TestChunkLookup(t *testing.T) {
	idx := loadIndex(t)

	chunk, total, err := idx.Chunk("markdown formatting", 2)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if chunk.Doc != "Markdown Formatting" || chunk.Index != 2 {
		t.Errorf("wrong chunk: %+v", chunk)
	}
	if total != 3 {
		t.Errorf("total=%d, want 3", total)
	}
	if !strings.Contains(chunk.Text, "Front matter") {
		t.Errorf("unexpected chunk text: %q", chunk.Text)
	}

	if _, _, err := idx.Chunk("No Such Doc", 0); !errors.Is(err, ErrChunkNotFound) {
		t.Errorf("expected ErrChunkNotFound, got %v", err)
	}
	if _, _, err := idx.Chunk("Markdown Formatting", 99); !errors.Is(err, ErrChunkNotFound) {
		t.Errorf("expected ErrChunkNotFound for bad index, got %v", err)
	}
}
