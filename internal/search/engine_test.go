package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"notevec/internal/config"
	"notevec/internal/embed"
	"notevec/internal/service"
	"notevec/internal/storage"
	"notevec/internal/vector"
)

// stubChunks serves a fixed row set.
type stubChunks struct {
	rows   []storage.ChunkRow
	filter storage.SearchFilter
	err    error
}

func (s *stubChunks) Scan(_ context.Context, filter storage.SearchFilter) ([]storage.ChunkRow, error) {
	s.filter = filter
	if s.err != nil {
		return nil, s.err
	}
	rows := s.rows
	if filter.MaxScanned > 0 && len(rows) > filter.MaxScanned {
		rows = rows[:filter.MaxScanned]
	}
	return rows, nil
}

func (s *stubChunks) Count(context.Context, string) (int, error) {
	return len(s.rows), nil
}

// stubEmbedder returns a fixed query vector.
type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return s.vec, s.err
}

func testConfig() *config.Config {
	return &config.Config{Enabled: true, Provider: config.ProviderOllama}
}

func row(noteKey, title string, index int, vec []float32) storage.ChunkRow {
	return storage.ChunkRow{
		NoteKey:    noteKey,
		Title:      title,
		Source:     "notes",
		ChunkIndex: index,
		Preview:    "preview of " + noteKey,
		Text:       "full text of " + noteKey,
		Embedding:  vector.Encode(vec),
		Dims:       len(vec),
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	engine := NewEngine(testConfig(), &stubChunks{}, &stubEmbedder{})

	for _, query := range []string{"", "   ", "\n\t"} {
		if _, err := engine.Search(context.Background(), Params{Query: query}); !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("query %q: expected ErrEmptyQuery, got %v", query, err)
		}
	}
}

func TestSearchNotConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	engine := NewEngine(cfg, &stubChunks{}, &stubEmbedder{})

	results, err := engine.Search(context.Background(), Params{Query: "anything"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !results.NotConfigured {
		t.Error("expected NotConfigured")
	}
	if len(results.Hits) != 0 {
		t.Errorf("expected no hits, got %d", len(results.Hits))
	}
}

func TestSearchRanksByCosine(t *testing.T) {
	chunks := &stubChunks{rows: []storage.ChunkRow{
		row("notes:far.md", "Far", 0, []float32{0, 1, 0}),
		row("notes:close.md", "Close", 0, []float32{1, 0.1, 0}),
		row("notes:exact.md", "Exact", 0, []float32{1, 0, 0}),
	}}
	engine := NewEngine(testConfig(), chunks, &stubEmbedder{vec: []float32{1, 0, 0}})

	results, err := engine.Search(context.Background(), Params{Query: "q"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if results.Scanned != 3 {
		t.Errorf("scanned=%d, want 3", results.Scanned)
	}
	got := make([]string, len(results.Hits))
	for i, h := range results.Hits {
		got[i] = h.Title
	}
	want := []string{"Exact", "Close", "Far"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rank order %v, want %v", got, want)
		}
	}
	if results.Hits[0].Score != 1 {
		t.Errorf("top score=%v, want 1", results.Hits[0].Score)
	}
}

func TestSearchScoreTiesKeepRecencyOrder(t *testing.T) {
	// The scan delivers rows newest first. "Old" has the lexically
	// smaller note key, so a key tie-break would wrongly promote it.
	chunks := &stubChunks{rows: []storage.ChunkRow{
		row("notes:z-fresh.md", "Fresh", 0, []float32{1, 0}),
		row("notes:a-old.md", "Old", 0, []float32{1, 0}),
	}}
	engine := NewEngine(testConfig(), chunks, &stubEmbedder{vec: []float32{1, 0}})

	results, err := engine.Search(context.Background(), Params{Query: "q"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results.Hits) != 2 {
		t.Fatalf("hits=%d, want 2", len(results.Hits))
	}
	if results.Hits[0].Title != "Fresh" || results.Hits[1].Title != "Old" {
		t.Errorf("tie broken against recency: got %q first, want Fresh", results.Hits[0].Title)
	}
}

func TestSearchSortsOnRawScores(t *testing.T) {
	// Both rows round to the same reported score; the raw similarity
	// still decides the order.
	chunks := &stubChunks{rows: []storage.ChunkRow{
		row("notes:fresh.md", "Fresh", 0, []float32{1, 0.0002}),
		row("notes:old.md", "Old", 0, []float32{1, 0.0001}),
	}}
	engine := NewEngine(testConfig(), chunks, &stubEmbedder{vec: []float32{1, 0}})

	results, err := engine.Search(context.Background(), Params{Query: "q"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if results.Hits[0].Title != "Old" {
		t.Errorf("expected the higher raw score first, got %q", results.Hits[0].Title)
	}
	if results.Hits[0].Score != results.Hits[1].Score {
		t.Errorf("reported scores should round equal: %v vs %v",
			results.Hits[0].Score, results.Hits[1].Score)
	}
}

func TestSearchMinScore(t *testing.T) {
	chunks := &stubChunks{rows: []storage.ChunkRow{
		row("notes:hit.md", "Hit", 0, []float32{1, 0}),
		row("notes:miss.md", "Miss", 0, []float32{0, 1}),
	}}
	engine := NewEngine(testConfig(), chunks, &stubEmbedder{vec: []float32{1, 0}})

	results, err := engine.Search(context.Background(), Params{Query: "q", MinScore: 0.5})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results.Hits) != 1 || results.Hits[0].Title != "Hit" {
		t.Errorf("expected only the close hit, got %+v", results.Hits)
	}
}

func TestSearchLimit(t *testing.T) {
	var rows []storage.ChunkRow
	for i := 0; i < 25; i++ {
		rows = append(rows, row("notes:n.md", "N", i, []float32{1, 0}))
	}
	chunks := &stubChunks{rows: rows}
	engine := NewEngine(testConfig(), chunks, &stubEmbedder{vec: []float32{1, 0}})

	t.Run("default limit", func(t *testing.T) {
		results, err := engine.Search(context.Background(), Params{Query: "q"})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(results.Hits) != defaultLimit {
			t.Errorf("hits=%d, want %d", len(results.Hits), defaultLimit)
		}
	})

	t.Run("explicit limit", func(t *testing.T) {
		results, err := engine.Search(context.Background(), Params{Query: "q", Limit: 3})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(results.Hits) != 3 {
			t.Errorf("hits=%d, want 3", len(results.Hits))
		}
	})
}

func TestSearchCorruptEmbeddingScoresZero(t *testing.T) {
	corrupt := row("notes:bad.md", "Bad", 0, nil)
	corrupt.Embedding = []byte{1, 2, 3} // not a multiple of 4
	chunks := &stubChunks{rows: []storage.ChunkRow{
		corrupt,
		row("notes:good.md", "Good", 0, []float32{1, 0}),
	}}
	engine := NewEngine(testConfig(), chunks, &stubEmbedder{vec: []float32{1, 0}})

	results, err := engine.Search(context.Background(), Params{Query: "q"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results.Hits) != 2 {
		t.Fatalf("hits=%d, want 2", len(results.Hits))
	}
	if results.Hits[0].Title != "Good" || results.Hits[1].Score != 0 {
		t.Errorf("corrupt row not demoted to zero: %+v", results.Hits)
	}
}

func TestSearchIncludeText(t *testing.T) {
	chunks := &stubChunks{rows: []storage.ChunkRow{
		row("notes:a.md", "A", 0, []float32{1, 0}),
	}}
	engine := NewEngine(testConfig(), chunks, &stubEmbedder{vec: []float32{1, 0}})

	plain, err := engine.Search(context.Background(), Params{Query: "q"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if plain.Hits[0].Text != "" {
		t.Error("text returned without IncludeText")
	}
	if !strings.HasPrefix(plain.Hits[0].Preview, "preview") {
		t.Errorf("preview missing: %+v", plain.Hits[0])
	}

	full, err := engine.Search(context.Background(), Params{Query: "q", IncludeText: true})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if full.Hits[0].Text == "" {
		t.Error("expected full text with IncludeText")
	}
}

func TestSearchPassesFilter(t *testing.T) {
	chunks := &stubChunks{}
	engine := NewEngine(testConfig(), chunks, &stubEmbedder{vec: []float32{1}})

	_, err := engine.Search(context.Background(), Params{
		Query:      "q",
		SpaceID:    "work",
		Source:     "calendar",
		NoteType:   "note",
		MaxScanned: 500,
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	want := storage.SearchFilter{SpaceID: "work", Source: "calendar", NoteType: "note", MaxScanned: 500}
	if chunks.filter != want {
		t.Errorf("filter %+v, want %+v", chunks.filter, want)
	}
}

func TestSearchProviderFailure(t *testing.T) {
	engine := NewEngine(testConfig(), &stubChunks{}, &stubEmbedder{err: errors.New("provider down")})

	_, err := engine.Search(context.Background(), Params{Query: "q"})
	if !errors.Is(err, service.ErrExternalService) {
		t.Errorf("expected ErrExternalService, got %v", err)
	}
}

func TestSearchNoQuerySource(t *testing.T) {
	engine := NewEngine(testConfig(), &stubChunks{}, embed.NewChain())

	_, err := engine.Search(context.Background(), Params{Query: "q"})
	if !errors.Is(err, embed.ErrNoQuerySource) {
		t.Errorf("expected ErrNoQuerySource, got %v", err)
	}
}
