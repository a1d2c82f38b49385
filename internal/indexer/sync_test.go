package indexer

import (
	"context"
	"database/sql"
	"errors"
	"hash/fnv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"notevec/internal/config"
	embedmocks "notevec/internal/embed/mocks"
	"notevec/internal/notes"
	notemocks "notevec/internal/notes/mocks"
	"notevec/internal/service"
	"notevec/internal/storage"
	storagemocks "notevec/internal/storage/mocks"
	"notevec/internal/vector"
)

// fakeSource serves a fixed snapshot list.
type fakeSource struct {
	snaps []notes.Snapshot
}

func (s *fakeSource) ListNotes(_ context.Context, scope notes.Scope) ([]notes.Snapshot, error) {
	var out []notes.Snapshot
	for _, snap := range s.snaps {
		if scope.SpaceID != "" && snap.SpaceID != scope.SpaceID {
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

// hashEmbedder produces deterministic bag-of-words vectors, so texts sharing
// words land near each other. It counts every call for idempotence checks.
type hashEmbedder struct {
	calls int
	texts int
}

const hashDims = 64

func (e *hashEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	e.texts += len(texts)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, hashDims)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(word))
			vec[h.Sum32()%hashDims]++
		}
		out[i] = vec
	}
	return out, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Enabled:          true,
		Provider:         config.ProviderOllama,
		Model:            "nomic-embed-text",
		ChunkSize:        1600,
		ChunkOverlap:     200,
		PreviewLen:       240,
		BatchSize:        16,
		MaxChunksPerNote: 100,
	}
}

type syncFixture struct {
	orch     *Orchestrator
	source   *fakeSource
	embedder *hashEmbedder
	noteRepo *storage.NoteRepo
	meta     *storage.MetaRepo
	db       *sql.DB
}

func newSyncFixture(t *testing.T, snaps []notes.Snapshot) *syncFixture {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	source := &fakeSource{snaps: snaps}
	embedder := &hashEmbedder{}
	noteRepo := storage.NewNoteRepo(db)
	meta := storage.NewMetaRepo(db)
	orch := NewOrchestrator(testConfig(), source, noteRepo, storage.NewIndexStore(db), meta, embedder)

	return &syncFixture{
		orch:     orch,
		source:   source,
		embedder: embedder,
		noteRepo: noteRepo,
		meta:     meta,
		db:       db,
	}
}

func snapshot(filename, title, text string) notes.Snapshot {
	return notes.Snapshot{
		Filename: filename,
		Title:    title,
		Text:     text,
		Source:   notes.SourceNotes,
		Type:     "note",
		Modified: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSyncNotConfigured(t *testing.T) {
	fx := newSyncFixture(t, []notes.Snapshot{snapshot("a.md", "A", "hello")})
	fx.orch.cfg.Enabled = false

	report, err := fx.orch.Sync(context.Background(), SyncParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.NotConfigured {
		t.Error("expected NotConfigured")
	}
	if len(report.Warnings) == 0 {
		t.Error("expected a warning explaining the disabled state")
	}
	if fx.embedder.calls != 0 {
		t.Errorf("expected no embedding calls, got %d", fx.embedder.calls)
	}
}

func TestSyncIdempotent(t *testing.T) {
	fx := newSyncFixture(t, []notes.Snapshot{
		snapshot("recipes.md", "Recipe A", "Mix flour and sugar together, then bake."),
		snapshot("todo.md", "Todo", "Buy milk and call the plumber."),
	})
	ctx := context.Background()

	first, err := fx.orch.Sync(ctx, SyncParams{})
	if err != nil {
		t.Fatalf("first sync failed: %v", err)
	}
	if first.Added != 2 || first.Unchanged != 0 {
		t.Errorf("first sync: added=%d unchanged=%d, want 2/0", first.Added, first.Unchanged)
	}
	callsAfterFirst := fx.embedder.calls

	second, err := fx.orch.Sync(ctx, SyncParams{})
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if second.Added != 0 || second.Updated != 0 || second.Unchanged != 2 {
		t.Errorf("second sync: added=%d updated=%d unchanged=%d, want 0/0/2",
			second.Added, second.Updated, second.Unchanged)
	}
	if fx.embedder.calls != callsAfterFirst {
		t.Errorf("second sync made %d extra embedding calls", fx.embedder.calls-callsAfterFirst)
	}
}

func TestSyncReembedsChangedNote(t *testing.T) {
	recipe := snapshot("recipes.md", "Recipe A", "Mix flour and water together, then bake.")
	fx := newSyncFixture(t, []notes.Snapshot{recipe})
	ctx := context.Background()

	if _, err := fx.orch.Sync(ctx, SyncParams{}); err != nil {
		t.Fatalf("initial sync failed: %v", err)
	}

	recipe.Text = "Mix flour and sugar together, then bake until golden."
	fx.source.snaps = []notes.Snapshot{recipe}

	report, err := fx.orch.Sync(ctx, SyncParams{})
	if err != nil {
		t.Fatalf("resync failed: %v", err)
	}
	if report.Updated != 1 || report.Added != 0 {
		t.Errorf("resync: updated=%d added=%d, want 1/0", report.Updated, report.Added)
	}

	// The stored chunk now reflects the new text.
	var text string
	err = fx.db.QueryRow("SELECT text FROM chunks WHERE note_key = ?", recipe.Key()).Scan(&text)
	if err != nil {
		t.Fatalf("failed to read chunk: %v", err)
	}
	if !strings.Contains(text, "sugar") {
		t.Errorf("stored chunk not refreshed: %q", text)
	}
}

func TestSyncForceReembed(t *testing.T) {
	fx := newSyncFixture(t, []notes.Snapshot{snapshot("a.md", "A", "unchanged content")})
	ctx := context.Background()

	if _, err := fx.orch.Sync(ctx, SyncParams{}); err != nil {
		t.Fatalf("initial sync failed: %v", err)
	}
	callsAfterFirst := fx.embedder.calls

	report, err := fx.orch.Sync(ctx, SyncParams{ForceReembed: true})
	if err != nil {
		t.Fatalf("forced sync failed: %v", err)
	}
	if report.Updated != 1 {
		t.Errorf("forced sync: updated=%d, want 1", report.Updated)
	}
	if fx.embedder.calls == callsAfterFirst {
		t.Error("forced sync made no embedding calls")
	}
}

func TestSyncEmptyNoteStoresZeroChunks(t *testing.T) {
	fx := newSyncFixture(t, []notes.Snapshot{snapshot("blank.md", "Blank", "   \n  ")})
	ctx := context.Background()

	report, err := fx.orch.Sync(ctx, SyncParams{})
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if report.Added != 1 {
		t.Errorf("added=%d, want 1", report.Added)
	}

	record, err := fx.noteRepo.Get(ctx, "notes:blank.md")
	if err != nil {
		t.Fatalf("note record missing: %v", err)
	}
	if record.ChunkCount != 0 {
		t.Errorf("chunk_count=%d, want 0", record.ChunkCount)
	}
	if fx.embedder.calls != 0 {
		t.Errorf("expected no embedding calls for empty note, got %d", fx.embedder.calls)
	}
}

func TestSyncPruneRemovesMissingNotes(t *testing.T) {
	old := snapshot("old.md", "Old Note", "This note is about to disappear.")
	kept := snapshot("kept.md", "Kept", "This one stays around.")
	fx := newSyncFixture(t, []notes.Snapshot{old, kept})
	ctx := context.Background()

	if _, err := fx.orch.Sync(ctx, SyncParams{}); err != nil {
		t.Fatalf("initial sync failed: %v", err)
	}

	fx.source.snaps = []notes.Snapshot{kept}

	report, err := fx.orch.Sync(ctx, SyncParams{PruneMissing: true})
	if err != nil {
		t.Fatalf("prune sync failed: %v", err)
	}
	if report.PrunedNotes != 1 {
		t.Errorf("prunedNotes=%d, want 1", report.PrunedNotes)
	}
	if report.PrunedChunks != 1 {
		t.Errorf("prunedChunks=%d, want 1", report.PrunedChunks)
	}
	if _, err := fx.noteRepo.Get(ctx, old.Key()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected pruned note gone, got err=%v", err)
	}
	if _, err := fx.noteRepo.Get(ctx, kept.Key()); err != nil {
		t.Errorf("kept note missing: %v", err)
	}
}

func TestSyncPruneSkippedOnPartialPass(t *testing.T) {
	a := snapshot("a.md", "A", "first note")
	b := snapshot("b.md", "B", "second note")
	fx := newSyncFixture(t, []notes.Snapshot{a, b})
	ctx := context.Background()

	if _, err := fx.orch.Sync(ctx, SyncParams{}); err != nil {
		t.Fatalf("initial sync failed: %v", err)
	}
	fx.source.snaps = []notes.Snapshot{b}

	tests := []struct {
		name   string
		params SyncParams
	}{
		{"nonzero offset", SyncParams{PruneMissing: true, Offset: 1}},
		{"truncated page", SyncParams{PruneMissing: true, Limit: 0}}, // fills below
		{"type filter", SyncParams{PruneMissing: true, Types: []string{"note"}}},
		{"text filter", SyncParams{PruneMissing: true, Filter: "second"}},
	}
	// A limit smaller than the candidate set truncates the page.
	fx.source.snaps = []notes.Snapshot{a, b}
	tests[1].params.Limit = 1

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := fx.orch.Sync(ctx, tt.params)
			if err != nil {
				t.Fatalf("sync failed: %v", err)
			}
			if report.PrunedNotes != 0 {
				t.Errorf("prunedNotes=%d, want 0", report.PrunedNotes)
			}
			found := false
			for _, w := range report.Warnings {
				if strings.Contains(w, "prune skipped") {
					found = true
				}
			}
			if !found {
				t.Errorf("expected prune-skipped warning, got %v", report.Warnings)
			}
		})
	}
}

func TestSyncPagination(t *testing.T) {
	snaps := []notes.Snapshot{
		snapshot("a.md", "A", "alpha"),
		snapshot("b.md", "B", "beta"),
		snapshot("c.md", "C", "gamma"),
	}
	fx := newSyncFixture(t, snaps)
	ctx := context.Background()

	first, err := fx.orch.Sync(ctx, SyncParams{Limit: 2})
	if err != nil {
		t.Fatalf("first page failed: %v", err)
	}
	if first.Scanned != 2 || first.NextOffset != 2 {
		t.Errorf("first page: scanned=%d nextOffset=%d, want 2/2", first.Scanned, first.NextOffset)
	}

	second, err := fx.orch.Sync(ctx, SyncParams{Offset: first.NextOffset, Limit: 2})
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if second.Scanned != 1 || second.NextOffset != 0 {
		t.Errorf("second page: scanned=%d nextOffset=%d, want 1/0", second.Scanned, second.NextOffset)
	}

	count, err := fx.noteRepo.Count(ctx, "")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("indexed notes=%d, want 3", count)
	}
}

func TestSyncRecordsMetadata(t *testing.T) {
	fx := newSyncFixture(t, nil)
	ctx := context.Background()

	if _, err := fx.orch.Sync(ctx, SyncParams{}); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	lastSync, err := fx.meta.Get(ctx, storage.MetaLastSyncAt)
	if err != nil || lastSync == "" {
		t.Errorf("last_sync_at not recorded (value=%q err=%v)", lastSync, err)
	}
	if _, err := time.Parse(time.RFC3339, lastSync); err != nil {
		t.Errorf("last_sync_at not RFC3339: %q", lastSync)
	}
	provider, _ := fx.meta.Get(ctx, storage.MetaLastProvider)
	if provider != "ollama" {
		t.Errorf("last_provider=%q, want ollama", provider)
	}
}

func TestSyncStoredVectorsDecode(t *testing.T) {
	fx := newSyncFixture(t, []notes.Snapshot{
		snapshot("recipes.md", "Recipe A", "Mix flour and sugar together, then bake."),
	})
	ctx := context.Background()

	if _, err := fx.orch.Sync(ctx, SyncParams{}); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	var blob []byte
	var dims int
	err := fx.db.QueryRow("SELECT embedding, dims FROM chunks LIMIT 1").Scan(&blob, &dims)
	if err != nil {
		t.Fatalf("failed to read chunk: %v", err)
	}
	vec, err := vector.Decode(blob)
	if err != nil {
		t.Fatalf("stored embedding does not decode: %v", err)
	}
	if len(vec) != hashDims || dims != hashDims {
		t.Errorf("dims=%d/%d, want %d", len(vec), dims, hashDims)
	}
}

func TestSyncEmbedFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)

	source := notemocks.NewMockSource(ctrl)
	noteStore := storagemocks.NewMockNoteStore(ctrl)
	index := storagemocks.NewMockIndexStore(ctrl)
	meta := storagemocks.NewMockMetaStore(ctrl)
	embedder := embedmocks.NewMockEmbedder(ctrl)

	source.EXPECT().ListNotes(gomock.Any(), gomock.Any()).
		Return([]notes.Snapshot{snapshot("a.md", "A", "some content")}, nil)
	noteStore.EXPECT().ContentHashes(gomock.Any(), "").Return(map[string]string{}, nil)
	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("provider unavailable"))

	orch := NewOrchestrator(testConfig(), source, noteStore, index, meta, embedder)
	_, err := orch.Sync(context.Background(), SyncParams{})
	if err == nil || !strings.Contains(err.Error(), "provider unavailable") {
		t.Errorf("expected provider error to propagate, got %v", err)
	}
	if !errors.Is(err, service.ErrExternalService) {
		t.Errorf("expected ErrExternalService, got %v", err)
	}
}

func TestSyncRejectsNegativeCursor(t *testing.T) {
	fx := newSyncFixture(t, nil)

	for _, params := range []SyncParams{{Offset: -1}, {Limit: -5}} {
		_, err := fx.orch.Sync(context.Background(), params)
		if !errors.Is(err, service.ErrInvalidInput) {
			t.Errorf("params %+v: expected ErrInvalidInput, got %v", params, err)
		}
		var verr *service.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("params %+v: expected ValidationError, got %T", params, err)
		}
	}
	if fx.embedder.calls != 0 {
		t.Errorf("embedder called %d times on rejected input", fx.embedder.calls)
	}
}
