package indexer

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"notevec/internal/config"
	"notevec/internal/contextutil"
	"notevec/internal/embed"
	"notevec/internal/notes"
	"notevec/internal/service"
	"notevec/internal/storage"
	"notevec/internal/vector"
)

// Orchestrator drives sync passes: it lists notes from the source, detects
// changes by content hash, chunks and embeds what changed, and replaces each
// note's chunks atomically in the index.
type Orchestrator struct {
	cfg       *config.Config
	source    notes.Source
	noteStore storage.NoteStore
	index     storage.IndexStore
	meta      storage.MetaStore
	embedder  embed.Embedder
}

// NewOrchestrator creates a new sync orchestrator.
func NewOrchestrator(
	cfg *config.Config,
	source notes.Source,
	noteStore storage.NoteStore,
	index storage.IndexStore,
	meta storage.MetaStore,
	embedder embed.Embedder,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		source:    source,
		noteStore: noteStore,
		index:     index,
		meta:      meta,
		embedder:  embedder,
	}
}

// Sync runs one pass over the candidate notes. A pass over an unchanged
// corpus performs no provider calls and no index writes other than the sync
// metadata.
func (o *Orchestrator) Sync(ctx context.Context, params SyncParams) (*SyncReport, error) {
	logger := contextutil.LoggerFromContext(ctx)
	report := &SyncReport{}

	if params.Offset < 0 {
		return report, &service.ValidationError{Field: "offset", Message: "must not be negative"}
	}
	if params.Limit < 0 {
		return report, &service.ValidationError{Field: "limit", Message: "must not be negative"}
	}

	if !o.cfg.Configured() {
		report.NotConfigured = true
		report.Warnings = append(report.Warnings, "semantic indexing is not configured")
		return report, nil
	}

	all, err := o.source.ListNotes(ctx, notes.Scope{SpaceID: params.SpaceID})
	if err != nil {
		return report, fmt.Errorf("failed to list notes: %w", err)
	}

	candidates := filterSnapshots(all, params.Types, params.Filter)
	total := len(candidates)

	offset := params.Offset
	if offset > total {
		offset = total
	}
	page := candidates[offset:]
	truncated := false
	if params.Limit > 0 && len(page) > params.Limit {
		page = page[:params.Limit]
		truncated = true
	}
	report.Scanned = len(page)
	if end := offset + len(page); end < total {
		report.NextOffset = end
	}

	stored, err := o.noteStore.ContentHashes(ctx, params.SpaceID)
	if err != nil {
		return report, fmt.Errorf("failed to load content hashes: %w", err)
	}

	seen := make(map[string]bool, total)
	for _, snap := range candidates {
		seen[snap.Key()] = true
	}

	maxChunks := params.MaxChunksPerNote
	if maxChunks <= 0 {
		maxChunks = o.cfg.MaxChunksPerNote
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = o.cfg.BatchSize
	}

	for _, snap := range page {
		key := snap.Key()
		hash := contentHash(snap.Text)

		prev, existed := stored[key]
		if existed && prev == hash && !params.ForceReembed {
			report.Unchanged++
			continue
		}

		chunks, err := o.embedNote(ctx, snap, hash, maxChunks, batchSize)
		if err != nil {
			return report, fmt.Errorf("failed to index note %s: %w", key, err)
		}

		record := noteRecord(snap, hash)
		if err := o.index.ReplaceNote(ctx, record, chunks); err != nil {
			return report, fmt.Errorf("failed to store note %s: %w", key, err)
		}

		if existed {
			report.Updated++
		} else {
			report.Added++
		}
		logger.DebugContext(ctx, "indexed note", "note_key", key, "chunks", len(chunks))
	}

	if params.PruneMissing {
		o.prune(ctx, params, report, seen, offset, truncated)
	}

	// Metadata is informational and recorded even when nothing changed.
	now := time.Now().UTC().Format(time.RFC3339)
	for key, value := range map[string]string{
		storage.MetaLastSyncAt:   now,
		storage.MetaLastProvider: string(o.cfg.Provider),
		storage.MetaLastModel:    o.cfg.Model,
	} {
		if err := o.meta.Set(ctx, key, value); err != nil {
			return report, fmt.Errorf("failed to record sync metadata: %w", err)
		}
	}

	return report, nil
}

// embedNote chunks one note and acquires a vector per chunk. The returned
// chunk records are complete and ready to store; a count mismatch between
// chunks and vectors aborts the note.
func (o *Orchestrator) embedNote(ctx context.Context, snap notes.Snapshot, hash string, maxChunks, batchSize int) ([]*storage.ChunkRecord, error) {
	segments := ChunkText(snap.Text, o.cfg.ChunkSize, o.cfg.ChunkOverlap, maxChunks)
	if len(segments) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(segments))
	for start := 0; start < len(segments); start += batchSize {
		end := start + batchSize
		if end > len(segments) {
			end = len(segments)
		}
		batch, err := o.embedder.EmbedTexts(ctx, segments[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks: %w: %w", service.ErrExternalService, err)
		}
		vectors = append(vectors, batch...)
	}
	if len(vectors) != len(segments) {
		return nil, fmt.Errorf("embedding count mismatch: got %d vectors for %d chunks: %w",
			len(vectors), len(segments), service.ErrExternalService)
	}

	chunks := make([]*storage.ChunkRecord, len(segments))
	for i, text := range segments {
		chunks[i] = &storage.ChunkRecord{
			ID:         uuid.New().String(),
			NoteKey:    snap.Key(),
			ChunkIndex: i,
			Text:       text,
			Preview:    preview(text, o.cfg.PreviewLen),
			TextHash:   contentHash(text),
			Embedding:  vector.Encode(vectors[i]),
			Dims:       len(vectors[i]),
		}
	}
	return chunks, nil
}

// prune removes stored notes missing from the source, but only when the pass
// demonstrably covered the complete candidate set. A partial pass records a
// warning instead of deleting.
func (o *Orchestrator) prune(ctx context.Context, params SyncParams, report *SyncReport, seen map[string]bool, offset int, truncated bool) {
	logger := contextutil.LoggerFromContext(ctx)

	if offset != 0 || truncated || len(params.Types) > 0 || params.Filter != "" {
		report.Warnings = append(report.Warnings,
			"prune skipped: pass did not cover the full candidate set")
		return
	}

	keys, err := o.noteStore.ListKeys(ctx, params.SpaceID)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("prune skipped: %v", err))
		return
	}

	var missing []string
	for _, key := range keys {
		if !seen[key] {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return
	}

	notesDeleted, chunksDeleted, err := o.index.DeleteNotes(ctx, missing)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("prune failed: %v", err))
		return
	}
	report.PrunedNotes = notesDeleted
	report.PrunedChunks = chunksDeleted
	logger.InfoContext(ctx, "pruned missing notes", "notes", notesDeleted, "chunks", chunksDeleted)
}

// filterSnapshots applies the type allow-list and free-text filter.
func filterSnapshots(snaps []notes.Snapshot, types []string, filter string) []notes.Snapshot {
	if len(types) == 0 && filter == "" {
		return snaps
	}

	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[strings.ToLower(t)] = true
	}
	needle := strings.ToLower(filter)

	var out []notes.Snapshot
	for _, snap := range snaps {
		if len(allowed) > 0 && !allowed[strings.ToLower(snap.Type)] {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(snap.Title), needle) &&
			!strings.Contains(strings.ToLower(snap.Text), needle) {
			continue
		}
		out = append(out, snap)
	}
	return out
}

func noteRecord(snap notes.Snapshot, hash string) *storage.NoteRecord {
	return &storage.NoteRecord{
		NoteKey:     snap.Key(),
		Title:       snap.Title,
		Filename:    snap.Filename,
		Source:      snap.Source,
		SpaceID:     snap.SpaceID,
		Folder:      snap.Folder,
		NoteType:    snap.Type,
		ModifiedAt:  snap.Modified,
		ContentHash: hash,
	}
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", sum)
}

func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return strings.TrimSpace(string(runes[:n]))
}
