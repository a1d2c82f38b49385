package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_index_store.go -package=mocks notevec/internal/storage IndexStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// IndexStore defines the write-side interface over the index. Every method
// runs inside a single transaction so a crash mid-update can never leave a
// note with mismatched chunk and content-hash state.
type IndexStore interface {
	// ReplaceNote atomically deletes the note's existing chunks, inserts
	// the fresh set, and upserts the note record.
	ReplaceNote(ctx context.Context, note *NoteRecord, chunks []*ChunkRecord) error
	// DeleteNotes removes the given note keys and (via cascade) their
	// chunks, returning how many of each were removed.
	DeleteNotes(ctx context.Context, keys []string) (notesDeleted, chunksDeleted int, err error)
	// ResetScope removes every note and chunk in the scope.
	ResetScope(ctx context.Context, spaceID string) (notesDeleted, chunksDeleted int, err error)
}

// SQLIndexStore implements IndexStore over the sqlite database.
type SQLIndexStore struct {
	db *sql.DB
}

// NewIndexStore creates a new SQLIndexStore.
func NewIndexStore(db *sql.DB) *SQLIndexStore {
	return &SQLIndexStore{db: db}
}

// ReplaceNote atomically replaces a note's chunks and upserts its record.
func (s *SQLIndexStore) ReplaceNote(ctx context.Context, note *NoteRecord, chunks []*ChunkRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO notes (note_key, title, filename, source, space_id, folder, note_type,
		                    modified_at, content_hash, chunk_count, indexed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (note_key) DO UPDATE SET
		   title = excluded.title,
		   filename = excluded.filename,
		   source = excluded.source,
		   space_id = excluded.space_id,
		   folder = excluded.folder,
		   note_type = excluded.note_type,
		   modified_at = excluded.modified_at,
		   content_hash = excluded.content_hash,
		   chunk_count = excluded.chunk_count,
		   indexed_at = excluded.indexed_at`,
		note.NoteKey, note.Title, note.Filename, note.Source, note.SpaceID, note.Folder,
		note.NoteType, formatTime(note.ModifiedAt), note.ContentHash, len(chunks), formatTime(now),
	); err != nil {
		return fmt.Errorf("failed to upsert note: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE note_key = ?", note.NoteKey); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}

	for _, chunk := range chunks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (id, note_key, chunk_index, text, preview, text_hash, embedding, dims, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			chunk.ID, note.NoteKey, chunk.ChunkIndex, chunk.Text, chunk.Preview,
			chunk.TextHash, chunk.Embedding, chunk.Dims, formatTime(now),
		); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", chunk.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit note replacement: %w", err)
	}
	return nil
}

// DeleteNotes removes the given note keys and their chunks.
func (s *SQLIndexStore) DeleteNotes(ctx context.Context, keys []string) (int, int, error) {
	if len(keys) == 0 {
		return 0, 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var notesDeleted, chunksDeleted int
	for _, key := range keys {
		res, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE note_key = ?", key)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to delete chunks for %s: %w", key, err)
		}
		n, _ := res.RowsAffected()
		chunksDeleted += int(n)

		res, err = tx.ExecContext(ctx, "DELETE FROM notes WHERE note_key = ?", key)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to delete note %s: %w", key, err)
		}
		n, _ = res.RowsAffected()
		notesDeleted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit deletion: %w", err)
	}
	return notesDeleted, chunksDeleted, nil
}

// ResetScope removes every note and chunk in the scope.
func (s *SQLIndexStore) ResetScope(ctx context.Context, spaceID string) (int, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM chunks WHERE note_key IN
		   (SELECT note_key FROM notes WHERE ? = '' OR space_id = ?)`,
		spaceID, spaceID,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete chunks: %w", err)
	}
	chunks, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx,
		"DELETE FROM notes WHERE ? = '' OR space_id = ?",
		spaceID, spaceID,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete notes: %w", err)
	}
	notes, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit reset: %w", err)
	}
	return int(notes), int(chunks), nil
}
