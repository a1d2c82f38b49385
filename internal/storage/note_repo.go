package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_note_store.go -package=mocks notevec/internal/storage NoteStore

import (
	"context"
	"database/sql"
	"fmt"
)

// NoteStore defines the read-side interface over persisted note records.
type NoteStore interface {
	// Get returns a note record by key. Returns ErrNotFound if absent.
	Get(ctx context.Context, noteKey string) (*NoteRecord, error)
	// ContentHashes bulk-loads note_key -> content_hash for a scope, so the
	// sync loop can detect unchanged notes without per-note queries.
	ContentHashes(ctx context.Context, spaceID string) (map[string]string, error)
	// ListKeys returns every stored note key in the scope.
	ListKeys(ctx context.Context, spaceID string) ([]string, error)
	// Count returns the number of note records in the scope.
	Count(ctx context.Context, spaceID string) (int, error)
}

// NoteRepo provides methods for note record queries.
// It implements the NoteStore interface.
type NoteRepo struct {
	db *sql.DB
}

// NewNoteRepo creates a new NoteRepo.
func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

// Get returns a note record by key. Returns ErrNotFound if absent.
func (r *NoteRepo) Get(ctx context.Context, noteKey string) (*NoteRecord, error) {
	var note NoteRecord
	var modifiedAt, indexedAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT note_key, title, filename, source, space_id, folder, note_type,
		        modified_at, content_hash, chunk_count, indexed_at
		 FROM notes WHERE note_key = ?`,
		noteKey,
	).Scan(&note.NoteKey, &note.Title, &note.Filename, &note.Source, &note.SpaceID,
		&note.Folder, &note.NoteType, &modifiedAt, &note.ContentHash, &note.ChunkCount, &indexedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query note: %w", err)
	}

	note.ModifiedAt = parseTime(modifiedAt)
	note.IndexedAt = parseTime(indexedAt)
	return &note, nil
}

// ContentHashes bulk-loads note_key -> content_hash for a scope.
func (r *NoteRepo) ContentHashes(ctx context.Context, spaceID string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT note_key, content_hash FROM notes WHERE ? = '' OR space_id = ?",
		spaceID, spaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query content hashes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	hashes := make(map[string]string)
	for rows.Next() {
		var key, hash string
		if err := rows.Scan(&key, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan content hash: %w", err)
		}
		hashes[key] = hash
	}
	return hashes, rows.Err()
}

// ListKeys returns every stored note key in the scope.
func (r *NoteRepo) ListKeys(ctx context.Context, spaceID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT note_key FROM notes WHERE ? = '' OR space_id = ? ORDER BY note_key",
		spaceID, spaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query note keys: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan note key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Count returns the number of note records in the scope.
func (r *NoteRepo) Count(ctx context.Context, spaceID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notes WHERE ? = '' OR space_id = ?",
		spaceID, spaceID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return n, nil
}
