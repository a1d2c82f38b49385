package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks notevec/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"fmt"
)

// ChunkStore defines the read-side interface over persisted chunks.
type ChunkStore interface {
	// Scan loads up to filter.MaxScanned chunk rows joined with note
	// metadata, ordered by note recency, then note key, then chunk index.
	// The ordering is the deterministic tie-break for search: fresher notes
	// surface first when scores tie.
	Scan(ctx context.Context, filter SearchFilter) ([]ChunkRow, error)
	// Count returns the number of chunks in the scope.
	Count(ctx context.Context, spaceID string) (int, error)
}

// ChunkRepo provides methods for chunk queries.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Scan loads chunk rows for the search engine.
func (r *ChunkRepo) Scan(ctx context.Context, filter SearchFilter) ([]ChunkRow, error) {
	limit := filter.MaxScanned
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.note_key, c.chunk_index, c.text, c.preview, c.embedding, c.dims,
		        n.title, n.filename, n.source, n.space_id, n.folder, n.note_type, n.modified_at
		 FROM chunks c
		 JOIN notes n ON n.note_key = c.note_key
		 WHERE (? = '' OR n.space_id = ?)
		   AND (? = '' OR n.source = ?)
		   AND (? = '' OR n.note_type = ?)
		 ORDER BY n.modified_at DESC, n.note_key, c.chunk_index
		 LIMIT ?`,
		filter.SpaceID, filter.SpaceID,
		filter.Source, filter.Source,
		filter.NoteType, filter.NoteType,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []ChunkRow
	for rows.Next() {
		var row ChunkRow
		var modifiedAt string
		if err := rows.Scan(&row.ChunkID, &row.NoteKey, &row.ChunkIndex, &row.Text, &row.Preview,
			&row.Embedding, &row.Dims, &row.Title, &row.Filename, &row.Source, &row.SpaceID,
			&row.Folder, &row.NoteType, &modifiedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		row.ModifiedAt = parseTime(modifiedAt)
		out = append(out, row)
	}
	return out, rows.Err()
}

// Count returns the number of chunks in the scope.
func (r *ChunkRepo) Count(ctx context.Context, spaceID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks c JOIN notes n ON n.note_key = c.note_key
		 WHERE ? = '' OR n.space_id = ?`,
		spaceID, spaceID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}
