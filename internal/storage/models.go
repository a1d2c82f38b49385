package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// NoteRecord is the persisted index entry for one note. The note key is the
// primary key; everything else is denormalized display metadata plus the
// content hash that drives change detection.
type NoteRecord struct {
	NoteKey     string
	Title       string
	Filename    string
	Source      string
	SpaceID     string
	Folder      string
	NoteType    string
	ModifiedAt  time.Time
	ContentHash string
	ChunkCount  int
	IndexedAt   time.Time
}

// ChunkRecord is one embedded segment of a note. (note_key, chunk_index) is
// unique; all chunks of a note are replaced together when it is re-indexed.
type ChunkRecord struct {
	ID         string
	NoteKey    string
	ChunkIndex int
	Text       string
	Preview    string
	TextHash   string
	Embedding  []byte
	Dims       int
	CreatedAt  time.Time
}

// SearchFilter restricts which chunk rows a search scan loads.
type SearchFilter struct {
	SpaceID  string
	Source   string
	NoteType string
	// MaxScanned bounds the number of chunk rows loaded. Zero means the
	// engine's default.
	MaxScanned int
}

// ChunkRow is a chunk joined with its parent note's metadata, as loaded by
// the search scan.
type ChunkRow struct {
	ChunkID    string
	NoteKey    string
	ChunkIndex int
	Text       string
	Preview    string
	Embedding  []byte
	Dims       int

	Title      string
	Filename   string
	Source     string
	SpaceID    string
	Folder     string
	NoteType   string
	ModifiedAt time.Time
}

// Metadata keys recorded after every sync pass.
const (
	MetaLastSyncAt   = "last_sync_at"
	MetaLastProvider = "last_provider"
	MetaLastModel    = "last_model"
)

// timeFormat is how timestamps are stored in the database.
const timeFormat = time.RFC3339

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
