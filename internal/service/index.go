// Package service exposes index management operations shared by the HTTP
// and MCP surfaces.
package service

import (
	"context"
	"fmt"
	"time"

	"notevec/internal/config"
	"notevec/internal/storage"
)

// Status describes the state of the semantic index.
type Status struct {
	Enabled    bool      `json:"enabled"`
	Configured bool      `json:"configured"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	NoteCount  int       `json:"noteCount"`
	ChunkCount int       `json:"chunkCount"`
	LastSyncAt time.Time `json:"lastSyncAt,omitempty"`
}

// ResetResult reports what a reset removed, or would remove.
type ResetResult struct {
	Preview       bool `json:"preview"`
	NotesDeleted  int  `json:"notesDeleted"`
	ChunksDeleted int  `json:"chunksDeleted"`
}

// IndexService answers status queries and performs index resets.
type IndexService struct {
	cfg    *config.Config
	notes  storage.NoteStore
	chunks storage.ChunkStore
	index  storage.IndexStore
	meta   storage.MetaStore
}

// NewIndexService creates a new IndexService.
func NewIndexService(
	cfg *config.Config,
	notes storage.NoteStore,
	chunks storage.ChunkStore,
	index storage.IndexStore,
	meta storage.MetaStore,
) *IndexService {
	return &IndexService{cfg: cfg, notes: notes, chunks: chunks, index: index, meta: meta}
}

// GetStatus returns the current index state for the scope.
func (s *IndexService) GetStatus(ctx context.Context, spaceID string) (*Status, error) {
	noteCount, err := s.notes.Count(ctx, spaceID)
	if err != nil {
		return nil, WrapError(err, "failed to count notes")
	}
	chunkCount, err := s.chunks.Count(ctx, spaceID)
	if err != nil {
		return nil, WrapError(err, "failed to count chunks")
	}

	status := &Status{
		Enabled:    s.cfg.Enabled,
		Configured: s.cfg.Configured(),
		Provider:   string(s.cfg.Provider),
		Model:      s.cfg.Model,
		NoteCount:  noteCount,
		ChunkCount: chunkCount,
	}

	if raw, err := s.meta.Get(ctx, storage.MetaLastSyncAt); err == nil && raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			status.LastSyncAt = t
		}
	}

	return status, nil
}

// PreviewReset reports what a reset of the scope would delete without
// deleting anything.
func (s *IndexService) PreviewReset(ctx context.Context, spaceID string) (*ResetResult, error) {
	noteCount, err := s.notes.Count(ctx, spaceID)
	if err != nil {
		return nil, WrapError(err, "failed to count notes")
	}
	chunkCount, err := s.chunks.Count(ctx, spaceID)
	if err != nil {
		return nil, WrapError(err, "failed to count chunks")
	}
	return &ResetResult{Preview: true, NotesDeleted: noteCount, ChunksDeleted: chunkCount}, nil
}

// Reset deletes every note and chunk in the scope in one transaction.
func (s *IndexService) Reset(ctx context.Context, spaceID string) (*ResetResult, error) {
	notesDeleted, chunksDeleted, err := s.index.ResetScope(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to reset index: %w", err)
	}
	return &ResetResult{NotesDeleted: notesDeleted, ChunksDeleted: chunksDeleted}, nil
}
