// Package notes defines the note snapshot model consumed by the indexing
// core and the source interface it is pulled through.
package notes

import (
	"context"
	"time"
)

// Source classification values for a note snapshot.
const (
	SourceNotes    = "notes"
	SourceCalendar = "calendar"
	SourceTrash    = "trash"
)

// Snapshot is a read-only view of a note supplied by the note repository.
// The indexing core never writes back to it.
type Snapshot struct {
	ID       string
	Filename string
	Title    string
	Text     string
	Source   string
	SpaceID  string
	Folder   string
	Type     string
	Modified time.Time
}

// Key derives the stable index key for a snapshot. It is a function of the
// source classification and the note's identity, so it survives content and
// title edits, and the source prefix keeps keys from different sources from
// colliding.
func (s Snapshot) Key() string {
	if s.Filename != "" {
		return s.Source + ":" + s.Filename
	}
	return s.Source + ":" + s.ID
}

// Scope restricts which notes a listing covers.
type Scope struct {
	// SpaceID limits the listing to one space/collection. Empty means all.
	SpaceID string
	// IncludeTrash includes notes classified as trash. Off by default.
	IncludeTrash bool
}

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_source.go -package=mocks notevec/internal/notes Source

// Source supplies note snapshots to the sync orchestrator.
type Source interface {
	// ListNotes returns every note visible under the scope. Order must be
	// deterministic for a given underlying state.
	ListNotes(ctx context.Context, scope Scope) ([]Snapshot, error)
}
