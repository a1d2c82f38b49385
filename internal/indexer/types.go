package indexer

// SyncParams controls a single sync pass over the configured note source.
type SyncParams struct {
	// SpaceID restricts the pass to one space. Empty means all spaces.
	SpaceID string
	// Types is an allow-list of note types. Empty means all types.
	Types []string
	// Filter keeps only notes whose title or body contains the given
	// text (case-insensitive). Empty means no filtering.
	Filter string
	// ForceReembed re-embeds every candidate even when its content hash
	// is already indexed.
	ForceReembed bool
	// PruneMissing removes stored notes that no longer exist at the
	// source, when the pass covered the full candidate set.
	PruneMissing bool

	Offset int
	Limit  int

	// BatchSize and MaxChunksPerNote override the configured values when
	// positive.
	BatchSize        int
	MaxChunksPerNote int
}

// SyncReport summarizes what a sync pass did.
type SyncReport struct {
	NotConfigured bool `json:"notConfigured,omitempty"`

	Scanned   int `json:"scanned"`
	Unchanged int `json:"unchanged"`
	Added     int `json:"added"`
	Updated   int `json:"updated"`

	PrunedNotes  int `json:"prunedNotes"`
	PrunedChunks int `json:"prunedChunks"`

	// NextOffset is the cursor for the next page, or 0 when the pass
	// reached the end of the candidate set.
	NextOffset int `json:"nextOffset"`

	Warnings []string `json:"warnings,omitempty"`
}
