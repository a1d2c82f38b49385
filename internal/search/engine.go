// Package search ranks indexed note chunks against a query vector.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"notevec/internal/config"
	"notevec/internal/contextutil"
	"notevec/internal/embed"
	"notevec/internal/service"
	"notevec/internal/storage"
	"notevec/internal/vector"
)

// ErrEmptyQuery is returned when the query text is empty or whitespace.
var ErrEmptyQuery = errors.New("query text is empty")

const (
	defaultLimit = 10
	maxLimit     = 100
)

// QueryEmbedder turns query text into a vector. Satisfied by embed.Chain.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Params controls one search.
type Params struct {
	Query    string
	SpaceID  string
	Source   string
	NoteType string
	// Limit caps the number of hits returned. Zero means the default.
	Limit int
	// MinScore drops hits scoring below the threshold when positive.
	MinScore float64
	// MaxScanned bounds how many chunk rows are considered.
	MaxScanned int
	// IncludeText returns full chunk text instead of just the preview.
	IncludeText bool
}

// Hit is one ranked chunk.
type Hit struct {
	NoteKey    string    `json:"noteKey"`
	Title      string    `json:"title"`
	Filename   string    `json:"filename,omitempty"`
	Source     string    `json:"source"`
	SpaceID    string    `json:"spaceId,omitempty"`
	Folder     string    `json:"folder,omitempty"`
	NoteType   string    `json:"noteType,omitempty"`
	ChunkIndex int       `json:"chunkIndex"`
	Score      float64   `json:"score"`
	Preview    string    `json:"preview"`
	Text       string    `json:"text,omitempty"`
	Modified   time.Time `json:"modified,omitempty"`
}

// Results is the outcome of one search.
type Results struct {
	NotConfigured bool  `json:"notConfigured,omitempty"`
	Scanned       int   `json:"scanned"`
	Hits          []Hit `json:"hits"`
}

// Engine executes vector searches over the chunk index.
type Engine struct {
	cfg      *config.Config
	chunks   storage.ChunkStore
	embedder QueryEmbedder
}

// NewEngine creates a new search engine.
func NewEngine(cfg *config.Config, chunks storage.ChunkStore, embedder QueryEmbedder) *Engine {
	return &Engine{cfg: cfg, chunks: chunks, embedder: embedder}
}

// Search embeds the query, scans candidate chunks, and returns the top hits
// by cosine similarity.
func (e *Engine) Search(ctx context.Context, params Params) (*Results, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(params.Query) == "" {
		return nil, ErrEmptyQuery
	}
	if !e.cfg.Configured() {
		return &Results{NotConfigured: true, Hits: []Hit{}}, nil
	}

	queryVec, err := e.embedder.EmbedQuery(ctx, params.Query)
	if err != nil {
		if errors.Is(err, embed.ErrNoQuerySource) {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}
		return nil, fmt.Errorf("failed to embed query: %w: %w", service.ErrExternalService, err)
	}

	rows, err := e.chunks.Scan(ctx, storage.SearchFilter{
		SpaceID:    params.SpaceID,
		Source:     params.Source,
		NoteType:   params.NoteType,
		MaxScanned: params.MaxScanned,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan chunks: %w", err)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	hits := make([]Hit, 0, len(rows))
	for _, row := range rows {
		score := scoreRow(row, queryVec)
		if params.MinScore > 0 && score < params.MinScore {
			continue
		}
		hit := Hit{
			NoteKey:    row.NoteKey,
			Title:      row.Title,
			Filename:   row.Filename,
			Source:     row.Source,
			SpaceID:    row.SpaceID,
			Folder:     row.Folder,
			NoteType:   row.NoteType,
			ChunkIndex: row.ChunkIndex,
			Score:      score,
			Preview:    row.Preview,
			Modified:   row.ModifiedAt,
		}
		if params.IncludeText {
			hit.Text = row.Text
		}
		hits = append(hits, hit)
	}

	// Stable sort on raw score only: ties keep the scan's ordering, which
	// is note recency, then note key, then chunk index.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	for i := range hits {
		hits[i].Score = roundScore(hits[i].Score)
	}

	logger.DebugContext(ctx, "search complete",
		"scanned", len(rows), "hits", len(hits))

	return &Results{Scanned: len(rows), Hits: hits}, nil
}

// scoreRow computes the cosine similarity for one stored chunk. Undecodable
// or dimension-mismatched embeddings score zero rather than erroring out.
func scoreRow(row storage.ChunkRow, queryVec []float32) float64 {
	vec, err := vector.Decode(row.Embedding)
	if err != nil {
		return 0
	}
	return vector.Cosine(queryVec, vec)
}

func roundScore(s float64) float64 {
	return math.Round(s*10000) / 10000
}
