package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"notevec/internal/contextutil"
	"notevec/internal/search"
)

// SearchHandler handles HTTP requests for semantic search.
type SearchHandler struct {
	engine *search.Engine
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(engine *search.Engine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

// SearchRequest represents the HTTP request payload for semantic search.
//
// swagger:model SearchRequest
type SearchRequest struct {
	Query       string  `json:"query"`
	SpaceID     string  `json:"spaceId,omitempty"`
	Source      string  `json:"source,omitempty"`
	NoteType    string  `json:"noteType,omitempty"`
	Limit       int     `json:"limit,omitempty"`
	MinScore    float64 `json:"minScore,omitempty"`
	MaxScanned  int     `json:"maxScanned,omitempty"`
	IncludeText bool    `json:"includeText,omitempty"`
}

// ServeHTTP handles HTTP requests for semantic search.
//
// swagger:route POST /api/search semanticSearch
//
// Embeds the query and returns the top matching note chunks by cosine
// similarity.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	results, err := h.engine.Search(ctx, search.Params{
		Query:       req.Query,
		SpaceID:     req.SpaceID,
		Source:      req.Source,
		NoteType:    req.NoteType,
		Limit:       req.Limit,
		MinScore:    req.MinScore,
		MaxScanned:  req.MaxScanned,
		IncludeText: req.IncludeText,
	})
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			writeError(w, http.StatusBadRequest, "Query is required")
			return
		}
		logger.ErrorContext(ctx, "search failed", "error", err)
		writeServiceError(w, err, "Search failed")
		return
	}

	writeJSON(w, http.StatusOK, results)
}
