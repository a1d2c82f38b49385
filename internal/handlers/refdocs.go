package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"notevec/internal/contextutil"
	"notevec/internal/refdocs"
	"notevec/internal/search"
)

// RefdocsSearchHandler handles HTTP requests against the bundled reference
// documentation index.
type RefdocsSearchHandler struct {
	index    *refdocs.Index
	embedder search.QueryEmbedder
}

// NewRefdocsSearchHandler creates a new RefdocsSearchHandler.
func NewRefdocsSearchHandler(index *refdocs.Index, embedder search.QueryEmbedder) *RefdocsSearchHandler {
	return &RefdocsSearchHandler{index: index, embedder: embedder}
}

// RefdocsSearchRequest represents the reference search payload.
//
// swagger:model RefdocsSearchRequest
type RefdocsSearchRequest struct {
	Query    string  `json:"query"`
	Limit    int     `json:"limit,omitempty"`
	MinScore float64 `json:"minScore,omitempty"`
}

// RefdocsSearchResponse represents the reference search result.
//
// swagger:model RefdocsSearchResponse
type RefdocsSearchResponse struct {
	// Mode is "vector" when the query was embedded, "text" when the
	// term-overlap fallback served the request.
	Mode    string          `json:"mode"`
	Matches []refdocs.Match `json:"matches"`
}

// ServeHTTP handles reference documentation searches. When no embedding
// source is reachable the term-overlap fallback answers instead of failing.
func (h *RefdocsSearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req RefdocsSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	response := RefdocsSearchResponse{Mode: "vector"}
	queryVec, err := h.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		logger.DebugContext(ctx, "falling back to text search", "error", err)
		response.Mode = "text"
		response.Matches = h.index.SearchText(req.Query, req.Limit)
	} else {
		response.Matches = h.index.Search(queryVec, req.Limit, req.MinScore)
	}
	if response.Matches == nil {
		response.Matches = []refdocs.Match{}
	}

	writeJSON(w, http.StatusOK, response)
}

// RefdocsChunkHandler handles lookups of a single reference chunk.
type RefdocsChunkHandler struct {
	index *refdocs.Index
}

// NewRefdocsChunkHandler creates a new RefdocsChunkHandler.
func NewRefdocsChunkHandler(index *refdocs.Index) *RefdocsChunkHandler {
	return &RefdocsChunkHandler{index: index}
}

// RefdocsChunkResponse represents one reference chunk with its doc's size.
//
// swagger:model RefdocsChunkResponse
type RefdocsChunkResponse struct {
	refdocs.Chunk
	TotalChunks int `json:"totalChunks"`
}

// ServeHTTP handles GET /api/refdocs/chunk?doc=<title>&index=<n>.
func (h *RefdocsChunkHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	doc := r.URL.Query().Get("doc")
	if doc == "" {
		writeError(w, http.StatusBadRequest, "doc parameter is required")
		return
	}
	index := 0
	if raw := r.URL.Query().Get("index"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "index must be a non-negative integer")
			return
		}
		index = n
	}

	chunk, total, err := h.index.Chunk(doc, index)
	if err != nil {
		if errors.Is(err, refdocs.ErrChunkNotFound) {
			writeError(w, http.StatusNotFound, "Reference chunk not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load reference chunk")
		return
	}

	writeJSON(w, http.StatusOK, RefdocsChunkResponse{Chunk: chunk, TotalChunks: total})
}
