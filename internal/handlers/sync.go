package handlers

import (
	"encoding/json"
	"net/http"

	"notevec/internal/contextutil"
	"notevec/internal/indexer"
)

// SyncHandler handles HTTP requests to run a sync pass.
type SyncHandler struct {
	orchestrator *indexer.Orchestrator
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(orchestrator *indexer.Orchestrator) *SyncHandler {
	return &SyncHandler{orchestrator: orchestrator}
}

// SyncRequest represents the HTTP request payload for a sync pass.
//
// swagger:model SyncRequest
type SyncRequest struct {
	SpaceID          string   `json:"spaceId,omitempty"`
	Types            []string `json:"types,omitempty"`
	Filter           string   `json:"filter,omitempty"`
	ForceReembed     bool     `json:"forceReembed,omitempty"`
	PruneMissing     bool     `json:"pruneMissing,omitempty"`
	Offset           int      `json:"offset,omitempty"`
	Limit            int      `json:"limit,omitempty"`
	BatchSize        int      `json:"batchSize,omitempty"`
	MaxChunksPerNote int      `json:"maxChunksPerNote,omitempty"`
}

// ServeHTTP handles HTTP requests to run a sync pass.
//
// swagger:route POST /api/sync runSync
//
// Runs one incremental sync pass and returns the resulting report. An empty
// body is accepted and means a full-default pass.
func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req SyncRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	report, err := h.orchestrator.Sync(ctx, indexer.SyncParams{
		SpaceID:          req.SpaceID,
		Types:            req.Types,
		Filter:           req.Filter,
		ForceReembed:     req.ForceReembed,
		PruneMissing:     req.PruneMissing,
		Offset:           req.Offset,
		Limit:            req.Limit,
		BatchSize:        req.BatchSize,
		MaxChunksPerNote: req.MaxChunksPerNote,
	})
	if err != nil {
		logger.ErrorContext(ctx, "sync pass failed", "error", err)
		writeServiceError(w, err, "Sync failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}
