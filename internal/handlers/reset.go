package handlers

import (
	"net/http"

	"notevec/internal/contextutil"
	"notevec/internal/service"
)

// ResetHandler handles HTTP requests to reset the index.
type ResetHandler struct {
	svc *service.IndexService
}

// NewResetHandler creates a new ResetHandler.
func NewResetHandler(svc *service.IndexService) *ResetHandler {
	return &ResetHandler{svc: svc}
}

// ServeHTTP handles HTTP requests to reset the index.
//
// swagger:route POST /api/reset resetIndex
//
// Deletes every indexed note and chunk in the scope. With `?preview=true`
// the counts are returned without deleting anything.
func (h *ResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	spaceID := r.URL.Query().Get("space")
	preview := r.URL.Query().Get("preview") == "true"

	var result *service.ResetResult
	var err error
	if preview {
		result, err = h.svc.PreviewReset(ctx, spaceID)
	} else {
		result, err = h.svc.Reset(ctx, spaceID)
	}
	if err != nil {
		logger.ErrorContext(ctx, "reset failed", "error", err, "preview", preview)
		writeServiceError(w, err, "Reset failed")
		return
	}

	logger.InfoContext(ctx, "index reset", "preview", preview,
		"notes", result.NotesDeleted, "chunks", result.ChunksDeleted)
	writeJSON(w, http.StatusOK, result)
}
