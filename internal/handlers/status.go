package handlers

import (
	"net/http"

	"notevec/internal/contextutil"
	"notevec/internal/service"
)

// StatusHandler handles HTTP requests for index status.
type StatusHandler struct {
	svc *service.IndexService
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(svc *service.IndexService) *StatusHandler {
	return &StatusHandler{svc: svc}
}

// ServeHTTP handles HTTP requests for index status.
//
// swagger:route GET /api/status indexStatus
//
// Returns index state: configuration, note and chunk counts, last sync time.
// The optional `space` query parameter scopes the counts to one space.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	status, err := h.svc.GetStatus(ctx, r.URL.Query().Get("space"))
	if err != nil {
		logger.ErrorContext(ctx, "failed to get index status", "error", err)
		writeServiceError(w, err, "Failed to get index status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}
