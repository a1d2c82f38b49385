package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"notevec/internal/handlers"
	"notevec/internal/indexer"
	"notevec/internal/refdocs"
	"notevec/internal/search"
	"notevec/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	DB           *sql.DB
	IndexService *service.IndexService
	Orchestrator *indexer.Orchestrator
	Engine       *search.Engine
	Refdocs      *refdocs.Index
	QueryChain   search.QueryEmbedder
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/status", handlers.NewStatusHandler(deps.IndexService))
		r.Method(http.MethodPost, "/sync", handlers.NewSyncHandler(deps.Orchestrator))
		r.Method(http.MethodPost, "/search", handlers.NewSearchHandler(deps.Engine))
		r.Method(http.MethodPost, "/reset", handlers.NewResetHandler(deps.IndexService))
		r.Method(http.MethodPost, "/refdocs/search", handlers.NewRefdocsSearchHandler(deps.Refdocs, deps.QueryChain))
		r.Method(http.MethodGet, "/refdocs/chunk", handlers.NewRefdocsChunkHandler(deps.Refdocs))
	})

	r.Method(http.MethodGet, "/healthz", handlers.NewHealthHandler(deps.DB))

	return r
}
