package main

import (
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"notevec/internal/config"
	"notevec/internal/embed"
	"notevec/internal/http"
	"notevec/internal/indexer"
	"notevec/internal/notes"
	"notevec/internal/refdocs"
	"notevec/internal/search"
	"notevec/internal/service"
	"notevec/internal/storage"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	if cfg.NotesDir == "" {
		log.Fatalf("NOTEVEC_NOTES_DIR is required")
	}

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	noteRepo := storage.NewNoteRepo(db)
	chunkRepo := storage.NewChunkRepo(db)
	indexStore := storage.NewIndexStore(db)
	metaRepo := storage.NewMetaRepo(db)

	// Note source and embedding provider
	source := notes.NewFSSource(cfg.NotesDir)
	embedder := embed.NewClient(cfg)

	// Query vector acquisition: host bridge first when available, then the
	// remote provider.
	var querySources []embed.QuerySource
	if cfg.HostBridgeURL != "" {
		querySources = append(querySources, embed.NewHostBridge(cfg.HostBridgeURL))
	}
	if cfg.Configured() {
		querySources = append(querySources, embed.NewRemoteSource(embedder))
	}
	chain := embed.NewChain(querySources...)

	// Bundled reference documentation index
	refIndex, err := refdocs.Load(cfg.RefCacheDir)
	if err != nil {
		log.Fatalf("Failed to load reference index: %v", err)
	}
	slog.Info("Reference index loaded", "chunks", refIndex.Count())

	orchestrator := indexer.NewOrchestrator(cfg, source, noteRepo, indexStore, metaRepo, embedder)
	engine := search.NewEngine(cfg, chunkRepo, chain)
	indexService := service.NewIndexService(cfg, noteRepo, chunkRepo, indexStore, metaRepo)

	router := http.NewRouter(&http.Deps{
		DB:           db,
		IndexService: indexService,
		Orchestrator: orchestrator,
		Engine:       engine,
		Refdocs:      refIndex,
		QueryChain:   chain,
	})

	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr, "provider", cfg.Provider, "configured", cfg.Configured())
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
