package main

import (
	"log"
	"log/slog"
	"os"

	"notevec/internal/config"
	"notevec/internal/embed"
	"notevec/internal/indexer"
	"notevec/internal/mcp"
	"notevec/internal/notes"
	"notevec/internal/refdocs"
	"notevec/internal/search"
	"notevec/internal/service"
	"notevec/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Stdout carries the MCP protocol, so logs go to stderr.
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	if cfg.NotesDir == "" {
		log.Fatalf("NOTEVEC_NOTES_DIR is required")
	}

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

	noteRepo := storage.NewNoteRepo(db)
	chunkRepo := storage.NewChunkRepo(db)
	indexStore := storage.NewIndexStore(db)
	metaRepo := storage.NewMetaRepo(db)

	source := notes.NewFSSource(cfg.NotesDir)
	embedder := embed.NewClient(cfg)

	var querySources []embed.QuerySource
	if cfg.HostBridgeURL != "" {
		querySources = append(querySources, embed.NewHostBridge(cfg.HostBridgeURL))
	}
	if cfg.Configured() {
		querySources = append(querySources, embed.NewRemoteSource(embedder))
	}
	chain := embed.NewChain(querySources...)

	refIndex, err := refdocs.Load(cfg.RefCacheDir)
	if err != nil {
		log.Fatalf("Failed to load reference index: %v", err)
	}

	server := mcp.NewIndexServer(
		service.NewIndexService(cfg, noteRepo, chunkRepo, indexStore, metaRepo),
		indexer.NewOrchestrator(cfg, source, noteRepo, indexStore, metaRepo, embedder),
		search.NewEngine(cfg, chunkRepo, chain),
		refIndex,
		chain,
	)

	slog.Info("Starting MCP server on stdio", "provider", cfg.Provider, "configured", cfg.Configured())
	if err := server.ServeStdio(); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}
}
