// Package mcp exposes the semantic index over the Model Context Protocol so
// editor and assistant integrations can drive sync and search.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"notevec/internal/indexer"
	"notevec/internal/refdocs"
	"notevec/internal/search"
	"notevec/internal/service"
)

// IndexServer wires the index operations into an MCP tool server.
type IndexServer struct {
	svc          *service.IndexService
	orchestrator *indexer.Orchestrator
	engine       *search.Engine
	refIndex     *refdocs.Index
	queryChain   search.QueryEmbedder
	mcpServer    *server.MCPServer
}

// NewIndexServer creates the MCP server and registers every tool.
func NewIndexServer(
	svc *service.IndexService,
	orchestrator *indexer.Orchestrator,
	engine *search.Engine,
	refIndex *refdocs.Index,
	queryChain search.QueryEmbedder,
) *IndexServer {
	s := &IndexServer{
		svc:          svc,
		orchestrator: orchestrator,
		engine:       engine,
		refIndex:     refIndex,
		queryChain:   queryChain,
	}

	s.mcpServer = server.NewMCPServer(
		"notevec",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools()

	return s
}

// GetMCPServer returns the underlying MCP server for serving.
func (s *IndexServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves the MCP protocol over stdin/stdout until EOF.
func (s *IndexServer) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *IndexServer) registerTools() {
	syncTool := mcp.NewTool("semantic_sync",
		mcp.WithDescription("Run one incremental sync pass: index new and changed notes, optionally prune notes deleted at the source"),
		mcp.WithString("space",
			mcp.Description("Restrict the pass to one space (optional)"),
		),
		mcp.WithArray("types",
			mcp.Description("Only sync notes of these types (optional)"),
			mcp.WithStringItems(),
		),
		mcp.WithString("filter",
			mcp.Description("Only sync notes whose title or body contains this text (optional)"),
		),
		mcp.WithBoolean("force",
			mcp.Description("Re-embed every note even when unchanged (default: false)"),
		),
		mcp.WithBoolean("prune",
			mcp.Description("Remove indexed notes that no longer exist at the source (default: false)"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Pagination offset into the candidate set"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum notes to process in this pass"),
		),
	)
	s.mcpServer.AddTool(syncTool, s.handleSync)

	searchTool := mcp.NewTool("semantic_search",
		mcp.WithDescription("Search indexed notes by meaning using vector similarity"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The search query"),
		),
		mcp.WithString("space",
			mcp.Description("Restrict results to one space (optional)"),
		),
		mcp.WithString("source",
			mcp.Description("Restrict results to a source: notes, calendar or trash (optional)"),
		),
		mcp.WithString("note_type",
			mcp.Description("Restrict results to one note type (optional)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 10)"),
		),
		mcp.WithNumber("min_score",
			mcp.Description("Drop results scoring below this similarity (optional)"),
		),
		mcp.WithBoolean("include_text",
			mcp.Description("Include full chunk text instead of just previews (default: false)"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearch)

	statusTool := mcp.NewTool("index_status",
		mcp.WithDescription("Report index configuration, note and chunk counts, and last sync time"),
		mcp.WithString("space",
			mcp.Description("Scope the counts to one space (optional)"),
		),
	)
	s.mcpServer.AddTool(statusTool, s.handleStatus)

	resetTool := mcp.NewTool("index_reset",
		mcp.WithDescription("Delete indexed notes and chunks. Use preview to see what would be removed"),
		mcp.WithString("space",
			mcp.Description("Scope the reset to one space (optional)"),
		),
		mcp.WithBoolean("preview",
			mcp.Description("Report counts without deleting anything (default: false)"),
		),
	)
	s.mcpServer.AddTool(resetTool, s.handleReset)

	refSearchTool := mcp.NewTool("search_reference_docs",
		mcp.WithDescription("Search the bundled reference documentation"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The search query"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 5)"),
		),
		mcp.WithNumber("min_score",
			mcp.Description("Drop results scoring below this similarity (optional)"),
		),
	)
	s.mcpServer.AddTool(refSearchTool, s.handleRefSearch)

	refChunkTool := mcp.NewTool("get_reference_doc_chunk",
		mcp.WithDescription("Fetch one chunk of a reference document by title and chunk index"),
		mcp.WithString("doc",
			mcp.Required(),
			mcp.Description("The reference document title"),
		),
		mcp.WithNumber("index",
			mcp.Description("Chunk index within the document (default: 0)"),
		),
	)
	s.mcpServer.AddTool(refChunkTool, s.handleRefChunk)
}

func (s *IndexServer) handleSync(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.orchestrator.Sync(ctx, indexer.SyncParams{
		SpaceID:      request.GetString("space", ""),
		Types:        request.GetStringSlice("types", nil),
		Filter:       request.GetString("filter", ""),
		ForceReembed: request.GetBool("force", false),
		PruneMissing: request.GetBool("prune", false),
		Offset:       request.GetInt("offset", 0),
		Limit:        request.GetInt("limit", 0),
	})
	if err != nil {
		return nil, fmt.Errorf("sync failed: %w", err)
	}

	if report.NotConfigured {
		return mcp.NewToolResultText("Semantic indexing is not configured. Set a provider and API key first."), nil
	}

	summary := fmt.Sprintf(
		"Sync complete: %d scanned, %d added, %d updated, %d unchanged, %d notes pruned (%d chunks).",
		report.Scanned, report.Added, report.Updated, report.Unchanged,
		report.PrunedNotes, report.PrunedChunks,
	)
	if report.NextOffset > 0 {
		summary += fmt.Sprintf(" More notes remain; continue from offset %d.", report.NextOffset)
	}
	for _, warning := range report.Warnings {
		summary += "\nWarning: " + warning
	}
	return mcp.NewToolResultText(summary), nil
}

func (s *IndexServer) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return nil, err
	}

	results, err := s.engine.Search(ctx, search.Params{
		Query:       query,
		SpaceID:     request.GetString("space", ""),
		Source:      request.GetString("source", ""),
		NoteType:    request.GetString("note_type", ""),
		Limit:       request.GetInt("limit", 0),
		MinScore:    request.GetFloat("min_score", 0),
		IncludeText: request.GetBool("include_text", false),
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	if results.NotConfigured {
		return mcp.NewToolResultText("Semantic indexing is not configured. Set a provider and API key first."), nil
	}
	if len(results.Hits) == 0 {
		return mcp.NewToolResultText("No matching notes found."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d matching chunks (scanned %d):\n", len(results.Hits), results.Scanned)
	for i, hit := range results.Hits {
		fmt.Fprintf(&sb, "\n%d. %s (%s, chunk %d, score %.4f)\n",
			i+1, hit.Title, hit.NoteKey, hit.ChunkIndex, hit.Score)
		if hit.Text != "" {
			sb.WriteString(hit.Text)
			sb.WriteString("\n")
		} else if hit.Preview != "" {
			sb.WriteString(hit.Preview)
			sb.WriteString("\n")
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *IndexServer) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.svc.GetStatus(ctx, request.GetString("space", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	encoded, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode status: %w", err)
	}
	return mcp.NewToolResultText(string(encoded)), nil
}

func (s *IndexServer) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID := request.GetString("space", "")

	if request.GetBool("preview", false) {
		result, err := s.svc.PreviewReset(ctx, spaceID)
		if err != nil {
			return nil, fmt.Errorf("preview failed: %w", err)
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Reset preview: %d notes and %d chunks would be deleted.",
			result.NotesDeleted, result.ChunksDeleted)), nil
	}

	result, err := s.svc.Reset(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("reset failed: %w", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Index reset: deleted %d notes and %d chunks.",
		result.NotesDeleted, result.ChunksDeleted)), nil
}

func (s *IndexServer) handleRefSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return nil, err
	}
	limit := request.GetInt("limit", 0)
	minScore := request.GetFloat("min_score", 0)

	var matches []refdocs.Match
	if queryVec, embedErr := s.queryChain.EmbedQuery(ctx, query); embedErr == nil {
		matches = s.refIndex.Search(queryVec, limit, minScore)
	} else {
		matches = s.refIndex.SearchText(query, limit)
	}

	if len(matches) == 0 {
		return mcp.NewToolResultText("No matching reference documentation found."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d reference chunks:\n", len(matches))
	for i, match := range matches {
		fmt.Fprintf(&sb, "\n%d. %s (chunk %d, score %.4f)\n%s\n",
			i+1, match.Doc, match.Index, match.Score, match.Text)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *IndexServer) handleRefChunk(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := request.RequireString("doc")
	if err != nil {
		return nil, err
	}
	index := request.GetInt("index", 0)

	chunk, total, err := s.refIndex.Chunk(doc, index)
	if err != nil {
		return nil, fmt.Errorf("chunk %d of %q not found", index, doc)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"%s (chunk %d of %d)\n\n%s", chunk.Doc, chunk.Index+1, total, chunk.Text)), nil
}
