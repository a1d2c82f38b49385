package embed

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNoQuerySource is returned by the chain when every strategy failed or
// none was configured; callers fall back to a non-semantic search path.
var ErrNoQuerySource = errors.New("no embedding source available")

// QuerySource is one strategy for obtaining a query embedding. Any error
// means "try the next strategy".
type QuerySource interface {
	Name() string
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chain tries each source in priority order and stops at the first success.
// The usual order is host bridge first (no external credential needed), then
// the configured remote provider.
type Chain struct {
	sources []QuerySource
	logger  *slog.Logger
}

// NewChain builds a query chain over the given sources, in order.
func NewChain(sources ...QuerySource) *Chain {
	return &Chain{sources: sources, logger: slog.Default()}
}

// EmbedQuery returns the first vector any source produces, or
// ErrNoQuerySource when all fail.
func (c *Chain) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	for _, source := range c.sources {
		vec, err := source.EmbedQuery(ctx, text)
		if err == nil && len(vec) > 0 {
			return vec, nil
		}
		c.logger.DebugContext(ctx, "query embedding source failed, trying next",
			"source", source.Name(), "error", err)
	}
	return nil, ErrNoQuerySource
}

// remoteSource adapts the provider client to the QuerySource interface.
type remoteSource struct {
	client Embedder
}

// NewRemoteSource wraps an embedder as a query source.
func NewRemoteSource(client Embedder) QuerySource {
	return &remoteSource{client: client}
}

func (r *remoteSource) Name() string { return "remote" }

func (r *remoteSource) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := r.client.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, errors.New("expected exactly one query vector")
	}
	return vectors[0], nil
}
