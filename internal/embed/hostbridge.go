package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// MinHostBuild is the first host application build whose scripting surface
// exposes an embedding hook. Older hosts are skipped without an HTTP call
// to the embed endpoint.
const MinHostBuild = 1160

// HostBridge obtains query embeddings through the host application's local
// scripting endpoint. It is the cheapest query source: no external
// credential, no network egress.
type HostBridge struct {
	baseURL string
	client  *http.Client

	// build caches the host's reported build number after the first probe.
	// Zero means not yet probed.
	build int
}

// NewHostBridge creates a bridge to the host scripting endpoint at baseURL.
func NewHostBridge(baseURL string) *HostBridge {
	return &HostBridge{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *HostBridge) Name() string { return "host-bridge" }

// EmbedQuery asks the host to embed the query text. It fails (so the chain
// advances) when the host is unreachable or its build predates the hook.
func (b *HostBridge) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	build, err := b.buildNumber(ctx)
	if err != nil {
		return nil, err
	}
	if build < MinHostBuild {
		return nil, fmt.Errorf("host build %d predates embedding hook (need %d)", build, MinHostBuild)
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/embed", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("host embed returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode host embedding: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("host returned empty embedding")
	}
	return parsed.Embedding, nil
}

func (b *HostBridge) buildNumber(ctx context.Context) (int, error) {
	if b.build != 0 {
		return b.build, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/build", nil)
	if err != nil {
		return 0, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("host build probe returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Build int `json:"build"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("failed to decode host build: %w", err)
	}
	b.build = parsed.Build
	return parsed.Build, nil
}
