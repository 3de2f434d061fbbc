// internal/embedding/provider.go
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"finsight-context/internal/common/config"
	"finsight-context/internal/common/httpclient"
)

// Provider generates a fixed-length vector for a text. Implementations may
// fail or be slow; the Gateway owns caching and timeouts.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// HTTPProvider calls an embedding service over HTTP JSON.
type HTTPProvider struct {
	endpoint string
	model    string
	client   *httpclient.Client
}

func NewHTTPProvider(cfg config.EmbeddingConfig) *HTTPProvider {
	return &HTTPProvider{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		client:   httpclient.NewClient(cfg.Timeout()),
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: p.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, p.endpoint+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.DoWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call embedding provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding provider returned status %d", resp.StatusCode)
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(decoded.Embedding) == 0 {
		return nil, fmt.Errorf("embedding provider returned an empty vector")
	}

	return decoded.Embedding, nil
}
