// Package ollama provides an Ollama implementation of the embedding
// provider interface. Ollama runs open-source models locally.
// Install: https://ollama.ai/download
// Usage: ollama pull nomic-embed-text
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config contains Ollama configuration.
type Config struct {
	BaseURL        string // Ollama API URL (default: http://localhost:11434)
	EmbeddingModel string // e.g. "nomic-embed-text", "mxbai-embed-large"
	Dimensions     int    // Declared vector size (default: 768 for nomic-embed-text)
	Timeout        time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "http://localhost:11434",
		EmbeddingModel: "nomic-embed-text",
		Dimensions:     768,
		Timeout:        2 * time.Minute,
	}
}

// Provider implements ai.EmbeddingProvider using Ollama's embeddings API.
// Ollama embeds one text per call; the client handles batching.
type Provider struct {
	cfg    *Config
	client *http.Client
}

// NewProvider creates a new Ollama embedding provider.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "nomic-embed-text"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}

	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (p *Provider) Name() string {
	return "ollama"
}

func (p *Provider) Dimensions() int {
	return p.cfg.Dimensions
}

// EmbedText calls Ollama's embeddings endpoint for one text.
func (p *Provider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	ollamaReq := map[string]interface{}{
		"model":  p.cfg.EmbeddingModel,
		"prompt": text,
	}

	reqBody, err := json.Marshal(ollamaReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST",
		p.cfg.BaseURL+"/api/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("ollama returned status %d (unable to read body: %w)", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var ollamaResp struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	embedding := make([]float32, len(ollamaResp.Embedding))
	for i, v := range ollamaResp.Embedding {
		embedding[i] = float32(v)
	}
	return embedding, nil
}
