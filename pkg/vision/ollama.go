package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaConfig configures the Ollama vision backend.
type OllamaConfig struct {
	BaseURL string // default: http://localhost:11434
	Model   string // e.g. "llava", "llama3.2-vision"
	Timeout time.Duration
}

// DefaultOllamaConfig returns a sensible default configuration.
func DefaultOllamaConfig() *OllamaConfig {
	return &OllamaConfig{
		BaseURL: "http://localhost:11434",
		Model:   "llava",
		Timeout: 5 * time.Minute,
	}
}

// OllamaProvider implements VisionProvider against Ollama's generate API
// with an attached image.
type OllamaProvider struct {
	cfg    *OllamaConfig
	client *http.Client
}

// NewOllamaProvider creates an Ollama-backed vision provider.
func NewOllamaProvider(cfg *OllamaConfig) (*OllamaProvider, error) {
	if cfg == nil {
		cfg = DefaultOllamaConfig()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llava"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}

	return &OllamaProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (p *OllamaProvider) Name() string {
	return "ollama-vision"
}

// Describe sends the prompt and base64-encoded image to Ollama.
func (p *OllamaProvider) Describe(ctx context.Context, image []byte, prompt string) (string, error) {
	ollamaReq := map[string]interface{}{
		"model":  p.cfg.Model,
		"prompt": prompt,
		"images": []string{base64.StdEncoding.EncodeToString(image)},
		"stream": false,
		"options": map[string]interface{}{
			"temperature": 0.2,
		},
	}

	reqBody, err := json.Marshal(ollamaReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST",
		p.cfg.BaseURL+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("ollama returned status %d (unable to read body: %w)", resp.StatusCode, err)
		}
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var ollamaResp struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return ollamaResp.Response, nil
}
