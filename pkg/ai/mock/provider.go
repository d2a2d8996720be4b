// Package mock provides a deterministic embedding provider for tests. It
// never calls external APIs.
package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"
)

// Provider generates deterministic embeddings derived from the input text,
// so equal texts embed identically and similarity math is meaningful in
// tests.
type Provider struct {
	name           string
	dimensions     int
	simulateErrors bool
	delay          time.Duration
}

// NewProvider creates a mock embedding provider with 16 dimensions.
func NewProvider() *Provider {
	return &Provider{
		name:       "mock",
		dimensions: 16,
	}
}

// WithName sets a custom provider name.
func (p *Provider) WithName(name string) *Provider {
	p.name = name
	return p
}

// WithDimensions overrides the vector size.
func (p *Provider) WithDimensions(dim int) *Provider {
	p.dimensions = dim
	return p
}

// WithSimulateErrors makes every call fail, for error-path testing.
func (p *Provider) WithSimulateErrors(enable bool) *Provider {
	p.simulateErrors = enable
	return p
}

// WithDelay adds artificial latency.
func (p *Provider) WithDelay(d time.Duration) *Provider {
	p.delay = d
	return p
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Dimensions() int {
	return p.dimensions
}

// EmbedText returns a unit vector seeded from the text's FNV hash.
func (p *Provider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if p.simulateErrors {
		return nil, fmt.Errorf("mock error: embedding failed")
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.deterministicVector(text), nil
}

// EmbedTexts embeds all texts in one call, aligned by index.
func (p *Provider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if p.simulateErrors {
		return nil, fmt.Errorf("mock error: batch embedding failed")
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := p.EmbedText(ctx, t)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (p *Provider) deterministicVector(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, p.dimensions)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float64(int64(seed>>11)) / float64(1<<52)
		vec[i] = float32(v)
		norm += v * v
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}
