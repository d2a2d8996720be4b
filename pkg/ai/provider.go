// Package ai provides the embedding client used by ingestion and search,
// plus the provider interfaces its backends implement (ollama, bedrock,
// mock).
package ai

import "context"

// EmbeddingProvider generates one embedding at a time.
type EmbeddingProvider interface {
	// EmbedText returns the embedding for one text.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the provider's declared vector size. Stable for
	// the lifetime of the provider instance.
	Dimensions() int

	// Name returns the provider name (e.g. "ollama", "bedrock", "mock").
	Name() string
}

// BatchEmbeddingProvider is implemented by providers that accept N texts in
// one call. The client falls back to sequential EmbedText otherwise.
type BatchEmbeddingProvider interface {
	EmbeddingProvider

	// EmbedTexts returns one embedding per input, aligned by index.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
