package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// maxEmbedChars caps the text sent to a provider for one embedding.
const maxEmbedChars = 8000

// minTailChunkChars drops trailing chunks too short to embed usefully.
const minTailChunkChars = 50

// TextChunk is one window produced by ChunkText, with its embedding attached
// after EmbedDocument runs.
type TextChunk struct {
	Index     int
	StartPos  int
	EndPos    int
	Text      string
	Embedding []float32
}

// DocumentEmbedding is the result of EmbedDocument: the artifact-level
// vector plus per-chunk vectors when the text was chunked.
type DocumentEmbedding struct {
	Vector []float32
	Chunks []TextChunk
}

// Client wraps an EmbeddingProvider with truncation, batching, chunking, and
// alignment guarantees.
type Client struct {
	provider EmbeddingProvider
	logger   hclog.Logger
}

// NewClient creates an embedding client. The provider may be nil, in which
// case every operation returns empty vectors.
func NewClient(provider EmbeddingProvider, logger hclog.Logger) *Client {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Client{
		provider: provider,
		logger:   logger.Named("embeddings"),
	}
}

// Available reports whether an embedding provider is configured.
func (c *Client) Available() bool {
	return c.provider != nil
}

// Dimensions returns the provider's vector size, or 0 without a provider.
func (c *Client) Dimensions() int {
	if c.provider == nil {
		return 0
	}
	return c.provider.Dimensions()
}

// Embed returns the embedding for text, truncated to 8000 characters. Empty
// input and a missing provider both yield an empty vector without error.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.provider == nil || strings.TrimSpace(text) == "" {
		return nil, nil
	}

	vec, err := c.provider.EmbedText(ctx, truncate(text, maxEmbedChars))
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if n, dim := len(vec), c.provider.Dimensions(); n != 0 && dim != 0 && n != dim {
		return nil, fmt.Errorf("provider %s returned %d dims, declared %d",
			c.provider.Name(), n, dim)
	}
	return vec, nil
}

// EmbedBatch embeds texts preserving index alignment: the result always has
// len(texts) entries and a failed item leaves an empty vector at its index.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	vectors := make([][]float32, len(texts))
	if c.provider == nil || len(texts) == 0 {
		return vectors
	}

	if batch, ok := c.provider.(BatchEmbeddingProvider); ok {
		truncated := make([]string, len(texts))
		for i, t := range texts {
			truncated[i] = truncate(t, maxEmbedChars)
		}
		got, err := batch.EmbedTexts(ctx, truncated)
		if err == nil && len(got) == len(texts) {
			return got
		}
		c.logger.Warn("batch embedding failed, falling back to sequential",
			"provider", c.provider.Name(), "error", err)
	}

	for i, t := range texts {
		vec, err := c.Embed(ctx, t)
		if err != nil {
			c.logger.Warn("embedding failed for batch item",
				"index", i, "error", err)
			continue
		}
		vectors[i] = vec
	}
	return vectors
}

// ChunkText splits text into a deterministic sliding window of size chars
// with overlap chars shared between neighbors. Indices are dense from 0.
// A trailing chunk shorter than 50 characters is dropped unless it is the
// only chunk.
func ChunkText(text string, size, overlap int) []TextChunk {
	if size <= 0 {
		size = maxEmbedChars
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []TextChunk{{Index: 0, StartPos: 0, EndPos: len(runes), Text: text}}
	}

	var chunks []TextChunk
	step := size - overlap
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		if end == len(runes) && end-start < minTailChunkChars && len(chunks) > 0 {
			break
		}
		chunks = append(chunks, TextChunk{
			Index:    len(chunks),
			StartPos: start,
			EndPos:   end,
			Text:     string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// EmbedDocument embeds text, chunking it first when it exceeds size and
// chunkIfLarge is set. The first chunk's vector doubles as the document
// vector.
func (c *Client) EmbedDocument(ctx context.Context, text string, chunkIfLarge bool, size int) (*DocumentEmbedding, error) {
	if size <= 0 {
		size = maxEmbedChars
	}
	if !chunkIfLarge || len([]rune(text)) <= size {
		vec, err := c.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		return &DocumentEmbedding{Vector: vec}, nil
	}

	chunks := ChunkText(text, size, size/10)
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors := c.EmbedBatch(ctx, texts)
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	doc := &DocumentEmbedding{Chunks: chunks}
	if len(chunks) > 0 {
		doc.Vector = chunks[0].Embedding
	}
	return doc, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
