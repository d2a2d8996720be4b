package extraction

import (
	"context"
	"strings"
)

// Snippet sources.
const (
	SnippetSourceUser  = "user_input"
	SnippetSourceAgent = "ai_agent"
	SnippetSourcePaste = "paste"
	SnippetSourceAPI   = "api"
)

const (
	snippetSingleChunkMax = 500
	snippetParagraphMax   = 2000
	snippetWindowSize     = 500
	snippetWindowOverlap  = 100
)

// SnippetExtractor handles raw text snippets (no file bytes). Chunking
// strategy follows size: small snippets stay whole, medium ones split on
// paragraph or sentence boundaries, large ones use a sliding window.
type SnippetExtractor struct {
	BaseExtractor
}

func NewSnippetExtractor() *SnippetExtractor {
	return &SnippetExtractor{}
}

func (e *SnippetExtractor) Name() string {
	return "snippet"
}

// ExtractText converts a snippet into a Result. source tags where the text
// came from (user_input, ai_agent, paste, api).
func (e *SnippetExtractor) ExtractText(ctx context.Context, text, source string) (*Result, error) {
	text = strings.TrimSpace(text)
	result := &Result{
		Summary: Summary{
			FileKind: FileKindSnippet,
			Summary:  summarizeText(text, 500),
			Metadata: map[string]interface{}{
				"source":      source,
				"char_length": len([]rune(text)),
			},
		},
	}
	if text == "" {
		return result, nil
	}

	for i, part := range splitSnippet(text) {
		result.Chunks = append(result.Chunks, Chunk{
			Index: i,
			Type:  "snippet_chunk",
			Text:  part,
		})
		e.fillFromText(&result.Summary, part)
	}
	e.applyCaps(&result.Summary)

	return result, nil
}

// Extract satisfies the Extractor interface for callers that hold snippet
// bytes; the source defaults to api.
func (e *SnippetExtractor) Extract(ctx context.Context, data []byte, filename string) (*Result, error) {
	return e.ExtractText(ctx, string(data), SnippetSourceAPI)
}

func splitSnippet(text string) []string {
	length := len([]rune(text))

	switch {
	case length <= snippetSingleChunkMax:
		return []string{text}

	case length <= snippetParagraphMax:
		parts := nonEmptyParts(strings.Split(text, "\n\n"))
		if len(parts) < 2 {
			parts = splitSentences(text)
		}
		if len(parts) < 2 {
			// No usable boundaries; window the text instead.
			return windowParts(text)
		}
		if len(parts) > maxTextChunks {
			parts = parts[:maxTextChunks]
		}
		return parts

	default:
		return windowParts(text)
	}
}

// windowParts splits on a fixed sliding window with overlap.
func windowParts(text string) []string {
	runes := []rune(text)
	step := snippetWindowSize - snippetWindowOverlap
	var parts []string
	for start := 0; start < len(runes) && len(parts) < maxTextChunks; start += step {
		end := start + snippetWindowSize
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, strings.TrimSpace(string(runes[start:end])))
		if end == len(runes) {
			break
		}
	}
	return parts
}

// splitSentences breaks on sentence-ending punctuation followed by a space.
func splitSentences(text string) []string {
	var parts []string
	var b strings.Builder
	runes := []rune(text)

	for i, r := range runes {
		b.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') &&
			(i+1 == len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n') {
			if s := strings.TrimSpace(b.String()); s != "" {
				parts = append(parts, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		parts = append(parts, s)
	}
	return parts
}
