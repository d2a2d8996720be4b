package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// maxTextChunks bounds text and snippet chunking.
const maxTextChunks = 500

// textWindowSize is the fixed window used when no paragraph or line
// structure is usable.
const textWindowSize = 500

// TextExtractor handles plain text and its structured cousins (.md, .json,
// .ini, .yaml, .xml). It is also the registry fallback for unknown types.
type TextExtractor struct {
	BaseExtractor
}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

func (e *TextExtractor) Name() string {
	return "text"
}

func (e *TextExtractor) Extract(ctx context.Context, data []byte, filename string) (*Result, error) {
	text := string(data)
	subtype := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if subtype == "" {
		subtype = "txt"
	}

	meta := map[string]interface{}{
		"text_subtype": subtype,
	}
	switch subtype {
	case "json":
		fillJSONSchema(text, meta)
	case "ini":
		fillINISections(text, meta)
	}

	result := &Result{
		Summary: Summary{
			FileKind: FileKindText,
			Summary:  summarizeText(text, 500),
			Metadata: meta,
		},
	}

	for i, part := range splitTextContent(text, maxTextChunks) {
		result.Chunks = append(result.Chunks, Chunk{
			Index: i,
			Type:  "paragraph",
			Text:  part,
		})
		e.fillFromText(&result.Summary, part)
	}
	e.applyCaps(&result.Summary)

	return result, nil
}

// splitTextContent prefers paragraph boundaries, then lines, then fixed
// windows, capped at max parts.
func splitTextContent(text string, max int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	parts := nonEmptyParts(strings.Split(text, "\n\n"))
	if len(parts) < 2 {
		parts = nonEmptyParts(strings.Split(text, "\n"))
	}
	if len(parts) < 2 && len([]rune(text)) > textWindowSize {
		parts = fixedWindowParts(text, textWindowSize)
	}
	if len(parts) == 0 {
		parts = []string{text}
	}
	if len(parts) > max {
		parts = parts[:max]
	}
	return parts
}

func nonEmptyParts(raw []string) []string {
	var parts []string
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func fixedWindowParts(text string, size int) []string {
	runes := []rune(text)
	var parts []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, strings.TrimSpace(string(runes[start:end])))
	}
	return parts
}

// fillJSONSchema records the top-level shape of a JSON document: object
// keys or array length.
func fillJSONSchema(text string, meta map[string]interface{}) {
	var parsed interface{}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return
	}
	switch v := parsed.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		meta["json_keys"] = keys
	case []interface{}:
		meta["json_array_length"] = len(v)
	default:
		meta["json_type"] = fmt.Sprintf("%T", parsed)
	}
}

// fillINISections records "[section]" headers.
func fillINISections(text string, meta map[string]interface{}) {
	var sections []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") && len(line) > 2 {
			sections = append(sections, line[1:len(line)-1])
		}
	}
	if len(sections) > 0 {
		meta["ini_sections"] = sections
	}
}
