// Package extraction converts raw file bytes into an artifact summary plus
// ordered chunks, one extractor per file kind. Structured-field helpers are
// shared through BaseExtractor so every extractor applies the same
// amount/date/entity/keyword rules.
package extraction

import (
	"context"
	"path/filepath"
	"strings"
)

// File kind labels produced by the extractors.
const (
	FileKindPDF         = "pdf"
	FileKindCSV         = "csv"
	FileKindSpreadsheet = "spreadsheet"
	FileKindImage       = "image"
	FileKindText        = "text"
	FileKindSnippet     = "snippet"
)

// Summary is the artifact-level output of an extractor.
type Summary struct {
	Summary  string
	FileKind string

	Keywords     []string
	Entities     []string
	Dates        []string
	AmountsCents []int64
	Currency     string
	Vendor       string
	ImageLabels  []string

	// Metadata is the type-specific bag (pdf_pages, row_count, columns,
	// image dimensions, ...), persisted as-is on the artifact.
	Metadata map[string]interface{}
}

// Chunk is one ordered unit of extracted content. Indices are dense from 0
// in emission order; empty chunks are suppressed before emission.
type Chunk struct {
	Index int
	Type  string
	Text  string

	// Deep-link locators.
	PageNumber *int
	RowNumber  *int
	ColNumber  *int

	// Image chunk fields, filled by the vision pass after extraction.
	OCRText     string
	Caption     string
	ImageLabels []string

	Keywords     []string
	Entities     []string
	Dates        []string
	AmountsCents []int64
	Currency     string
	Vendor       string
}

// Result pairs the artifact summary with its ordered chunks.
type Result struct {
	Summary Summary
	Chunks  []Chunk
}

// Extractor converts one file kind into a Result.
type Extractor interface {
	// Extract parses data into a summary and ordered chunks.
	Extract(ctx context.Context, data []byte, filename string) (*Result, error)

	// Name identifies the extractor in logs.
	Name() string
}

// Registry resolves an extractor by MIME type first, filename suffix
// second, falling back to the text extractor.
type Registry struct {
	byMIME   map[string]Extractor
	bySuffix map[string]Extractor
	fallback Extractor
}

// NewRegistry builds the default registry with all extractors registered.
func NewRegistry() *Registry {
	text := NewTextExtractor()
	pdf := NewPDFExtractor()
	csv := NewCSVExtractor()
	xlsx := NewXLSXExtractor()
	image := NewImageExtractor()

	r := &Registry{
		byMIME:   make(map[string]Extractor),
		bySuffix: make(map[string]Extractor),
		fallback: text,
	}

	r.registerMIME(pdf, "application/pdf")
	r.registerMIME(csv, "text/csv")
	r.registerMIME(xlsx,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel")
	r.registerMIME(image, "image/png", "image/jpeg", "image/gif", "image/webp")
	r.registerMIME(text, "text/plain", "text/markdown", "application/json",
		"application/xml", "text/xml", "application/x-yaml")

	r.registerSuffix(pdf, ".pdf")
	r.registerSuffix(csv, ".csv")
	r.registerSuffix(xlsx, ".xlsx", ".xls")
	r.registerSuffix(image, ".png", ".jpg", ".jpeg", ".gif", ".webp")
	r.registerSuffix(text, ".txt", ".md", ".json", ".ini", ".yaml", ".yml", ".xml")

	return r
}

func (r *Registry) registerMIME(e Extractor, mimes ...string) {
	for _, m := range mimes {
		r.byMIME[m] = e
	}
}

func (r *Registry) registerSuffix(e Extractor, suffixes ...string) {
	for _, s := range suffixes {
		r.bySuffix[s] = e
	}
}

// ForFile selects the extractor for a file: MIME type first, then filename
// suffix, then the text fallback.
func (r *Registry) ForFile(mimeType, filename string) Extractor {
	if mimeType != "" {
		// Parameters like "; charset=utf-8" don't affect selection.
		base := strings.TrimSpace(strings.Split(mimeType, ";")[0])
		if e, ok := r.byMIME[strings.ToLower(base)]; ok {
			return e
		}
	}
	if suffix := strings.ToLower(filepath.Ext(filename)); suffix != "" {
		if e, ok := r.bySuffix[suffix]; ok {
			return e
		}
	}
	return r.fallback
}

func intPtr(v int) *int {
	return &v
}
