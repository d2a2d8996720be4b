package extraction

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor parses PDF files into one chunk per non-empty page.
type PDFExtractor struct {
	BaseExtractor
}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (e *PDFExtractor) Name() string {
	return "pdf"
}

func (e *PDFExtractor) Extract(ctx context.Context, data []byte, filename string) (*Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	result := &Result{
		Summary: Summary{
			FileKind: FileKindPDF,
			Metadata: map[string]interface{}{
				"pdf_pages": reader.NumPage(),
			},
		},
	}
	e.fillDocumentInfo(reader, result.Summary.Metadata)

	var firstPage string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if firstPage == "" {
			firstPage = text
		}

		result.Chunks = append(result.Chunks, Chunk{
			Index:      len(result.Chunks),
			Type:       "page",
			Text:       text,
			PageNumber: intPtr(pageNum),
		})
	}

	result.Summary.Summary = summarizeText(firstPage, 500)
	for _, ch := range result.Chunks {
		e.fillFromText(&result.Summary, ch.Text)
	}
	e.applyCaps(&result.Summary)

	return result, nil
}

// fillDocumentInfo copies embedded PDF metadata (title/author/subject/
// creator) into the type-specific bag when present.
func (e *PDFExtractor) fillDocumentInfo(reader *pdf.Reader, meta map[string]interface{}) {
	defer func() {
		// Malformed trailer dictionaries panic inside the pdf package.
		_ = recover()
	}()

	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return
	}
	for key, name := range map[string]string{
		"Title":   "pdf_title",
		"Author":  "pdf_author",
		"Subject": "pdf_subject",
		"Creator": "pdf_creator",
	} {
		if v := info.Key(key); !v.IsNull() {
			if text := strings.TrimSpace(v.Text()); text != "" {
				meta[name] = text
			}
		}
	}
}

// summarizeText truncates text to max runes on a field boundary.
func summarizeText(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max]))
}
