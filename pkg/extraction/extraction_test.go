package extraction

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestRegistry_ForFile(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name     string
		mime     string
		filename string
		want     string
	}{
		{"mime wins", "application/pdf", "report.txt", "pdf"},
		{"mime with charset", "text/csv; charset=utf-8", "data.bin", "csv"},
		{"suffix when mime unknown", "application/octet-stream", "photo.jpg", "image"},
		{"xlsx suffix", "", "books.xlsx", "xlsx"},
		{"default is text", "application/octet-stream", "blob.bin", "text"},
		{"no hints at all", "", "", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ForFile(tt.mime, tt.filename).Name())
		})
	}
}

func TestCSVExtractor(t *testing.T) {
	ctx := context.Background()
	data := []byte("invoice,vendor,total\n" +
		"INV-2024-00123,Acme Corp,$9.30\n" +
		"INV-2024-00124,Initech,$12.00\n")

	result, err := NewCSVExtractor().Extract(ctx, data, "invoices.csv")
	require.NoError(t, err)

	assert.Equal(t, FileKindCSV, result.Summary.FileKind)
	assert.Equal(t, 2, result.Summary.Metadata["row_count"])
	assert.Equal(t, []string{"invoice", "vendor", "total"}, result.Summary.Metadata["columns"])

	require.Len(t, result.Chunks, 2)
	assert.Equal(t, "invoice: INV-2024-00123 | vendor: Acme Corp | total: $9.30",
		result.Chunks[0].Text)
	assert.Equal(t, "row", result.Chunks[0].Type)
	require.NotNil(t, result.Chunks[0].RowNumber)
	assert.Equal(t, 1, *result.Chunks[0].RowNumber)
	assert.Equal(t, 0, result.Chunks[0].Index)
	assert.Equal(t, 1, result.Chunks[1].Index)

	assert.Contains(t, result.Summary.Keywords, "INV-2024-00123")
	assert.ElementsMatch(t, []int64{930, 1200}, result.Summary.AmountsCents)
	assert.Equal(t, "USD", result.Summary.Currency)
	assert.Equal(t, int64(930), result.Summary.Metadata["min_amount_cents"])
	assert.Equal(t, int64(1200), result.Summary.Metadata["max_amount_cents"])
}

func TestCSVExtractor_NoHeader(t *testing.T) {
	_, err := NewCSVExtractor().Extract(context.Background(), nil, "empty.csv")
	assert.Error(t, err)
}

func TestTextExtractor(t *testing.T) {
	ctx := context.Background()
	e := NewTextExtractor()

	t.Run("paragraph split", func(t *testing.T) {
		data := []byte("First paragraph here.\n\nSecond paragraph here.\n\nThird one.")
		result, err := e.Extract(ctx, data, "notes.txt")
		require.NoError(t, err)

		require.Len(t, result.Chunks, 3)
		assert.Equal(t, "paragraph", result.Chunks[0].Type)
		assert.Equal(t, "First paragraph here.", result.Chunks[0].Text)
		assert.Equal(t, "txt", result.Summary.Metadata["text_subtype"])
	})

	t.Run("line split when no paragraphs", func(t *testing.T) {
		data := []byte("line one\nline two\nline three")
		result, err := e.Extract(ctx, data, "list.txt")
		require.NoError(t, err)
		assert.Len(t, result.Chunks, 3)
	})

	t.Run("window split for one long line", func(t *testing.T) {
		data := []byte(strings.Repeat("x", 1200))
		result, err := e.Extract(ctx, data, "blob.txt")
		require.NoError(t, err)
		assert.Len(t, result.Chunks, 3)
	})

	t.Run("json schema", func(t *testing.T) {
		data := []byte(`{"name": "test", "items": [1, 2]}`)
		result, err := e.Extract(ctx, data, "config.json")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"name", "items"},
			result.Summary.Metadata["json_keys"])
	})

	t.Run("ini sections", func(t *testing.T) {
		data := []byte("[server]\nhost = localhost\n\n[database]\nname = loupe\n")
		result, err := e.Extract(ctx, data, "app.ini")
		require.NoError(t, err)
		assert.Equal(t, []string{"server", "database"},
			result.Summary.Metadata["ini_sections"])
	})

	t.Run("empty file", func(t *testing.T) {
		result, err := e.Extract(ctx, nil, "empty.txt")
		require.NoError(t, err)
		assert.Empty(t, result.Chunks)
	})
}

func TestSnippetExtractor(t *testing.T) {
	ctx := context.Background()
	e := NewSnippetExtractor()

	t.Run("small snippet stays whole", func(t *testing.T) {
		result, err := e.ExtractText(ctx, "remember to pay invoice INV-2024-00123", SnippetSourceUser)
		require.NoError(t, err)
		require.Len(t, result.Chunks, 1)
		assert.Equal(t, "snippet_chunk", result.Chunks[0].Type)
		assert.Equal(t, SnippetSourceUser, result.Summary.Metadata["source"])
		assert.Contains(t, result.Summary.Keywords, "INV-2024-00123")
	})

	t.Run("medium snippet splits on sentences", func(t *testing.T) {
		text := strings.Repeat("This is a fairly long sentence about nothing at all. ", 20)
		require.Greater(t, len(text), snippetSingleChunkMax)
		require.LessOrEqual(t, len(text), snippetParagraphMax)

		result, err := e.ExtractText(ctx, text, SnippetSourcePaste)
		require.NoError(t, err)
		assert.Greater(t, len(result.Chunks), 1)
	})

	t.Run("medium snippet without boundaries is windowed", func(t *testing.T) {
		text := strings.Repeat("a", snippetSingleChunkMax+1)
		result, err := e.ExtractText(ctx, text, SnippetSourcePaste)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(result.Chunks), 2)
	})

	t.Run("large snippet uses sliding window", func(t *testing.T) {
		text := strings.Repeat("abcde ", 600) // 3600 chars
		result, err := e.ExtractText(ctx, text, SnippetSourceAgent)
		require.NoError(t, err)
		assert.Greater(t, len(result.Chunks), 5)
		for i, ch := range result.Chunks {
			assert.Equal(t, i, ch.Index)
		}
	})

	t.Run("empty snippet", func(t *testing.T) {
		result, err := e.ExtractText(ctx, "  ", SnippetSourceAPI)
		require.NoError(t, err)
		assert.Empty(t, result.Chunks)
	})
}

func TestXLSXExtractor(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"invoice", "total"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"INV-2024-00200", "$15.00"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"INV-2024-00201", "$20.00"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	result, err := NewXLSXExtractor().Extract(context.Background(), buf.Bytes(), "books.xlsx")
	require.NoError(t, err)

	assert.Equal(t, FileKindSpreadsheet, result.Summary.FileKind)
	assert.Equal(t, 2, result.Summary.Metadata["row_count"])
	require.Len(t, result.Chunks, 2)
	assert.Equal(t, "invoice: INV-2024-00200 | total: $15.00", result.Chunks[0].Text)
	assert.Contains(t, result.Summary.Keywords, "INV-2024-00200")
}

func TestImageExtractor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 20, 10))))

	result, err := NewImageExtractor().Extract(context.Background(), buf.Bytes(), "photo.png")
	require.NoError(t, err)

	assert.Equal(t, FileKindImage, result.Summary.FileKind)
	assert.Equal(t, 20, result.Summary.Metadata["width"])
	assert.Equal(t, 10, result.Summary.Metadata["height"])
	assert.Equal(t, "png", result.Summary.Metadata["format"])

	require.Len(t, result.Chunks, 1)
	assert.Equal(t, "image", result.Chunks[0].Type)
}

func TestPDFExtractor_InvalidData(t *testing.T) {
	_, err := NewPDFExtractor().Extract(context.Background(), []byte("not a pdf"), "bad.pdf")
	assert.Error(t, err)
}
