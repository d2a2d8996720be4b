package extraction

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// maxCSVRows bounds the number of row chunks emitted per file.
const maxCSVRows = 1000

// CSVExtractor parses delimited files into one chunk per row, serialized as
// "col: value | col: value".
type CSVExtractor struct {
	BaseExtractor
}

func NewCSVExtractor() *CSVExtractor {
	return &CSVExtractor{}
}

func (e *CSVExtractor) Name() string {
	return "csv"
}

func (e *CSVExtractor) Extract(ctx context.Context, data []byte, filename string) (*Result, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	result := &Result{
		Summary: Summary{FileKind: FileKindCSV},
	}

	rowCount := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Tolerate ragged rows; skip unparseable ones.
			continue
		}
		rowCount++

		if rowCount > maxCSVRows {
			continue // keep counting rows for the summary
		}

		text := serializeRow(header, record)
		if text == "" {
			continue
		}
		result.Chunks = append(result.Chunks, Chunk{
			Index:     len(result.Chunks),
			Type:      "row",
			Text:      text,
			RowNumber: intPtr(rowCount),
		})
		e.fillFromText(&result.Summary, text)
	}

	e.applyCaps(&result.Summary)
	result.Summary.Metadata = map[string]interface{}{
		"row_count": rowCount,
		"columns":   header,
	}
	if min, max, ok := amountBounds(result.Summary.AmountsCents); ok {
		result.Summary.Metadata["min_amount_cents"] = min
		result.Summary.Metadata["max_amount_cents"] = max
	}
	result.Summary.Summary = fmt.Sprintf("Table with %d rows and %d columns (%s)",
		rowCount, len(header), summarizeText(strings.Join(header, ", "), 200))

	return result, nil
}

// serializeRow joins header/value pairs as "col: value | col: value",
// dropping empty cells.
func serializeRow(header, record []string) string {
	var parts []string
	for i, value := range record {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		col := fmt.Sprintf("column_%d", i+1)
		if i < len(header) && header[i] != "" {
			col = header[i]
		}
		parts = append(parts, col+": "+value)
	}
	return strings.Join(parts, " | ")
}

func amountBounds(amounts []int64) (int64, int64, bool) {
	if len(amounts) == 0 {
		return 0, 0, false
	}
	min, max := amounts[0], amounts[0]
	for _, a := range amounts[1:] {
		if a < min {
			min = a
		}
		if a > max {
			max = a
		}
	}
	return min, max, true
}
