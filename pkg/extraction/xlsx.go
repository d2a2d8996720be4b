package extraction

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXExtractor parses Excel workbooks. The first sheet's header row names
// the columns; every sheet contributes row chunks up to the shared cap.
type XLSXExtractor struct {
	BaseExtractor
}

func NewXLSXExtractor() *XLSXExtractor {
	return &XLSXExtractor{}
}

func (e *XLSXExtractor) Name() string {
	return "xlsx"
}

func (e *XLSXExtractor) Extract(ctx context.Context, data []byte, filename string) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	result := &Result{
		Summary: Summary{FileKind: FileKindSpreadsheet},
	}

	sheets := f.GetSheetList()
	var columns []string
	totalRows := 0

	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}

		header := rows[0]
		for i := range header {
			header[i] = strings.TrimSpace(header[i])
		}
		if columns == nil {
			columns = header
		}

		for i, record := range rows[1:] {
			totalRows++
			if len(result.Chunks) >= maxCSVRows {
				continue
			}
			text := serializeRow(header, record)
			if text == "" {
				continue
			}
			if len(sheets) > 1 {
				text = "sheet: " + sheet + " | " + text
			}
			result.Chunks = append(result.Chunks, Chunk{
				Index:     len(result.Chunks),
				Type:      "row",
				Text:      text,
				RowNumber: intPtr(i + 1),
			})
			e.fillFromText(&result.Summary, text)
		}
	}

	e.applyCaps(&result.Summary)
	result.Summary.Metadata = map[string]interface{}{
		"row_count": totalRows,
		"columns":   columns,
		"sheets":    sheets,
	}
	if min, max, ok := amountBounds(result.Summary.AmountsCents); ok {
		result.Summary.Metadata["min_amount_cents"] = min
		result.Summary.Metadata["max_amount_cents"] = max
	}
	result.Summary.Summary = fmt.Sprintf("Workbook with %d sheets and %d rows (%s)",
		len(sheets), totalRows, summarizeText(strings.Join(columns, ", "), 200))

	return result, nil
}
