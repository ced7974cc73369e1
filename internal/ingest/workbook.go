package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Workbook is one parsed spreadsheet: the normalized header row and the
// data rows keyed by header.
type Workbook struct {
	Sheet   string
	Headers []string
	Rows    []map[string]string
}

// ReadWorkbook parses the first sheet of an xlsx stream. Blank rows are
// dropped; short rows are padded so every record carries every header.
func ReadWorkbook(r io.Reader) (*Workbook, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]

	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = normalizeHeader(h)
	}

	wb := &Workbook{Sheet: sheet, Headers: headers}
	for _, raw := range rows[1:] {
		blank := true
		record := map[string]string{}
		for i, header := range headers {
			if header == "" {
				continue
			}
			value := ""
			if i < len(raw) {
				value = raw[i]
			}
			if value != "" {
				blank = false
			}
			record[header] = value
		}
		if blank {
			continue
		}
		wb.Rows = append(wb.Rows, record)
	}
	return wb, nil
}
