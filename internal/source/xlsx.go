package source

import (
	"context"
	"fmt"

	"github.com/ginjaninja78/tabmerge/internal/table"
	"github.com/xuri/excelize/v2"
)

// XLSX reads one worksheet of an Excel workbook. The first row holds the
// field names, like the CSV source.
type XLSX struct {
	name  string
	path  string
	sheet string
}

// NewXLSX creates an XLSX source. An empty sheet selects the first sheet.
func NewXLSX(name, path, sheet string) *XLSX {
	return &XLSX{name: name, path: path, sheet: sheet}
}

// Name returns the source name.
func (s *XLSX) Name() string { return s.name }

// Path returns the file path.
func (s *XLSX) Path() string { return s.path }

// Open reads the whole sheet.
func (s *XLSX) Open(_ context.Context) (*table.ColumnTable, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := s.sheet
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	return rowsToTable(rows)
}

// rowsToTable applies the CSV header rule to a grid of cells. GetRows drops
// trailing empty cells, which leaves those columns short like a short CSV row.
func rowsToTable(rows [][]string) (*table.ColumnTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet is empty")
	}
	headers := cleanHeaders(rows[0])

	t := table.New()
	for _, h := range headers {
		t.Append(h)
	}
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		for i, value := range row {
			if i >= len(headers) {
				break
			}
			t.Append(headers[i], value)
		}
	}
	return t, nil
}
