package report

import (
	"fmt"

	"github.com/ginjaninja78/tabmerge/internal/table"
)

// BuildFlat builds the basic report: every row of the unified table with
// orderBy as the first column, sorted by that column. Rows with equal keys
// keep their unified order.
//
// PARAMETERS:
//   - t: The unified table. It is not modified.
//   - orderBy: The field to promote and sort by.
//
// RETURNS:
//   - The report.
//   - A MissingColumnError if orderBy is not a unified field.
func BuildFlat(t *table.ColumnTable, orderBy string) (*Report, error) {
	view, err := t.Promote(orderBy)
	if err != nil {
		return nil, missing(NameBasic, err)
	}

	headers, rows, err := table.Transpose(view)
	if err != nil {
		return nil, fmt.Errorf("%s report: %w", NameBasic, err)
	}
	table.SortByFirst(rows)

	return &Report{Name: NameBasic, Headers: headers, Rows: rows}, nil
}
