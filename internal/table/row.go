package table

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Row is one transposed record. Cells are either string (dimension and flat
// report values) or int64 (summed measures).
type Row []any

// Transpose turns a table into its header list and rows, where
// rows[r][c] is the r-th value of the c-th field. The table must be
// rectangular; a ragged table is a bug upstream and is reported as an error
// wrapping ErrRaggedTable.
func Transpose(t *ColumnTable) ([]string, []Row, error) {
	n, err := t.RowCount()
	if err != nil {
		return nil, nil, fmt.Errorf("transpose: %w", err)
	}
	headers := t.Fields()
	columns := make([][]string, len(headers))
	for c, field := range headers {
		columns[c], _ = t.Column(field)
	}

	rows := make([]Row, n)
	for r := range rows {
		row := make(Row, len(headers))
		for c := range headers {
			row[c] = columns[c][r]
		}
		rows[r] = row
	}
	return headers, rows, nil
}

// SortByFirst stably sorts rows by their first cell using CompareCells.
// Rows with equal keys keep their relative order.
func SortByFirst(rows []Row) {
	slices.SortStableFunc(rows, func(a, b Row) int {
		return CompareCells(first(a), first(b))
	})
}

func first(r Row) any {
	if len(r) == 0 {
		return nil
	}
	return r[0]
}

// CompareCells orders two cells by the natural ordering of their type:
// strings lexicographically, integers numerically. Across types, nil sorts
// first and numbers sort before strings.
func CompareCells(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch av := a.(type) {
	case string:
		return strings.Compare(av, b.(string))
	case int64:
		return cmp.Compare(av, b.(int64))
	case int:
		return cmp.Compare(av, b.(int))
	case nil:
		return 0
	default:
		return strings.Compare(FormatCell(a), FormatCell(b))
	}
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case int64:
		return 1
	case int:
		return 2
	case string:
		return 4
	default:
		return 3
	}
}

// FormatCell renders a cell in its natural string form. Integers are
// written without any grouping or padding.
func FormatCell(v any) string {
	switch cv := v.(type) {
	case nil:
		return ""
	case string:
		return cv
	case int64:
		return strconv.FormatInt(cv, 10)
	case int:
		return strconv.Itoa(cv)
	default:
		return fmt.Sprint(cv)
	}
}
