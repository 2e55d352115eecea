// =============================================================================
// tabmerge - Column Table
// =============================================================================
//
// This package holds the in-memory representation shared by every stage of
// the pipeline:
//   - source adapters produce a ColumnTable per input file
//   - the reconciler merges them into one unified ColumnTable
//   - the report builders re-key and transpose it into Rows
//
// A ColumnTable maps a field name to an ordered sequence of string values and
// remembers the order in which fields were added. Field order is significant:
// it becomes the header order of every report.
//
// =============================================================================

package table

import (
	"fmt"
	"slices"

	tmerrors "github.com/ginjaninja78/tabmerge/internal/errors"
)

// =============================================================================
// COLUMN TABLE
// =============================================================================

// ColumnTable is a column-oriented dataset with ordered field names.
//
// A table fresh from a source adapter may be ragged (columns of different
// lengths); validation.Normalize makes it rectangular before it is
// reconciled. Transpose refuses ragged tables.
type ColumnTable struct {
	// fields holds the field names in insertion order.
	fields []string

	// columns maps each field name to its values.
	columns map[string][]string
}

// New creates an empty ColumnTable.
func New() *ColumnTable {
	return &ColumnTable{columns: make(map[string][]string)}
}

// FromColumns builds a table from field names and their values, in the order
// the names are given. It is mostly used by tests and the reconciler.
func FromColumns(fields []string, values [][]string) (*ColumnTable, error) {
	if len(fields) != len(values) {
		return nil, fmt.Errorf("got %d field names for %d columns", len(fields), len(values))
	}
	t := New()
	for i, field := range fields {
		if t.Has(field) {
			return nil, fmt.Errorf("duplicate field %q", field)
		}
		t.Append(field, values[i]...)
	}
	return t, nil
}

// Append adds values to the end of a field, creating the field when it does
// not exist yet. New fields go after all existing ones.
func (t *ColumnTable) Append(field string, values ...string) {
	if t.columns == nil {
		t.columns = make(map[string][]string)
	}
	column, exists := t.columns[field]
	if !exists {
		t.fields = append(t.fields, field)
		column = make([]string, 0, len(values))
	}
	t.columns[field] = append(column, values...)
}

// Fields returns a copy of the ordered field names.
func (t *ColumnTable) Fields() []string {
	return slices.Clone(t.fields)
}

// Has reports whether the table contains field.
func (t *ColumnTable) Has(field string) bool {
	_, ok := t.columns[field]
	return ok
}

// Column returns the values of field. The returned slice must not be modified.
func (t *ColumnTable) Column(field string) ([]string, bool) {
	column, ok := t.columns[field]
	return column, ok
}

// NumFields returns the number of fields.
func (t *ColumnTable) NumFields() int {
	return len(t.fields)
}

// ColumnLengths returns the length of each column in field order.
func (t *ColumnTable) ColumnLengths() []int {
	lengths := make([]int, len(t.fields))
	for i, field := range t.fields {
		lengths[i] = len(t.columns[field])
	}
	return lengths
}

// RowCount returns the common column length. A table without fields has
// zero rows. Ragged tables yield an error wrapping ErrRaggedTable.
func (t *ColumnTable) RowCount() (int, error) {
	if len(t.fields) == 0 {
		return 0, nil
	}
	n := len(t.columns[t.fields[0]])
	for _, field := range t.fields[1:] {
		if got := len(t.columns[field]); got != n {
			return 0, fmt.Errorf("field %s has %d values, field %s has %d: %w",
				t.fields[0], n, field, got, tmerrors.ErrRaggedTable)
		}
	}
	return n, nil
}

// Promote returns a view of the table with the given fields moved to the
// front, in the given order, followed by every other field in its prior
// relative order. It is a reordering, not a filter.
//
// Promote never modifies t: the view shares column storage with t, so two
// report builders can promote different keys on the same unified table.
// A field that does not exist is reported as a MissingColumnError with an
// empty report name; callers fill in the report.
func (t *ColumnTable) Promote(first ...string) (*ColumnTable, error) {
	view := &ColumnTable{
		fields:  make([]string, 0, len(t.fields)),
		columns: make(map[string][]string, len(t.columns)),
	}
	for _, field := range first {
		column, ok := t.columns[field]
		if !ok {
			return nil, tmerrors.NewMissingColumnError("", field)
		}
		if _, dup := view.columns[field]; dup {
			continue
		}
		view.fields = append(view.fields, field)
		view.columns[field] = column
	}
	for _, field := range t.fields {
		if _, done := view.columns[field]; done {
			continue
		}
		view.fields = append(view.fields, field)
		view.columns[field] = t.columns[field]
	}
	return view, nil
}
