// =============================================================================
// tabmerge - Validation Module
// =============================================================================
//
// This module checks the shape of a source table before it is reconciled.
// Adapters return tables exactly as the file describes them, which may be
// ragged: a CSV row with missing cells or a JSON record without some field
// leaves those columns shorter than the rest.
//
// RAGGED ROW POLICIES:
//   pad       append empty strings to short columns (default)
//   truncate  cut every column to the shortest one, dropping incomplete rows
//   error     reject the table
//
// Padding appends at the end of a column: values are never shifted, so a
// field missing from an early JSON record misaligns with later records in
// the same way the source format itself does.
//
// =============================================================================

package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ginjaninja78/tabmerge/internal/config"
	tmerrors "github.com/ginjaninja78/tabmerge/internal/errors"
	"github.com/ginjaninja78/tabmerge/internal/table"
)

// =============================================================================
// VALIDATION ERROR STRUCTURE
// =============================================================================

// ValidationError describes one column whose length differs from the
// longest column of its table.
type ValidationError struct {
	// Source is the name of the source the table came from.
	Source string

	// Field is the short column.
	Field string

	// Length is the number of values the column has.
	Length int

	// Expected is the length of the longest column.
	Expected int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("source %s: field %s has %d values, expected %d", e.Source, e.Field, e.Length, e.Expected)
}

// Unwrap lets errors.Is match ErrRaggedTable.
func (e *ValidationError) Unwrap() error {
	return tmerrors.ErrRaggedTable
}

// =============================================================================
// VALIDATION FUNCTIONS
// =============================================================================

// Check returns one ValidationError per column that is shorter than the
// longest column. A rectangular table yields nil.
func Check(source string, t *table.ColumnTable) []*ValidationError {
	lengths := t.ColumnLengths()
	if len(lengths) == 0 {
		return nil
	}
	longest := slices.Max(lengths)

	var issues []*ValidationError
	for i, field := range t.Fields() {
		if lengths[i] != longest {
			issues = append(issues, &ValidationError{
				Source:   source,
				Field:    field,
				Length:   lengths[i],
				Expected: longest,
			})
		}
	}
	return issues
}

// Normalize applies policy to a ragged table and returns a rectangular one
// together with the issues that were found. A rectangular table is returned
// unchanged. The input table is never modified.
//
// With the error policy a ragged table yields an error wrapping
// ErrRaggedTable that lists every short column.
func Normalize(source string, t *table.ColumnTable, policy string) (*table.ColumnTable, []*ValidationError, error) {
	issues := Check(source, t)
	if len(issues) == 0 {
		return t, nil, nil
	}

	switch policy {
	case config.RaggedPad, "":
		return resize(t, slices.Max(t.ColumnLengths())), issues, nil
	case config.RaggedTruncate:
		return resize(t, slices.Min(t.ColumnLengths())), issues, nil
	case config.RaggedError:
		return nil, issues, fmt.Errorf("source %s: %w: %s", source, tmerrors.ErrRaggedTable, FormatErrors(issues))
	default:
		return nil, issues, fmt.Errorf("unknown ragged row policy %q", policy)
	}
}

// resize returns a copy of t with every column padded or cut to n values.
func resize(t *table.ColumnTable, n int) *table.ColumnTable {
	out := table.New()
	for _, field := range t.Fields() {
		values, _ := t.Column(field)
		column := make([]string, n)
		copy(column, values)
		out.Append(field, column...)
	}
	return out
}

// FormatErrors joins issues into a single line for log and error messages.
func FormatErrors(issues []*ValidationError) string {
	parts := make([]string, len(issues))
	for i, issue := range issues {
		parts[i] = fmt.Sprintf("%s has %d of %d values", issue.Field, issue.Length, issue.Expected)
	}
	return strings.Join(parts, "; ")
}
