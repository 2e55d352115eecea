// =============================================================================
// tabmerge - Schema Reconciler
// =============================================================================
//
// The reconciler merges the tables read from every successful source into a
// single unified table:
//
//  1. The unified schema is the set of field names present in every table,
//     ordered as they appear in the first table.
//  2. For each unified field, the per-source columns are concatenated in
//     source order.
//
// Fields are matched by name only. No type reconciliation takes place.
//
// =============================================================================

package reconcile

import (
	"fmt"

	tmerrors "github.com/ginjaninja78/tabmerge/internal/errors"
	"github.com/ginjaninja78/tabmerge/internal/table"
)

// CommonFields returns the field names shared by every table, in the order
// of the first table. It returns nil for an empty input.
func CommonFields(tables []*table.ColumnTable) []string {
	if len(tables) == 0 {
		return nil
	}

	var common []string
	for _, field := range tables[0].Fields() {
		shared := true
		for _, t := range tables[1:] {
			if !t.Has(field) {
				shared = false
				break
			}
		}
		if shared {
			common = append(common, field)
		}
	}
	return common
}

// Reconcile builds the unified table from tables. Source tables are not
// modified.
//
// An empty input or an empty intersection yields an empty table together
// with an error wrapping ErrEmptySchema, so callers can decide whether a
// header-less result is acceptable.
func Reconcile(tables []*table.ColumnTable) (*table.ColumnTable, error) {
	if len(tables) == 0 {
		return table.New(), fmt.Errorf("no source tables: %w", tmerrors.ErrEmptySchema)
	}

	common := CommonFields(tables)
	if len(common) == 0 {
		return table.New(), fmt.Errorf("%d sources: %w", len(tables), tmerrors.ErrEmptySchema)
	}

	unified := table.New()
	for _, field := range common {
		// Create the field even if every source column is empty.
		unified.Append(field)
		for _, t := range tables {
			values, _ := t.Column(field)
			unified.Append(field, values...)
		}
	}
	return unified, nil
}
