// =============================================================================
// tabmerge - Report Builders
// =============================================================================
//
// This package turns the unified table into the two reports tabmerge writes:
//
//   basic     every unified row, keyed and sorted by the order-by field
//   advanced  rows grouped by their dimension values with measures summed
//
// Builders never modify the table they are given. They re-key it through
// table.Promote, which returns a view, so both builders can run at the same
// time on one unified table.
//
// =============================================================================

package report

import (
	"errors"

	tmerrors "github.com/ginjaninja78/tabmerge/internal/errors"
	"github.com/ginjaninja78/tabmerge/internal/table"
)

// Report names, used in errors, logs and the run summary.
const (
	NameBasic    = "basic"
	NameAdvanced = "advanced"
)

// Report is the output of a builder: a header row and the data rows that
// follow it.
type Report struct {
	// Name is NameBasic or NameAdvanced.
	Name string

	// Headers holds the column names in output order.
	Headers []string

	// Rows holds the sorted data rows.
	Rows []table.Row

	// Warnings lists every measure cell that was counted as zero.
	Warnings []*tmerrors.CoercionError
}

// HadCoercionError reports whether any measure cell failed to parse. The
// sums of such a report may be inaccurate.
func (r *Report) HadCoercionError() bool {
	return len(r.Warnings) > 0
}

// missing attaches the report name to a MissingColumnError from Promote.
func missing(report string, err error) error {
	var mc *tmerrors.MissingColumnError
	if errors.As(err, &mc) {
		return tmerrors.NewMissingColumnError(report, mc.Column)
	}
	return err
}
