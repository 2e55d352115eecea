package report

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	tmerrors "github.com/ginjaninja78/tabmerge/internal/errors"
	"github.com/ginjaninja78/tabmerge/internal/table"
)

// =============================================================================
// GROUPED REPORT OPTIONS
// =============================================================================

// Options controls how the advanced report classifies and renames fields.
type Options struct {
	// GroupMarker selects dimension fields: every field whose name contains
	// it is part of the group key. All other fields are measures.
	GroupMarker string

	// MeasureMarker locates the insertion point of SummedMarker in a
	// measure header.
	MeasureMarker string

	// SummedMarker is inserted right after the first MeasureMarker of each
	// measure header, so M1 becomes MS1. Headers without MeasureMarker get
	// it as a prefix.
	SummedMarker string
}

// SummedHeader returns the output header of a summed measure field.
func (o Options) SummedHeader(field string) string {
	i := strings.Index(field, o.MeasureMarker)
	if i < 0 || o.MeasureMarker == "" {
		return o.SummedMarker + field
	}
	i += len(o.MeasureMarker)
	return field[:i] + o.SummedMarker + field[i:]
}

// Partition splits fields into dimensions and measures, each in its
// original relative order.
func (o Options) Partition(fields []string) (dimensions, measures []string) {
	for _, f := range fields {
		if strings.Contains(f, o.GroupMarker) {
			dimensions = append(dimensions, f)
		} else {
			measures = append(measures, f)
		}
	}
	return dimensions, measures
}

// =============================================================================
// GROUPED REPORT BUILDER
// =============================================================================

// group is one aggregation bucket.
type group struct {
	key  []string
	sums []int64
}

// BuildGrouped builds the advanced report. Rows are grouped by the tuple of
// their dimension values and the measures of each group are summed.
//
// Measure cells are parsed as base-10 integers after trimming whitespace. A
// cell that does not parse counts as 0 and is recorded in the report's
// Warnings; the row itself is kept. A sum that leaves the int64 range is
// clamped to it and recorded as an overflow warning.
//
// Groups appear in order of their first row, then are stably sorted by their
// first dimension value.
//
// RETURNS:
//   - The report, with measure headers renamed by Options.SummedHeader.
//   - A MissingColumnError if no field contains the group marker.
func BuildGrouped(t *table.ColumnTable, opts Options) (*Report, error) {
	dimensions, measures := opts.Partition(t.Fields())
	if len(dimensions) == 0 {
		return nil, tmerrors.NewMissingColumnError(NameAdvanced, opts.GroupMarker)
	}

	view, err := t.Promote(slices.Concat(dimensions, measures)...)
	if err != nil {
		return nil, missing(NameAdvanced, err)
	}
	_, rows, err := table.Transpose(view)
	if err != nil {
		return nil, fmt.Errorf("%s report: %w", NameAdvanced, err)
	}

	n := len(dimensions)
	var (
		groups   []*group
		index    = make(map[string]*group)
		warnings []*tmerrors.CoercionError
	)
	for r, row := range rows {
		key := make([]string, n)
		for i := range key {
			key[i] = row[i].(string)
		}

		values := make([]int64, len(row)-n)
		for i, cell := range row[n:] {
			v, err := coerce(cell.(string))
			if err != nil {
				warnings = append(warnings, &tmerrors.CoercionError{
					Field: measures[i],
					Value: cell.(string),
					Row:   r,
				})
			}
			values[i] = v
		}

		id := encodeKey(key)
		g, ok := index[id]
		if !ok {
			g = &group{key: key}
			index[id] = g
			groups = append(groups, g)
		}
		var overflowed []int
		g.sums, overflowed = fold(g.sums, values)
		for _, i := range overflowed {
			warnings = append(warnings, &tmerrors.CoercionError{
				Field:    measures[i],
				Value:    row[n+i].(string),
				Row:      r,
				Overflow: true,
			})
		}
	}

	headers := make([]string, 0, len(dimensions)+len(measures))
	headers = append(headers, dimensions...)
	for _, m := range measures {
		headers = append(headers, opts.SummedHeader(m))
	}

	out := make([]table.Row, len(groups))
	for i, g := range groups {
		row := make(table.Row, 0, len(headers))
		for _, k := range g.key {
			row = append(row, k)
		}
		for j := range measures {
			var sum int64
			if j < len(g.sums) {
				sum = g.sums[j]
			}
			row = append(row, sum)
		}
		out[i] = row
	}
	table.SortByFirst(out)

	return &Report{Name: NameAdvanced, Headers: headers, Rows: out, Warnings: warnings}, nil
}

// coerce parses a measure cell. It returns 0 along with the parse error when
// the cell is not an integer.
func coerce(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// fold adds values to acc element-wise. Positions missing on either side
// count as zero. It also returns the positions whose sum overflowed; those
// are clamped to math.MaxInt64 or math.MinInt64.
func fold(acc, values []int64) ([]int64, []int) {
	if len(values) > len(acc) {
		acc = append(acc, make([]int64, len(values)-len(acc))...)
	}
	var overflowed []int
	for i, v := range values {
		sum, ok := add(acc[i], v)
		if !ok {
			overflowed = append(overflowed, i)
		}
		acc[i] = sum
	}
	return acc, overflowed
}

// add returns a+b, saturated at the int64 bounds. ok is false when the
// result had to be clamped.
func add(a, b int64) (sum int64, ok bool) {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return math.MaxInt64, false
	case b < 0 && a < math.MinInt64-b:
		return math.MinInt64, false
	}
	return a + b, true
}

// encodeKey turns a key tuple into a map key. Each part is length-prefixed
// so that ("a|b", "c") and ("a", "b|c") stay distinct.
func encodeKey(key []string) string {
	var b strings.Builder
	for _, k := range key {
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}
