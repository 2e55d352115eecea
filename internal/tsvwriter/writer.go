// =============================================================================
// tabmerge - TSV Writer Module
// =============================================================================
//
// This module serializes a report to a tab-separated file:
//
//   D1<TAB>D2<TAB>MS1          <- header row
//   a<TAB>x<TAB>3              <- one line per data row
//   b<TAB>y<TAB>5
//
// Cells are rendered in their natural form (table.FormatCell): strings as is,
// integers in plain base 10. Only a cell containing a tab, a double quote or a
// line break is quoted, with inner quotes doubled; every other cell,
// including one with leading spaces, is written verbatim.
//
// Every file is written atomically, and its xxh3 digest can be computed from
// the same bytes so a run summary can identify the exact output.
//
// =============================================================================

package tsvwriter

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/tabmerge/internal/table"
	"github.com/ginjaninja78/tabmerge/pkg/utils"
	"github.com/zeebo/xxh3"
)

// Writer writes reports into Dir. A destination that is an absolute path
// is used as is.
type Writer struct {
	Dir string
}

// New creates a Writer for dir.
func New(dir string) *Writer {
	return &Writer{Dir: dir}
}

// Path returns the file a destination name resolves to.
func (w *Writer) Path(destination string) string {
	if filepath.IsAbs(destination) || w.Dir == "" {
		return destination
	}
	return filepath.Join(w.Dir, destination)
}

// Write serializes headers and rows to destination, replacing any previous
// file atomically.
func (w *Writer) Write(headers []string, rows []table.Row, destination string) error {
	path := w.Path(destination)
	if err := utils.WriteFileAtomic(path, func(out io.Writer) error {
		return Encode(out, headers, rows)
	}); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Encode writes the TSV form of headers and rows to out.
func Encode(out io.Writer, headers []string, rows []table.Row) error {
	bw := bufio.NewWriter(out)

	if err := writeRecord(bw, headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, 0, len(headers))
	for i, row := range rows {
		record = record[:0]
		for _, cell := range row {
			record = append(record, table.FormatCell(cell))
		}
		if err := writeRecord(bw, record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	return bw.Flush()
}

// writeRecord writes one tab-separated line.
func writeRecord(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte('\t')
		}
		if needsQuotes(f) {
			w.WriteByte('"')
			w.WriteString(strings.ReplaceAll(f, `"`, `""`))
			w.WriteByte('"')
		} else {
			w.WriteString(f)
		}
	}
	// bufio.Writer errors are sticky, so the last write reports any failure.
	return w.WriteByte('\n')
}

func needsQuotes(field string) bool {
	return strings.ContainsAny(field, "\t\"\r\n")
}

// Digest returns the xxh3 hash of the bytes Encode produces for headers and
// rows, formatted as 16 hex digits.
func Digest(headers []string, rows []table.Row) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, headers, rows); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", xxh3.Hash(buf.Bytes())), nil
}
