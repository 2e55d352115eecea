package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/tabmerge/internal/table"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// CSV reads a comma-separated file whose first row holds the field names.
type CSV struct {
	name     string
	path     string
	encoding string
}

// NewCSV creates a CSV source. An empty encoding means UTF-8.
func NewCSV(name, path, encoding string) *CSV {
	return &CSV{name: name, path: path, encoding: encoding}
}

// Name returns the source name.
func (s *CSV) Name() string { return s.name }

// Path returns the file path.
func (s *CSV) Path() string { return s.path }

// Open reads the whole file.
func (s *CSV) Open(_ context.Context) (*table.ColumnTable, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	decoder, err := lookupEncoding(s.encoding)
	if err != nil {
		return nil, err
	}

	var reader io.Reader = bufio.NewReader(file)
	if decoder != nil {
		reader = transform.NewReader(reader, decoder.NewDecoder())
	}
	return parseCSV(reader)
}

// parseCSV maps each data row onto the header row positionally. Cells past
// the last header are ignored and missing cells are not padded.
func parseCSV(r io.Reader) (*table.ColumnTable, error) {
	csvReader := csv.NewReader(r)

	// Rows may be shorter or longer than the header row.
	csvReader.FieldsPerRecord = -1

	headers, err := csvReader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("CSV file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	headers = cleanHeaders(headers)

	t := table.New()
	for _, h := range headers {
		t.Append(h)
	}

	for rowNumber := 2; ; rowNumber++ {
		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading row %d: %w", rowNumber, err)
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

// cleanHeaders strips a UTF-8 byte order mark and surrounding whitespace.
// Empty header names become Column_<n>.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, "\ufeff")
		}
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// lookupEncoding returns the decoder for a character set name, or nil for UTF-8.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToUpper(strings.ReplaceAll(name, "_", "-")) {
	case "", "UTF-8", "UTF8":
		return nil, nil
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		return charmap.ISO8859_1, nil
	case "ISO-8859-15":
		return charmap.ISO8859_15, nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252, nil
	case "WINDOWS-1251", "CP1251":
		return charmap.Windows1251, nil
	case "KOI8-R":
		return charmap.KOI8R, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}
