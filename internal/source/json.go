package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/tabmerge/internal/table"
	gojson "github.com/goccy/go-json"
)

// JSON reads documents shaped as {"fields": [ {field: value, ...}, ... ]}.
// Each record contributes one value to every field it contains, so fields
// missing from some records end up with shorter columns.
type JSON struct {
	name string
	path string
}

// NewJSON creates a JSON source.
func NewJSON(name, path string) *JSON {
	return &JSON{name: name, path: path}
}

// Name returns the source name.
func (s *JSON) Name() string { return s.name }

// Path returns the file path.
func (s *JSON) Path() string { return s.path }

// Open reads the whole file.
func (s *JSON) Open(_ context.Context) (*table.ColumnTable, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return parseJSON(bufio.NewReader(file))
}

// parseJSON walks the token stream instead of decoding into maps so that
// field order follows the document.
func parseJSON(r io.Reader) (*table.ColumnTable, error) {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var t *table.ColumnTable
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		if key != "fields" {
			if err := skipValue(dec); err != nil {
				return nil, err
			}
			continue
		}
		t, err = parseRecords(dec)
		if err != nil {
			return nil, err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf(`document has no "fields" array`)
	}
	return t, nil
}

func parseRecords(dec *gojson.Decoder) (*table.ColumnTable, error) {
	if err := expectDelim(dec, '['); err != nil {
		return nil, fmt.Errorf(`"fields": %w`, err)
	}
	t := table.New()
	for record := 0; dec.More(); record++ {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, fmt.Errorf("record %d: %w", record, err)
		}
		for dec.More() {
			key, err := readKey(dec)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", record, err)
			}
			value, err := readScalar(dec)
			if err != nil {
				return nil, fmt.Errorf("record %d, field %s: %w", record, key, err)
			}
			t.Append(key, value)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, fmt.Errorf("record %d: %w", record, err)
		}
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, fmt.Errorf(`"fields": %w`, err)
	}
	return t, nil
}

func expectDelim(dec *gojson.Decoder, want gojson.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if d, ok := tok.(gojson.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *gojson.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

// readScalar renders a scalar token in its natural string form. Nested
// objects and arrays are rejected.
func readScalar(dec *gojson.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	switch v := tok.(type) {
	case string:
		return v, nil
	case gojson.Number:
		return v.String(), nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case nil:
		return "", nil
	case gojson.Delim:
		return "", errors.New("nested objects and arrays are not supported")
	default:
		return fmt.Sprint(v), nil
	}
}

// skipValue consumes one complete value of any shape.
func skipValue(dec *gojson.Decoder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		if d, ok := tok.(gojson.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
		if depth == 0 {
			return nil
		}
	}
}
