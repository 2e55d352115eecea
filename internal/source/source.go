// =============================================================================
// tabmerge - Source Adapters
// =============================================================================
//
// This package turns input files into column tables. Every supported format
// implements the same single capability, Source.Open, and returns a
// table.ColumnTable whose field order is the order fields were first seen in
// the file.
//
// SUPPORTED FORMATS:
//   csv     first row holds the headers, later rows map positionally
//   json    {"fields": [ {field: value, ...}, ... ]}
//   yaml    same shape as json
//   xml     <objects><object name="F"><v>..</v></object></objects>
//   xlsx    first sheet (or a configured one), first row holds the headers
//   sqlite  every column of one table
//
// RAGGED DATA:
//   Adapters never pad. A CSV row with fewer cells than headers, or a JSON
//   record without some field, leaves those columns shorter. The validation
//   package decides what to do with such tables.
//
// =============================================================================

package source

import (
	"context"
	"fmt"

	"github.com/ginjaninja78/tabmerge/internal/config"
	tmerrors "github.com/ginjaninja78/tabmerge/internal/errors"
	"github.com/ginjaninja78/tabmerge/internal/table"
)

// Source reads one input resource into a column table.
type Source interface {
	// Name identifies the source in logs and warnings.
	Name() string

	// Open reads the whole resource. The table's Fields() is the ordered
	// field-name list of the source.
	Open(ctx context.Context) (*table.ColumnTable, error)
}

// New creates the adapter for a source configuration.
func New(cfg config.SourceConfig) (Source, error) {
	name := cfg.Name
	if name == "" {
		name = cfg.Path
	}
	switch cfg.Type {
	case config.SourceCSV:
		return &CSV{name: name, path: cfg.Path, encoding: cfg.Encoding}, nil
	case config.SourceJSON:
		return &JSON{name: name, path: cfg.Path}, nil
	case config.SourceXML:
		return &XML{name: name, path: cfg.Path}, nil
	case config.SourceYAML:
		return &YAML{name: name, path: cfg.Path}, nil
	case config.SourceXLSX:
		return &XLSX{name: name, path: cfg.Path, sheet: cfg.Sheet}, nil
	case config.SourceSQLite:
		return &SQLite{name: name, path: cfg.Path, table: cfg.Table}, nil
	default:
		return nil, fmt.Errorf("source %s: unsupported type %q", name, cfg.Type)
	}
}

// NewAll creates adapters for every configuration, in order.
func NewAll(cfgs []config.SourceConfig) ([]Source, error) {
	sources := make([]Source, 0, len(cfgs))
	for _, cfg := range cfgs {
		src, err := New(cfg)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// Read opens src and wraps any failure in a SourceError, so callers can
// recognise it with errors.Is(err, ErrSourceUnavailable).
func Read(ctx context.Context, src Source) (*table.ColumnTable, error) {
	t, err := src.Open(ctx)
	if err != nil {
		return nil, tmerrors.NewSourceError(src.Name(), PathOf(src), err)
	}
	return t, nil
}

// PathOf returns the file path of src, or "" if the source has none.
func PathOf(src Source) string {
	if p, ok := src.(interface{ Path() string }); ok {
		return p.Path()
	}
	return ""
}
