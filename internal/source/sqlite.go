package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/ginjaninja78/tabmerge/internal/table"

	_ "modernc.org/sqlite"
)

// SQLite reads every column of one table in a SQLite database file, in
// the order SQLite returns them. NULL becomes an empty string.
type SQLite struct {
	name  string
	path  string
	table string
}

// NewSQLite creates a SQLite source.
func NewSQLite(name, path, tableName string) *SQLite {
	return &SQLite{name: name, path: path, table: tableName}
}

// Name returns the source name.
func (s *SQLite) Name() string { return s.name }

// Path returns the database path.
func (s *SQLite) Path() string { return s.path }

// Open reads the whole table.
func (s *SQLite) Open(ctx context.Context) (*table.ColumnTable, error) {
	// sql.Open would silently create a missing database file.
	if _, err := os.Stat(s.path); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(s.table))
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", s.table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	t := table.New()
	for _, c := range columns {
		t.Append(c)
	}

	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, c := range columns {
			t.Append(c, values[i].String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return t, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
