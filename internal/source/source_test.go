package source

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/tabmerge/internal/config"
	tmerrors "github.com/ginjaninja78/tabmerge/internal/errors"
	"github.com/ginjaninja78/tabmerge/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func column(t *testing.T, tbl *table.ColumnTable, field string) []string {
	t.Helper()
	values, ok := tbl.Column(field)
	require.True(t, ok, "missing field %s", field)
	return values
}

func TestCSV(t *testing.T) {
	path := writeFile(t, "data.csv", []byte("D1,D2,M1\na,x,1\nb,y,2\nc\n\nd,z,4,extra\n"))

	tbl, err := NewCSV("data", path, "").Open(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"D1", "D2", "M1"}, tbl.Fields())
	assert.Equal(t, []string{"a", "b", "c", "d"}, column(t, tbl, "D1"))
	assert.Equal(t, []string{"x", "y", "z"}, column(t, tbl, "D2"), "short rows are not padded")
	assert.Equal(t, []string{"1", "2", "4"}, column(t, tbl, "M1"), "extra cells are dropped")
}

func TestCSVHeaders(t *testing.T) {
	path := writeFile(t, "bom.csv", []byte("\ufeffD1, ,M1\na,b,1\n"))

	tbl, err := NewCSV("bom", path, "UTF-8").Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"D1", "Column_2", "M1"}, tbl.Fields())
}

func TestCSVEncoding(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String("D1,M1\ncafé,1\n")
	require.NoError(t, err)
	path := writeFile(t, "latin.csv", []byte(encoded))

	tbl, err := NewCSV("latin", path, "Windows-1252").Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"café"}, column(t, tbl, "D1"))

	_, err = NewCSV("latin", path, "EBCDIC").Open(context.Background())
	assert.Error(t, err)
}

func TestCSVEmpty(t *testing.T) {
	path := writeFile(t, "empty.csv", nil)
	_, err := NewCSV("empty", path, "").Open(context.Background())
	assert.Error(t, err)
}

func TestJSON(t *testing.T) {
	path := writeFile(t, "data.json", []byte(`{
  "meta": {"owner": "ops", "tags": [1, 2]},
  "fields": [
    {"D1": "a", "D2": "x", "M1": 1},
    {"D1": "b", "M1": 2.5, "M2": null},
    {"D2": "z", "D1": "c", "M1": true}
  ]
}`))

	tbl, err := NewJSON("data", path).Open(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"D1", "D2", "M1", "M2"}, tbl.Fields())
	assert.Equal(t, []string{"a", "b", "c"}, column(t, tbl, "D1"))
	assert.Equal(t, []string{"x", "z"}, column(t, tbl, "D2"))
	assert.Equal(t, []string{"1", "2.5", "true"}, column(t, tbl, "M1"))
	assert.Equal(t, []string{""}, column(t, tbl, "M2"))
}

func TestJSONErrors(t *testing.T) {
	tests := map[string]string{
		"not an object":  `[1, 2]`,
		"no fields":      `{"other": []}`,
		"fields object":  `{"fields": {}}`,
		"nested value":   `{"fields": [{"D1": {"a": 1}}]}`,
		"truncated":      `{"fields": [{"D1": "a"`,
		"record is list": `{"fields": [[1]]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "bad.json", []byte(body))
			_, err := NewJSON("bad", path).Open(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestXML(t *testing.T) {
	path := writeFile(t, "data.xml", []byte(`<?xml version="1.0"?>
<root>
  <objects>
    <object name="D1"><value>a</value><value>b</value></object>
    <object name="M1"><value>1</value><value>2</value></object>
    <object name="D1"><value>c</value></object>
  </objects>
</root>`))

	tbl, err := NewXML("data", path).Open(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"D1", "M1"}, tbl.Fields())
	assert.Equal(t, []string{"a", "b", "c"}, column(t, tbl, "D1"))
	assert.Equal(t, []string{"1", "2"}, column(t, tbl, "M1"))
}

func TestXMLErrors(t *testing.T) {
	path := writeFile(t, "noname.xml", []byte(`<root><objects><object><value>1</value></object></objects></root>`))
	_, err := NewXML("noname", path).Open(context.Background())
	assert.Error(t, err)

	path = writeFile(t, "broken.xml", []byte(`<root><objects>`))
	_, err = NewXML("broken", path).Open(context.Background())
	assert.Error(t, err)
}

func TestYAML(t *testing.T) {
	path := writeFile(t, "data.yaml", []byte(`
fields:
  - {M1: 1, D1: a}
  - D1: b
    M1: "02"
  - D1: c
    M1: ~
`))

	tbl, err := NewYAML("data", path).Open(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"M1", "D1"}, tbl.Fields())
	assert.Equal(t, []string{"a", "b", "c"}, column(t, tbl, "D1"))
	assert.Equal(t, []string{"1", "02", ""}, column(t, tbl, "M1"))
}

func TestYAMLErrors(t *testing.T) {
	tests := map[string]string{
		"empty":        ``,
		"list root":    "- a\n- b\n",
		"no fields":    "other: 1\n",
		"fields map":   "fields: {a: 1}\n",
		"nested value": "fields:\n  - D1: [1, 2]\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "bad.yaml", []byte(body))
			_, err := NewYAML("bad", path).Open(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"D1", "M1"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"a", 1}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"b", 2}))
	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Other", "A1", &[]any{"D9"}))
	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := NewXLSX("data", path, "").Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"D1", "M1"}, tbl.Fields())
	assert.Equal(t, []string{"a", "b"}, column(t, tbl, "D1"))
	assert.Equal(t, []string{"1", "2"}, column(t, tbl, "M1"))

	tbl, err = NewXLSX("data", path, "Other").Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"D9"}, tbl.Fields())

	_, err = NewXLSX("data", path, "Missing").Open(context.Background())
	assert.Error(t, err)
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE "facts" (D1 TEXT, M1 INTEGER, M2 TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO facts VALUES ('a', 1, NULL), ('b', 2, 'x')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	tbl, err := NewSQLite("data", path, "facts").Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"D1", "M1", "M2"}, tbl.Fields())
	assert.Equal(t, []string{"a", "b"}, column(t, tbl, "D1"))
	assert.Equal(t, []string{"1", "2"}, column(t, tbl, "M1"))
	assert.Equal(t, []string{"", "x"}, column(t, tbl, "M2"))

	_, err = NewSQLite("data", path, "missing").Open(context.Background())
	assert.Error(t, err)
}

func TestSQLiteMissingFileIsNotCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.db")
	_, err := NewSQLite("none", path, "facts").Open(context.Background())
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewFactory(t *testing.T) {
	cfgs := []config.SourceConfig{
		{Name: "a", Type: config.SourceCSV, Path: "a.csv"},
		{Name: "b", Type: config.SourceJSON, Path: "b.json"},
		{Name: "c", Type: config.SourceXML, Path: "c.xml"},
		{Name: "d", Type: config.SourceYAML, Path: "d.yaml"},
		{Name: "e", Type: config.SourceXLSX, Path: "e.xlsx"},
		{Name: "f", Type: config.SourceSQLite, Path: "f.db", Table: "t"},
	}
	sources, err := NewAll(cfgs)
	require.NoError(t, err)
	require.Len(t, sources, len(cfgs))
	assert.IsType(t, &CSV{}, sources[0])
	assert.IsType(t, &JSON{}, sources[1])
	assert.IsType(t, &XML{}, sources[2])
	assert.IsType(t, &YAML{}, sources[3])
	assert.IsType(t, &XLSX{}, sources[4])
	assert.IsType(t, &SQLite{}, sources[5])
	assert.Equal(t, "e", sources[4].Name())

	_, err = New(config.SourceConfig{Path: "x.parquet", Type: "parquet"})
	assert.Error(t, err)
}

func TestReadWrapsFailures(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.csv")
	_, err := Read(context.Background(), NewCSV("missing", missing, ""))
	require.Error(t, err)
	assert.True(t, tmerrors.IsSourceUnavailable(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), missing)
}
