package config

import (
	"os"
	"path/filepath"
	"testing"

	tmerrors "github.com/ginjaninja78/tabmerge/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// loadValid loads a required file with a fresh viper instance and
// validates the result, the way the cmd package does.
func loadValid(t *testing.T, path string) *Config {
	t.Helper()
	cfg, err := Load(NewViper(), path, true)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
sources:
  - path: input/csv_data_1.csv
  - path: input/json_data.json
  - name: legacy
    type: CSV
    path: input/legacy.txt
    encoding: Windows-1252
  - path: input/warehouse.db
    table: facts
`)

	cfg := loadValid(t, path)

	require.Len(t, cfg.Sources, 4)
	assert.Equal(t, SourceConfig{Name: "csv_data_1.csv", Type: SourceCSV, Path: "input/csv_data_1.csv", Encoding: "UTF-8"}, cfg.Sources[0])
	assert.Equal(t, SourceJSON, cfg.Sources[1].Type)
	assert.Equal(t, "legacy", cfg.Sources[2].Name)
	assert.Equal(t, SourceCSV, cfg.Sources[2].Type)
	assert.Equal(t, "Windows-1252", cfg.Sources[2].Encoding)
	assert.Equal(t, SourceSQLite, cfg.Sources[3].Type)

	assert.Equal(t, "D1", cfg.Reports.OrderBy)
	assert.Equal(t, "D", cfg.Reports.GroupMarker)
	assert.Equal(t, "M", cfg.Reports.MeasureMarker)
	assert.Equal(t, "S", cfg.Reports.SummedMarker)
	assert.Equal(t, "basic_results.tsv", cfg.Reports.BasicOutput)
	assert.Equal(t, "advanced_results.tsv", cfg.Reports.AdvancedOutput)
	assert.Equal(t, RaggedPad, cfg.Reports.RaggedRows)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
sources:
  - path: a.csv
reports:
  order_by: D2
  ragged_rows: truncate
output_dir: out
`)
	cfg := loadValid(t, path)
	assert.Equal(t, "D2", cfg.Reports.OrderBy)
	assert.Equal(t, RaggedTruncate, cfg.Reports.RaggedRows)
	assert.Equal(t, filepath.Join("out", "basic_results.tsv"), cfg.OutputPath(cfg.Reports.BasicOutput))
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("TABMERGE_REPORTS_ORDER_BY", "D3")
	path := writeConfig(t, "sources:\n  - path: a.csv\n")

	cfg := loadValid(t, path)
	assert.Equal(t, "D3", cfg.Reports.OrderBy)
}

func TestLoadMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := Load(NewViper(), missing, true)
	assert.Error(t, err)

	cfg, err := Load(NewViper(), missing, false)
	require.NoError(t, err)
	assert.Empty(t, cfg.Sources)
	assert.Equal(t, "D1", cfg.Reports.OrderBy)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(NewViper(), "", false)
		require.NoError(t, err)
		cfg.Sources = SourcesFromPaths([]string{"a.csv"})
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"no sources", func(c *Config) { c.Sources = nil }, "sources"},
		{"unknown type", func(c *Config) { c.Sources[0].Type = "parquet" }, "sources[0].type"},
		{"empty path", func(c *Config) { c.Sources[0].Path = "" }, "sources[0].path"},
		{"sqlite without table", func(c *Config) { c.Sources[0].Type = SourceSQLite }, "sources[0].table"},
		{"empty order by", func(c *Config) { c.Reports.OrderBy = " " }, "reports.order_by"},
		{"empty group marker", func(c *Config) { c.Reports.GroupMarker = "" }, "reports.group_marker"},
		{"same outputs", func(c *Config) { c.Reports.AdvancedOutput = "./basic_results.tsv" }, "reports.advanced_output"},
		{"bad ragged policy", func(c *Config) { c.Reports.RaggedRows = "guess" }, "reports.ragged_rows"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, tmerrors.IsConfigError(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestDetectSourceType(t *testing.T) {
	tests := map[string]string{
		"a.csv":        SourceCSV,
		"dir/B.JSON":   SourceJSON,
		"c.xml":        SourceXML,
		"d.yml":        SourceYAML,
		"e.xlsx":       SourceXLSX,
		"f.sqlite":     SourceSQLite,
		"g.parquet":    "",
		"no_extension": "",
	}
	for path, want := range tests {
		assert.Equal(t, want, DetectSourceType(path), path)
	}
}

func TestOutputPathAbsolute(t *testing.T) {
	cfg := &Config{OutputDir: "out"}
	abs := filepath.Join(t.TempDir(), "x.tsv")
	assert.Equal(t, abs, cfg.OutputPath(abs))
}
