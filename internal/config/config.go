// =============================================================================
// tabmerge - Configuration Module
// =============================================================================
//
// This module is responsible for loading the run configuration: which sources
// to read, how to build the two reports, where to write them and how to log.
//
// CONFIGURATION SOURCES (highest precedence first):
//   1. Command-line flags bound by the cmd package
//   2. Environment variables prefixed with TABMERGE_
//      (e.g. TABMERGE_REPORTS_ORDER_BY=D2)
//   3. The YAML configuration file (config.yaml by default)
//   4. Built-in defaults
//
// EXAMPLE FILE:
//   sources:
//     - path: ./input/csv_data_1.csv
//     - path: ./input/json_data.json
//     - name: legacy
//       type: csv
//       path: ./input/legacy.txt
//       encoding: Windows-1252
//   reports:
//     order_by: D1
//     group_marker: D
//   output_dir: ./output
//
// =============================================================================

package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	tmerrors "github.com/ginjaninja78/tabmerge/internal/errors"
	"github.com/ginjaninja78/tabmerge/pkg/utils"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "TABMERGE"

// Supported source types.
const (
	SourceCSV    = "csv"
	SourceJSON   = "json"
	SourceXML    = "xml"
	SourceYAML   = "yaml"
	SourceXLSX   = "xlsx"
	SourceSQLite = "sqlite"
)

// SourceTypes lists every supported source type.
var SourceTypes = []string{SourceCSV, SourceJSON, SourceXML, SourceYAML, SourceXLSX, SourceSQLite}

// Ragged row policies.
const (
	RaggedPad      = "pad"
	RaggedTruncate = "truncate"
	RaggedError    = "error"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the configuration of one run.
type Config struct {
	// Sources lists the input files in the order they are reconciled.
	// The first successfully read source decides the field order.
	Sources []SourceConfig `mapstructure:"sources" yaml:"sources"`

	// Reports holds the settings of the flat and grouped reports.
	Reports ReportsConfig `mapstructure:"reports" yaml:"reports"`

	// OutputDir is the directory the reports are written to.
	// Default: "."
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// SummaryFile is an optional path for a plain-text run summary.
	// Relative paths are resolved against OutputDir. Empty disables it.
	SummaryFile string `mapstructure:"summary_file" yaml:"summary_file"`

	// Log controls logging.
	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// =============================================================================
// SOURCE CONFIGURATION
// =============================================================================

// SourceConfig describes a single input file.
type SourceConfig struct {
	// Name identifies the source in logs and warnings.
	// Default: the base name of Path.
	Name string `mapstructure:"name" yaml:"name"`

	// Type is one of csv, json, xml, yaml, xlsx or sqlite.
	// Default: inferred from the extension of Path.
	Type string `mapstructure:"type" yaml:"type"`

	// Path is the location of the file.
	Path string `mapstructure:"path" yaml:"path"`

	// Encoding is the character set of a CSV file.
	// Common values: "UTF-8", "ISO-8859-1", "Windows-1252"
	// Default: "UTF-8"
	Encoding string `mapstructure:"encoding" yaml:"encoding"`

	// Sheet is the worksheet of an XLSX file. Default: the first sheet.
	Sheet string `mapstructure:"sheet" yaml:"sheet"`

	// Table is the table read from a SQLite database. Required for sqlite.
	Table string `mapstructure:"table" yaml:"table"`
}

// =============================================================================
// REPORT CONFIGURATION
// =============================================================================

// ReportsConfig holds the settings shared by both report builders.
type ReportsConfig struct {
	// OrderBy is the column the flat report is sorted by.
	// Default: "D1"
	OrderBy string `mapstructure:"order_by" yaml:"order_by"`

	// GroupMarker selects the dimension columns of the grouped report:
	// every field whose name contains it is a dimension.
	// Default: "D"
	GroupMarker string `mapstructure:"group_marker" yaml:"group_marker"`

	// MeasureMarker is the part of a measure header after which the
	// summed marker is inserted (M1 -> MS1).
	// Default: "M"
	MeasureMarker string `mapstructure:"measure_marker" yaml:"measure_marker"`

	// SummedMarker marks measure headers of the grouped report.
	// Default: "S"
	SummedMarker string `mapstructure:"summed_marker" yaml:"summed_marker"`

	// BasicOutput is the file name of the flat report.
	// Default: "basic_results.tsv"
	BasicOutput string `mapstructure:"basic_output" yaml:"basic_output"`

	// AdvancedOutput is the file name of the grouped report.
	// Default: "advanced_results.tsv"
	AdvancedOutput string `mapstructure:"advanced_output" yaml:"advanced_output"`

	// RaggedRows decides what happens to a source whose columns have
	// different lengths: pad, truncate or error.
	// Default: "pad"
	RaggedRows string `mapstructure:"ragged_rows" yaml:"ragged_rows"`
}

// LogConfig controls logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: "info"
	Level string `mapstructure:"level" yaml:"level"`

	// Format is console or json. Default: "console"
	Format string `mapstructure:"format" yaml:"format"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// NewViper returns a viper instance with defaults and environment overrides
// configured. The cmd package binds its flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("output_dir", ".")
	v.SetDefault("summary_file", "")
	v.SetDefault("reports.order_by", "D1")
	v.SetDefault("reports.group_marker", "D")
	v.SetDefault("reports.measure_marker", "M")
	v.SetDefault("reports.summed_marker", "S")
	v.SetDefault("reports.basic_output", "basic_results.tsv")
	v.SetDefault("reports.advanced_output", "advanced_results.tsv")
	v.SetDefault("reports.ragged_rows", RaggedPad)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	return v
}

// Load reads the configuration file at path into v and returns the
// resulting Config. When required is false a missing file is ignored and
// only defaults, environment and flags apply.
//
// The returned configuration has defaults applied but is not validated;
// callers that may still add sources call Validate themselves.
func Load(v *viper.Viper, path string, required bool) (*Config, error) {
	if path != "" {
		if utils.FileExists(path) || required {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// ApplyDefaults fills per-source defaults that depend on other fields.
func ApplyDefaults(cfg *Config) {
	for i := range cfg.Sources {
		src := &cfg.Sources[i]
		if src.Type == "" {
			src.Type = DetectSourceType(src.Path)
		}
		src.Type = strings.ToLower(src.Type)
		if src.Name == "" {
			src.Name = filepath.Base(src.Path)
		}
		if src.Type == SourceCSV && src.Encoding == "" {
			src.Encoding = "UTF-8"
		}
	}
	if cfg.Reports.RaggedRows == "" {
		cfg.Reports.RaggedRows = RaggedPad
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
}

// SourcesFromPaths builds source configurations for plain file paths,
// inferring each type from the file extension.
func SourcesFromPaths(paths []string) []SourceConfig {
	sources := make([]SourceConfig, len(paths))
	for i, p := range paths {
		sources[i] = SourceConfig{
			Name: filepath.Base(p),
			Type: DetectSourceType(p),
			Path: p,
		}
		if sources[i].Type == SourceCSV {
			sources[i].Encoding = "UTF-8"
		}
	}
	return sources
}

// DetectSourceType maps a file extension to a source type. It returns an
// empty string for unknown extensions.
func DetectSourceType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return SourceCSV
	case ".json":
		return SourceJSON
	case ".xml":
		return SourceXML
	case ".yaml", ".yml":
		return SourceYAML
	case ".xlsx", ".xlsm":
		return SourceXLSX
	case ".db", ".sqlite", ".sqlite3":
		return SourceSQLite
	default:
		return ""
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration and returns a ConfigError for the first
// problem found.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return tmerrors.NewConfigError("sources", "at least one source is required")
	}
	for i, src := range c.Sources {
		field := fmt.Sprintf("sources[%d]", i)
		if src.Path == "" {
			return tmerrors.NewConfigError(field+".path", "must not be empty")
		}
		if !slices.Contains(SourceTypes, src.Type) {
			return tmerrors.NewConfigError(field+".type",
				fmt.Sprintf("unsupported type %q for %s (want one of %s)", src.Type, src.Path, strings.Join(SourceTypes, ", ")))
		}
		if src.Type == SourceSQLite && src.Table == "" {
			return tmerrors.NewConfigError(field+".table", "required for sqlite sources")
		}
	}

	r := c.Reports
	required := map[string]string{
		"reports.order_by":        r.OrderBy,
		"reports.group_marker":    r.GroupMarker,
		"reports.summed_marker":   r.SummedMarker,
		"reports.basic_output":    r.BasicOutput,
		"reports.advanced_output": r.AdvancedOutput,
	}
	keys := make([]string, 0, len(required))
	for k := range required {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if strings.TrimSpace(required[k]) == "" {
			return tmerrors.NewConfigError(k, "must not be empty")
		}
	}
	if filepath.Clean(r.BasicOutput) == filepath.Clean(r.AdvancedOutput) {
		return tmerrors.NewConfigError("reports.advanced_output", "must differ from reports.basic_output")
	}
	switch r.RaggedRows {
	case RaggedPad, RaggedTruncate, RaggedError:
	default:
		return tmerrors.NewConfigError("reports.ragged_rows",
			fmt.Sprintf("unknown policy %q (want pad, truncate or error)", r.RaggedRows))
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return tmerrors.NewConfigError("log.format", fmt.Sprintf("unknown format %q", c.Log.Format))
	}
	return nil
}

// OutputPath returns the full path of a report destination.
func (c *Config) OutputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.OutputDir, name)
}
