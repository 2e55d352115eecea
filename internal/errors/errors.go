// Package errors defines the error taxonomy shared by the tabmerge packages.
// Callers check errors with the standard errors.Is / errors.As functions
// against the sentinels below; the typed errors carry the context needed
// for user-facing messages.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable indicates that a source could not be opened or read.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMissingColumn indicates that a configured sort or group key is absent
	// from the unified schema.
	ErrMissingColumn = errors.New("missing column")

	// ErrCoercion indicates that a measure value could not be parsed as an integer.
	ErrCoercion = errors.New("numeric coercion failed")

	// ErrEmptySchema indicates that the sources share no common fields.
	ErrEmptySchema = errors.New("no fields common to all sources")

	// ErrRaggedTable indicates that the columns of a table have different lengths.
	ErrRaggedTable = errors.New("columns have unequal lengths")

	// ErrInvalidConfig indicates an invalid configuration value.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// SourceError describes a source that could not be turned into a table.
type SourceError struct {
	Source string
	Path   string
	Err    error
}

// Error implements the error interface
func (e *SourceError) Error() string {
	if e.Path != "" && e.Path != e.Source {
		return fmt.Sprintf("source %s (%s) unavailable: %v", e.Source, e.Path, e.Err)
	}
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

// Unwrap returns the underlying cause.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// NewSourceError wraps err as a SourceError.
func NewSourceError(source, path string, err error) *SourceError {
	return &SourceError{Source: source, Path: path, Err: err}
}

// MissingColumnError is returned by a report builder whose key column is absent.
type MissingColumnError struct {
	Report string
	Column string
}

// Error implements the error interface
func (e *MissingColumnError) Error() string {
	if e.Report != "" {
		return fmt.Sprintf("%s report: column %q not found in unified schema", e.Report, e.Column)
	}
	return fmt.Sprintf("column %q not found in unified schema", e.Column)
}

// Is implements errors.Is support
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// NewMissingColumnError creates a new MissingColumnError
func NewMissingColumnError(report, column string) *MissingColumnError {
	return &MissingColumnError{Report: report, Column: column}
}

// CoercionError records a single measure cell that was replaced with zero,
// or, with Overflow set, a cell whose addition took its group's sum past the
// int64 range. Row is the zero-based row index in the unified table.
type CoercionError struct {
	Field    string
	Value    string
	Row      int
	Overflow bool
}

// Error implements the error interface
func (e *CoercionError) Error() string {
	if e.Overflow {
		return fmt.Sprintf("row %d: field %s: adding %q overflows the group sum, clamped to the int64 range", e.Row, e.Field, e.Value)
	}
	return fmt.Sprintf("row %d: field %s: cannot parse %q as an integer, counted as 0", e.Row, e.Field, e.Value)
}

// Is implements errors.Is support
func (e *CoercionError) Is(target error) bool {
	return target == ErrCoercion
}

// ConfigError represents an invalid configuration value
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError creates a new ConfigError
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// IsSourceUnavailable reports whether err is or wraps a source failure.
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// IsMissingColumn reports whether err is or wraps a missing column failure.
func IsMissingColumn(err error) bool {
	return errors.Is(err, ErrMissingColumn)
}

// IsConfigError reports whether err is or wraps a configuration failure.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
