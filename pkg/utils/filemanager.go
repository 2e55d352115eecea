// =============================================================================
// tabmerge - File Manager Utility
// =============================================================================
//
// This module provides the filesystem helpers used by the report writer and
// the pipeline:
//   - Directory management
//   - Atomic file replacement
//   - Run summary generation
//
// ATOMIC WRITES:
//   Report files are written to a uniquely named temporary file in the same
//   directory and renamed over the destination once complete. A failed run
//   never leaves a half-written report behind; the previous report, if any,
//   stays in place.
//
// =============================================================================

package utils

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDir creates dir and its parents if they don't exist.
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// WriteFileAtomic writes the output of write to path through a temporary
// file in the same directory, then renames it into place.
//
// PARAMETERS:
//   - path: The destination file.
//   - write: Produces the file contents. If it fails, the temporary file is
//     removed and path is left untouched.
//
// RETURNS:
//   - An error if the directory cannot be created or any step fails.
func WriteFileAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			file.Close()
			os.Remove(tmpPath)
		}
	}()

	buffered := bufio.NewWriter(file)
	if err = write(buffered); err != nil {
		return err
	}
	if err = buffered.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = file.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary contains summary information about a processing run.
type RunSummary struct {
	RunID         string
	StartTime     time.Time
	EndTime       time.Time
	DryRun        bool
	Sources       []SourceInfo
	UnifiedFields []string
	UnifiedRows   int
	Reports       []ReportInfo
	Warnings      []string
}

// SourceInfo describes one configured source.
type SourceInfo struct {
	Name  string
	Path  string
	Rows  int
	Error string
}

// ReportInfo describes one generated report.
type ReportInfo struct {
	Name        string
	Destination string
	Rows        int
	Digest      string
	Error       string
}

// WriteSummaryLog writes a run summary to a text file.
//
// PARAMETERS:
//   - summary: The run summary.
//   - path: The summary file. If path is an existing directory, the file is
//     named after the run id inside it.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary RunSummary, path string) (string, error) {
	if IsDir(path) {
		path = filepath.Join(path, fmt.Sprintf("tabmerge_summary_%s.txt", summary.RunID))
	}

	var buf bytes.Buffer
	formatSummary(&buf, summary)

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(buf.Bytes())
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}
	return path, nil
}

func formatSummary(buf *bytes.Buffer, summary RunSummary) {
	const rule = "================================================================================\n"
	const thin = "--------------------------------------------------------------------------------\n"

	failed := 0
	for _, s := range summary.Sources {
		if s.Error != "" {
			failed++
		}
	}

	fmt.Fprintf(buf, "tabmerge - Run Summary\n"+rule+"\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n"+
		"  Dry Run:        %t\n\n"+
		"Statistics:\n"+
		"  Sources:        %d\n"+
		"  Failed Sources: %d\n"+
		"  Unified Fields: %d\n"+
		"  Unified Rows:   %d\n"+
		"  Warnings:       %d\n\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.DryRun,
		len(summary.Sources),
		failed,
		len(summary.UnifiedFields),
		summary.UnifiedRows,
		len(summary.Warnings))

	if len(summary.Sources) > 0 {
		buf.WriteString("Sources:\n" + thin)
		for _, s := range summary.Sources {
			fmt.Fprintf(buf, "  Name:   %s\n", s.Name)
			fmt.Fprintf(buf, "  Path:   %s\n", s.Path)
			if s.Error != "" {
				fmt.Fprintf(buf, "  Error:  %s\n\n", s.Error)
			} else {
				fmt.Fprintf(buf, "  Rows:   %d\n\n", s.Rows)
			}
		}
	}

	if len(summary.Reports) > 0 {
		buf.WriteString("Reports:\n" + thin)
		for _, r := range summary.Reports {
			fmt.Fprintf(buf, "  Report:      %s\n", r.Name)
			fmt.Fprintf(buf, "  Destination: %s\n", r.Destination)
			if r.Error != "" {
				fmt.Fprintf(buf, "  Error:       %s\n\n", r.Error)
				continue
			}
			fmt.Fprintf(buf, "  Rows:        %d\n", r.Rows)
			fmt.Fprintf(buf, "  Digest:      %s\n\n", r.Digest)
		}
	}

	if len(summary.Warnings) > 0 {
		buf.WriteString("Warnings:\n" + thin)
		for _, w := range summary.Warnings {
			fmt.Fprintf(buf, "  %s\n", w)
		}
		buf.WriteString("\n")
	}

	buf.WriteString(rule + "End of Summary\n")
}
