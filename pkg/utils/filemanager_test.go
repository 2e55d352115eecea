package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	path := filepath.Join(dir, "report.tsv")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "D1\tM1\n")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "D1\tM1\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files remain")
}

func TestWriteFileAtomicKeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.tsv")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	boom := errors.New("boom")
	err := WriteFileAtomic(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	require.ErrorIs(t, err, boom)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileHelpers(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, FileExists(dir))
	assert.True(t, IsDir(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))

	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, EnsureDir(sub))
	assert.True(t, IsDir(sub))
	assert.NoError(t, EnsureDir(""))
}

func TestWriteSummaryLog(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	summary := RunSummary{
		RunID:     "run-1",
		StartTime: start,
		EndTime:   start.Add(1500 * time.Millisecond),
		Sources: []SourceInfo{
			{Name: "csv_data", Path: "data.csv", Rows: 3},
			{Name: "xml_data", Path: "data.xml", Error: "file not found"},
		},
		UnifiedFields: []string{"D1", "M1"},
		UnifiedRows:   3,
		Reports: []ReportInfo{
			{Name: "basic", Destination: "basic_results.tsv", Rows: 3, Digest: "00000000000000ff"},
			{Name: "advanced", Destination: "advanced_results.tsv", Error: "column missing"},
		},
		Warnings: []string{"source xml_data skipped"},
	}

	dir := t.TempDir()
	path, err := WriteSummaryLog(summary, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tabmerge_summary_run-1.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Run ID:         run-1")
	assert.Contains(t, text, "Duration:       1.5s")
	assert.Contains(t, text, "Failed Sources: 1")
	assert.Contains(t, text, "Error:  file not found")
	assert.Contains(t, text, "Digest:      00000000000000ff")
	assert.Contains(t, text, "Error:       column missing")
	assert.Contains(t, text, "source xml_data skipped")

	explicit := filepath.Join(dir, "summary.txt")
	path, err = WriteSummaryLog(summary, explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, path)
}
