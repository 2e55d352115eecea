package tsvwriter

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/ginjaninja78/tabmerge/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/xxh3"
)

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, []string{"D1", "MS1"}, []table.Row{
		{"a", int64(3)},
		{"b", int64(1234567)},
		{"tab\there", int64(-2)},
	})
	require.NoError(t, err)
	assert.Equal(t, "D1\tMS1\na\t3\nb\t1234567\n\"tab\there\"\t-2\n", buf.String())
}

func TestEncodeQuoting(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want string
	}{
		{"plain", "abc", "abc"},
		{"leading space", " a", " a"},
		{"trailing space", "a ", "a "},
		{"backslash dot", `\.`, `\.`},
		{"empty", "", ""},
		{"tab", "a\tb", "\"a\tb\""},
		{"quote", `say "hi"`, `"say ""hi"""`},
		{"newline", "a\nb", "\"a\nb\""},
		{"carriage return", "a\rb", "\"a\rb\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, []string{"D1", "M1"}, []table.Row{{tt.cell, int64(1)}}))
			assert.Equal(t, "D1\tM1\n"+tt.want+"\t1\n", buf.String())
		})
	}
}

func TestEncodeKeepsNaturalForm(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, []string{"D1", "M1"}, []table.Row{{" a", int64(1)}, {`\.`, int64(2)}}))
	assert.Equal(t, "D1\tM1\n a\t1\n\\.\t2\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, os.ErrClosed }

func TestEncodeWriteError(t *testing.T) {
	rows := make([]table.Row, 10000)
	for i := range rows {
		rows[i] = table.Row{"a", int64(i)}
	}
	err := Encode(failingWriter{}, []string{"D1", "M1"}, rows)
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestEncodeHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, []string{"D1"}, nil))
	assert.Equal(t, "D1\n", buf.String())
}

func TestWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := New(dir)

	headers := []string{"D1", "M1"}
	rows := []table.Row{{"a", "1"}, {"b", "2"}}
	require.NoError(t, w.Write(headers, rows, "basic_results.tsv"))

	data, err := os.ReadFile(filepath.Join(dir, "basic_results.tsv"))
	require.NoError(t, err)
	assert.Equal(t, "D1\tM1\na\t1\nb\t2\n", string(data))

	digest, err := Digest(headers, rows)
	require.NoError(t, err)
	assert.Equal(t, 16, len(digest))
	assert.Equal(t, xxh3.Hash(data), mustParseHex(t, digest))
}

func TestWriterPath(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "x.tsv")
	assert.Equal(t, abs, New("out").Path(abs))
	assert.Equal(t, filepath.Join("out", "x.tsv"), New("out").Path("x.tsv"))
	assert.Equal(t, "x.tsv", New("").Path("x.tsv"))
}

func TestDigestIsStable(t *testing.T) {
	rows := []table.Row{{"a", int64(1)}}
	d1, err := Digest([]string{"D1", "MS1"}, rows)
	require.NoError(t, err)
	d2, err := Digest([]string{"D1", "MS1"}, rows)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	d3, err := Digest([]string{"D1", "MS1"}, []table.Row{{"a", int64(2)}})
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}

func mustParseHex(t *testing.T, s string) uint64 {
	t.Helper()
	v, err := strconv.ParseUint(s, 16, 64)
	require.NoError(t, err)
	return v
}
