package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		cfgFile = "config.yaml"
		rootCmd.PersistentFlags().Lookup("config").Changed = false
		dryRun = false
	})
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeInputs(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("D1,M1,Note\nb,2,x\na,1,y\n"), 0o644))
	xmlPath := filepath.Join(dir, "data.xml")
	require.NoError(t, os.WriteFile(xmlPath, []byte(
		`<root><objects><object name="M1"><value>4</value></object><object name="D1"><value>a</value></object></objects></root>`,
	), 0o644))
	return csvPath, xmlPath
}

func TestProcessCommand(t *testing.T) {
	csvPath, xmlPath := writeInputs(t)
	out := t.TempDir()

	output, err := execute(t, "process", csvPath, xmlPath, filepath.Join(filepath.Dir(csvPath), "gone.json"), "--output-dir", out)
	require.NoError(t, err, output)

	assert.Contains(t, output, "✗ gone.json")
	assert.Contains(t, output, "Sources read:    2 of 3")

	basic, err := os.ReadFile(filepath.Join(out, "basic_results.tsv"))
	require.NoError(t, err)
	assert.Equal(t, "D1\tM1\na\t1\na\t4\nb\t2\n", string(basic))

	advanced, err := os.ReadFile(filepath.Join(out, "advanced_results.tsv"))
	require.NoError(t, err)
	assert.Equal(t, "D1\tMS1\na\t5\nb\t2\n", string(advanced))
}

func TestValidateCommand(t *testing.T) {
	csvPath, xmlPath := writeInputs(t)

	output, err := execute(t, "validate", csvPath, xmlPath)
	require.NoError(t, err, output)
	assert.Contains(t, output, "data.csv: 3 field(s), 2 row(s): D1, M1, Note")
	assert.Contains(t, output, "Common fields: D1, M1")
}

func TestMissingExplicitConfig(t *testing.T) {
	_, err := execute(t, "validate", "--config", filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	output, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, output, "Version:    "+Version)
}

func TestExecuteSafelyRecoversPanic(t *testing.T) {
	boom := &cobra.Command{
		Use: "boom",
		RunE: func(cmd *cobra.Command, args []string) error {
			panic("nil map write")
		},
	}
	boom.SetArgs([]string{})

	err := executeSafely(context.Background(), boom)
	require.Error(t, err)
	assert.Equal(t, "internal error: nil map write", err.Error())
}
