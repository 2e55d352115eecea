// =============================================================================
// tabmerge - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks the configuration
// and opens every source without building any report.
//
// COMMAND USAGE:
//   tabmerge validate [files...]
//
// OUTPUT:
//   One line per source with its fields and row count, followed by the
//   fields all readable sources have in common.
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"

	tmerrors "github.com/ginjaninja78/tabmerge/internal/errors"
	"github.com/ginjaninja78/tabmerge/internal/reconcile"
	"github.com/ginjaninja78/tabmerge/internal/source"
	"github.com/ginjaninja78/tabmerge/internal/table"
	"github.com/ginjaninja78/tabmerge/internal/validation"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Check the configuration and every source without writing reports",
	Long: `The validate command loads the configuration, opens every source and prints
its fields and row count. Columns of unequal length are listed. It fails if a
source cannot be opened or if the sources have no field in common.`,

	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	sources, err := source.NewAll(cfg.Sources)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Configuration OK: %d source(s)\n", len(sources))

	var (
		tables []*table.ColumnTable
		failed int
	)
	for _, src := range sources {
		tbl, err := source.Read(cmd.Context(), src)
		if err != nil {
			failed++
			fmt.Fprintf(out, "  ✗ %v\n", err)
			continue
		}
		lengths := tbl.ColumnLengths()
		rows := 0
		for _, n := range lengths {
			rows = max(rows, n)
		}
		fmt.Fprintf(out, "  ✓ %s: %d field(s), %d row(s): %s\n", src.Name(), tbl.NumFields(), rows, strings.Join(tbl.Fields(), ", "))
		if issues := validation.Check(src.Name(), tbl); len(issues) > 0 {
			fmt.Fprintf(out, "    ragged (%s): %s\n", cfg.Reports.RaggedRows, validation.FormatErrors(issues))
		}
		tables = append(tables, tbl)
	}

	common := reconcile.CommonFields(tables)
	fmt.Fprintf(out, "Common fields: %s\n", strings.Join(common, ", "))

	if failed > 0 {
		return fmt.Errorf("%d of %d sources could not be read", failed, len(sources))
	}
	if len(common) == 0 {
		return tmerrors.ErrEmptySchema
	}
	return nil
}
