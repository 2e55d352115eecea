// =============================================================================
// tabmerge - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the whole pipeline and
// writes both reports.
//
// COMMAND USAGE:
//   tabmerge process [files...] [flags]
//
// FLAGS:
//   --order-by      : Field the basic report is sorted by
//   --group-marker  : Marker that selects the dimension fields
//   --output-dir    : Directory the reports are written to
//   --ragged-rows   : pad, truncate or error
//   --summary-file  : Write a plain-text run summary
//   --dry-run       : Build the reports without writing them
//
// EXIT STATUS:
//   Non-zero when the run fails (no common fields, write error) or when
//   either report could not be built.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/ginjaninja78/tabmerge/internal/config"
	"github.com/ginjaninja78/tabmerge/internal/pipeline"
	"github.com/ginjaninja78/tabmerge/internal/source"
	"github.com/ginjaninja78/tabmerge/internal/tsvwriter"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun builds the reports without writing any file.
var dryRun bool

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Merge the sources and write the basic and advanced reports",
	Long: `The process command reads every source, keeps the fields common to all of
them, and writes the basic (sorted) and advanced (grouped) TSV reports.

Files given as arguments replace the sources of the configuration file; their
type is taken from the extension (.csv, .json, .xml, .yaml, .xlsx).

A source that cannot be read is skipped with a warning. Measure values that
are not integers are counted as 0 and reported as a warning; sums past the
64-bit integer range are clamped and reported the same way.`,

	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	flags := processCmd.Flags()
	flags.String("order-by", "D1", "Field the basic report is sorted by")
	flags.String("group-marker", "D", "Fields whose name contains this marker are grouped on")
	flags.String("output-dir", ".", "Directory the reports are written to")
	flags.String("ragged-rows", config.RaggedPad, "Policy for sources with short columns: pad, truncate or error")
	flags.String("summary-file", "", "Write a run summary to this file (relative to the output directory)")
	flags.BoolVar(&dryRun, "dry-run", false, "Build the reports without writing them")

	v.BindPFlag("reports.order_by", flags.Lookup("order-by"))
	v.BindPFlag("reports.group_marker", flags.Lookup("group-marker"))
	v.BindPFlag("output_dir", flags.Lookup("output-dir"))
	v.BindPFlag("reports.ragged_rows", flags.Lookup("ragged-rows"))
	v.BindPFlag("summary_file", flags.Lookup("summary-file"))
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	sources, err := source.NewAll(cfg.Sources)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: RUN
	// =========================================================================

	fmt.Fprintln(out, "=== tabmerge ===")
	fmt.Fprintf(out, "Reading %d source(s)...\n", len(sources))

	p := pipeline.New(cfg, sources, tsvwriter.New(cfg.OutputDir), log, pipeline.WithDryRun(dryRun))
	res, err := p.Run(cmd.Context())
	if res != nil {
		printResult(out, cfg, res)
	}
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return res.Err()
}

// printResult writes the human-readable outcome of a run.
func printResult(out io.Writer, cfg *config.Config, res *pipeline.Result) {
	for _, s := range res.Sources {
		if s.Err != nil {
			fmt.Fprintf(out, "  ✗ %s: %v\n", s.Name, s.Err)
			continue
		}
		fmt.Fprintf(out, "  ✓ %s (%d rows)\n", s.Name, s.Rows)
	}

	if len(res.Reports) > 0 {
		fmt.Fprintf(out, "Unified schema: %d field(s), %d row(s)\n", len(res.UnifiedFields), res.UnifiedRows)
	}
	for _, r := range res.Reports {
		switch {
		case r.Err != nil:
			fmt.Fprintf(out, "  ✗ %s: %v\n", r.Name, r.Err)
		case r.Written:
			fmt.Fprintf(out, "  ✓ %s -> %s (%d rows, xxh3 %s)\n", r.Name, cfg.OutputPath(r.Destination), r.Rows, r.Digest)
		default:
			fmt.Fprintf(out, "  - %s (dry run, %d rows, xxh3 %s)\n", r.Name, r.Rows, r.Digest)
		}
	}

	if len(res.Warnings) > 0 {
		fmt.Fprintln(out, "\nWarnings:")
		for _, w := range res.Warnings {
			fmt.Fprintf(out, "  ! %s\n", w)
		}
	}
	if res.HadCoercionError() {
		fmt.Fprintln(out, "\nSome measure values were not integers or overflowed; the advanced report may be inaccurate.")
	}

	fmt.Fprintln(out, "\n=== Run Complete ===")
	fmt.Fprintf(out, "Run ID:          %s\n", res.RunID)
	fmt.Fprintf(out, "Sources read:    %d of %d\n", res.SucceededSources(), len(res.Sources))
	fmt.Fprintf(out, "Time elapsed:    %s\n", res.Duration)
	if res.SummaryPath != "" {
		fmt.Fprintf(out, "Summary:         %s\n", res.SummaryPath)
	}
}
