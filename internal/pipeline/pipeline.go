// =============================================================================
// tabmerge - Pipeline Module
// =============================================================================
//
// This module orchestrates one run, from reading the sources to writing both
// reports.
//
// PIPELINE:
//   1. Read every source in configuration order
//   2. Normalize ragged tables according to reports.ragged_rows
//   3. Reconcile the surviving tables into the unified table
//   4. Build the basic and advanced reports concurrently
//   5. Write each report through the Sink
//   6. Optionally write a run summary
//
// FAILURE HANDLING:
//   - A source that cannot be read or normalized is skipped with a warning.
//   - An empty unified schema aborts the run before anything is written.
//   - A missing key column aborts only the report that needs it.
//   - A write failure aborts the run. Writes are atomic, so no partial
//     report is left behind.
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ginjaninja78/tabmerge/internal/config"
	"github.com/ginjaninja78/tabmerge/internal/reconcile"
	"github.com/ginjaninja78/tabmerge/internal/report"
	"github.com/ginjaninja78/tabmerge/internal/source"
	"github.com/ginjaninja78/tabmerge/internal/table"
	"github.com/ginjaninja78/tabmerge/internal/tsvwriter"
	"github.com/ginjaninja78/tabmerge/internal/validation"
	"github.com/ginjaninja78/tabmerge/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sink receives finished reports. Both reports may be written at the same
// time, always to different destinations.
type Sink interface {
	Write(headers []string, rows []table.Row, destination string) error
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// SourceOutcome describes what happened to one configured source.
type SourceOutcome struct {
	Name string
	Path string

	// Fields and Rows describe the table after normalization.
	Fields []string
	Rows   int

	// Issues lists the short columns found before normalization.
	Issues []*validation.ValidationError

	// Err is set when the source was skipped.
	Err error
}

// ReportOutcome describes one report.
type ReportOutcome struct {
	Name        string
	Destination string
	Headers     []string
	Rows        int

	// Digest is the xxh3 hash of the TSV bytes, also set on dry runs.
	Digest string

	// Written is false on dry runs and when the report failed.
	Written bool

	// CoercionErrors counts measure cells that were counted as zero or
	// that overflowed their group's sum.
	CoercionErrors int

	Err error
}

// Result is the outcome of a run.
type Result struct {
	RunID     string
	StartTime time.Time
	Duration  time.Duration
	DryRun    bool

	Sources       []SourceOutcome
	UnifiedFields []string
	UnifiedRows   int
	Reports       []ReportOutcome

	// Warnings holds a user-facing line for every recovered problem.
	Warnings []string

	// SummaryPath is the run summary file, if one was written.
	SummaryPath string
}

// Err joins the errors of all failed reports.
func (r *Result) Err() error {
	var errs []error
	for _, rep := range r.Reports {
		if rep.Err != nil {
			errs = append(errs, rep.Err)
		}
	}
	return errors.Join(errs...)
}

// HadCoercionError reports whether any measure value was counted as zero or
// clamped on overflow.
func (r *Result) HadCoercionError() bool {
	for _, rep := range r.Reports {
		if rep.CoercionErrors > 0 {
			return true
		}
	}
	return false
}

// SucceededSources returns the number of sources that were reconciled.
func (r *Result) SucceededSources() int {
	n := 0
	for _, s := range r.Sources {
		if s.Err == nil {
			n++
		}
	}
	return n
}

// Summary converts the result into the run summary format.
func (r *Result) Summary() utils.RunSummary {
	s := utils.RunSummary{
		RunID:         r.RunID,
		StartTime:     r.StartTime,
		EndTime:       r.StartTime.Add(r.Duration),
		DryRun:        r.DryRun,
		UnifiedFields: r.UnifiedFields,
		UnifiedRows:   r.UnifiedRows,
		Warnings:      r.Warnings,
	}
	for _, src := range r.Sources {
		info := utils.SourceInfo{Name: src.Name, Path: src.Path, Rows: src.Rows}
		if src.Err != nil {
			info.Error = src.Err.Error()
		}
		s.Sources = append(s.Sources, info)
	}
	for _, rep := range r.Reports {
		info := utils.ReportInfo{Name: rep.Name, Destination: rep.Destination, Rows: rep.Rows, Digest: rep.Digest}
		if rep.Err != nil {
			info.Error = rep.Err.Error()
		}
		s.Reports = append(s.Reports, info)
	}
	return s
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// Pipeline runs the sources through the reconciler and the report builders.
type Pipeline struct {
	cfg     *config.Config
	sources []source.Source
	sink    Sink
	logger  *zap.Logger
	dryRun  bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDryRun builds the reports without writing them.
func WithDryRun(dryRun bool) Option {
	return func(p *Pipeline) {
		p.dryRun = dryRun
	}
}

// New creates a Pipeline. Sources are read in the given order; the first
// readable one decides the field order of the unified table.
func New(cfg *config.Config, sources []source.Source, sink Sink, logger *zap.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		cfg:     cfg,
		sources: sources,
		sink:    sink,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline once.
//
// RETURNS:
//   - The Result, also when an error is returned, describing everything that
//     happened up to the failure.
//   - An error if the run as a whole failed: no common fields, a write
//     failure or a cancelled context. Report-level failures are reported
//     through Result.Err instead.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
		DryRun:    p.dryRun,
	}
	log := p.logger.With(zap.String("run_id", res.RunID))
	log.Info("Run started", zap.Int("sources", len(p.sources)), zap.Bool("dry_run", p.dryRun))

	defer func() {
		res.Duration = time.Since(res.StartTime)
	}()

	// =========================================================================
	// STEP 1: READ AND NORMALIZE SOURCES
	// =========================================================================

	tables := make([]*table.ColumnTable, 0, len(p.sources))
	for _, src := range p.sources {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		tbl, outcome := p.readSource(ctx, log, src)
		res.Sources = append(res.Sources, outcome)
		if outcome.Err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("skipped %v", outcome.Err))
			continue
		}
		if len(outcome.Issues) > 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("source %s was ragged and was normalized (%s): %s",
				outcome.Name, p.cfg.Reports.RaggedRows, validation.FormatErrors(outcome.Issues)))
		}
		tables = append(tables, tbl)
	}

	// =========================================================================
	// STEP 2: RECONCILE
	// =========================================================================

	unified, err := reconcile.Reconcile(tables)
	if err != nil {
		log.Error("Reconciliation failed", zap.Int("tables", len(tables)), zap.Error(err))
		return res, fmt.Errorf("reconcile %d of %d sources: %w", len(tables), len(p.sources), err)
	}
	res.UnifiedFields = unified.Fields()
	if res.UnifiedRows, err = unified.RowCount(); err != nil {
		return res, fmt.Errorf("unified table: %w", err)
	}
	log.Info("Sources reconciled",
		zap.Int("tables", len(tables)),
		zap.Strings("fields", res.UnifiedFields),
		zap.Int("rows", res.UnifiedRows))

	// =========================================================================
	// STEP 3: BUILD AND WRITE REPORTS
	// =========================================================================

	res.Reports = []ReportOutcome{
		{Name: report.NameBasic, Destination: p.cfg.Reports.BasicOutput},
		{Name: report.NameAdvanced, Destination: p.cfg.Reports.AdvancedOutput},
	}
	builders := []func() (*report.Report, error){
		func() (*report.Report, error) {
			return report.BuildFlat(unified, p.cfg.Reports.OrderBy)
		},
		func() (*report.Report, error) {
			return report.BuildGrouped(unified, report.Options{
				GroupMarker:   p.cfg.Reports.GroupMarker,
				MeasureMarker: p.cfg.Reports.MeasureMarker,
				SummedMarker:  p.cfg.Reports.SummedMarker,
			})
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, build := range builders {
		outcome := &res.Reports[i]
		g.Go(func() error {
			return p.produce(gctx, log, outcome, build)
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	for _, rep := range res.Reports {
		if rep.Err != nil {
			res.Warnings = append(res.Warnings, rep.Err.Error())
		} else if rep.CoercionErrors > 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"%s report: %d measure values were counted as 0 or overflowed their group sum; sums may be inaccurate",
				rep.Name, rep.CoercionErrors))
		}
	}

	// =========================================================================
	// STEP 4: RUN SUMMARY
	// =========================================================================

	if p.cfg.SummaryFile != "" && !p.dryRun {
		res.Duration = time.Since(res.StartTime)
		path, err := utils.WriteSummaryLog(res.Summary(), p.cfg.OutputPath(p.cfg.SummaryFile))
		if err != nil {
			log.Warn("Failed to write run summary", zap.Error(err))
			res.Warnings = append(res.Warnings, err.Error())
		} else {
			res.SummaryPath = path
		}
	}

	log.Info("Run finished",
		zap.Duration("duration", time.Since(res.StartTime)),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

// readSource reads and normalizes one source. The returned outcome carries
// the error when the source must be skipped.
func (p *Pipeline) readSource(ctx context.Context, log *zap.Logger, src source.Source) (*table.ColumnTable, SourceOutcome) {
	outcome := SourceOutcome{Name: src.Name(), Path: source.PathOf(src)}
	log = log.With(zap.String("source", outcome.Name))

	tbl, err := source.Read(ctx, src)
	if err != nil {
		log.Warn("Source unavailable, skipping", zap.Error(err))
		outcome.Err = err
		return nil, outcome
	}

	normalized, issues, err := validation.Normalize(outcome.Name, tbl, p.cfg.Reports.RaggedRows)
	outcome.Issues = issues
	if err != nil {
		log.Warn("Source rejected, skipping", zap.Error(err))
		outcome.Err = err
		return nil, outcome
	}
	if len(issues) > 0 {
		log.Warn("Ragged source normalized",
			zap.String("policy", p.cfg.Reports.RaggedRows),
			zap.String("columns", validation.FormatErrors(issues)))
	}

	outcome.Fields = normalized.Fields()
	outcome.Rows, _ = normalized.RowCount()
	log.Debug("Source read", zap.Strings("fields", outcome.Fields), zap.Int("rows", outcome.Rows))
	return normalized, outcome
}

// produce builds one report and hands it to the sink. Builder failures are
// stored on the outcome; only write failures are returned. A panic in the
// builder or the sink fails this report only.
func (p *Pipeline) produce(ctx context.Context, log *zap.Logger, outcome *ReportOutcome, build func() (*report.Report, error)) (err error) {
	log = log.With(zap.String("report", outcome.Name))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Report panicked", zap.Any("panic", r), zap.Stack("stack"))
			outcome.Err = fmt.Errorf("%s report: internal error: %v", outcome.Name, r)
			outcome.Written = false
			err = nil
		}
	}()

	rep, err := build()
	if err != nil {
		log.Error("Report aborted", zap.Error(err))
		outcome.Err = err
		return nil
	}
	outcome.Headers = rep.Headers
	outcome.Rows = len(rep.Rows)
	outcome.CoercionErrors = len(rep.Warnings)

	for _, w := range rep.Warnings {
		log.Debug("Measure value not summed exactly",
			zap.String("field", w.Field),
			zap.String("value", w.Value),
			zap.Int("row", w.Row),
			zap.Bool("overflow", w.Overflow))
	}
	if rep.HadCoercionError() {
		log.Warn("Measure values could not be summed exactly; results may be inaccurate",
			zap.Int("count", len(rep.Warnings)))
	}

	if outcome.Digest, err = tsvwriter.Digest(rep.Headers, rep.Rows); err != nil {
		outcome.Err = err
		return fmt.Errorf("%s report: %w", outcome.Name, err)
	}

	if p.dryRun {
		log.Info("Dry run, report not written", zap.Int("rows", outcome.Rows), zap.String("digest", outcome.Digest))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.sink.Write(rep.Headers, rep.Rows, outcome.Destination); err != nil {
		log.Error("Failed to write report", zap.Error(err))
		outcome.Err = err
		return fmt.Errorf("%s report: %w", outcome.Name, err)
	}
	outcome.Written = true
	log.Info("Report written",
		zap.String("destination", outcome.Destination),
		zap.Int("rows", outcome.Rows),
		zap.String("digest", outcome.Digest))
	return nil
}
