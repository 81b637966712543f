// Package report runs a suite of catalog queries and turns each result into
// an export file, an optional chart and a section of a markdown digest.
//
// A failing report is logged and skipped; the remaining reports still run.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/querydeck/internal/chart"
	"github.com/leapstack-labs/querydeck/pkg/core"
)

// Executor runs a named catalog query.
type Executor interface {
	Execute(ctx context.Context, name string, p core.Params) (*core.ResultTable, error)
}

// RunStore records the lifecycle of suite runs.
type RunStore interface {
	CreateRun(ctx context.Context, env string) (*core.ReportRun, error)
	CompleteRun(ctx context.Context, run *core.ReportRun) error
}

// Options configures where a suite writes its output.
type Options struct {
	OutputDir    string
	InsightsFile string
	ChartsDir    string
	ChartFormat  string
	ExportFormat string
	Compress     bool
	Currency     string
	Title        string
	Environment  string
}

// Failure is one report that did not complete.
type Failure struct {
	Report string
	Err    error
}

// Summary describes the outcome of one suite run.
type Summary struct {
	RunID     string
	Succeeded []string
	Failed    []Failure
	Empty     []string // succeeded with zero rows
	Exports   []string
	Charts    []string
	Digest    string
	Duration  time.Duration
}

// Status derives the run status from the report outcomes.
func (s *Summary) Status() core.RunStatus {
	switch {
	case len(s.Failed) == 0:
		return core.RunStatusCompleted
	case len(s.Succeeded) == 0:
		return core.RunStatusFailed
	default:
		return core.RunStatusPartial
	}
}

// Suite runs reports against an executor.
type Suite struct {
	exec     Executor
	opts     Options
	exporter *Exporter
	charts   *chart.Renderer
	insights *Insights
	runs     RunStore
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Suite.
type Option func(*Suite)

// WithRunStore records every run in store.
func WithRunStore(store RunStore) Option {
	return func(s *Suite) { s.runs = store }
}

// NewSuite creates a suite. A nil logger discards output.
func NewSuite(exec Executor, opts Options, logger *slog.Logger, options ...Option) (*Suite, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	exporter, err := NewExporter(opts.OutputDir, opts.ExportFormat, opts.Compress)
	if err != nil {
		return nil, err
	}
	charts, err := chart.NewRenderer(opts.ChartsDir, opts.ChartFormat, logger)
	if err != nil {
		return nil, err
	}
	s := &Suite{
		exec:     exec,
		opts:     opts,
		exporter: exporter,
		charts:   charts,
		insights: NewInsights(opts.Currency),
		logger:   logger,
		now:      time.Now,
	}
	for _, o := range options {
		o(s)
	}
	return s, nil
}

// Run executes reports in order. Per-report failures are collected in the
// summary; the returned error covers only the digest, the run record and
// context cancellation.
func (s *Suite) Run(ctx context.Context, reports []core.ReportConfig) (*Summary, error) {
	start := s.now()
	summary := &Summary{}

	run := s.startRun(ctx)
	if run != nil {
		summary.RunID = run.ID
		ctx = core.WithRunID(ctx, run.ID)
	}

	s.logger.Info("starting report run", slog.Int("reports", len(reports)), slog.String("run_id", summary.RunID))

	digest := NewDigest(s.opts.Title, start)
	var runErr error
	for _, r := range reports {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		s.logger.Info("running report", slog.String("report", r.Name))
		if err := s.runOne(ctx, r, digest, summary); err != nil {
			s.logger.Error("report failed", slog.String("report", r.Name), slog.String("error", err.Error()))
			summary.Failed = append(summary.Failed, Failure{Report: r.Name, Err: err})
			continue
		}
		summary.Succeeded = append(summary.Succeeded, r.Name)
	}

	if runErr == nil && s.opts.InsightsFile != "" {
		if err := digest.WriteFile(s.opts.InsightsFile); err != nil {
			runErr = err
		} else {
			summary.Digest = s.opts.InsightsFile
			s.logger.Info("insights saved", slog.String("path", s.opts.InsightsFile))
		}
	}
	summary.Duration = s.now().Sub(start)

	if run != nil {
		run.Status = summary.Status()
		if runErr != nil {
			run.Status = core.RunStatusFailed
		}
		run.Succeeded = len(summary.Succeeded)
		run.Failed = len(summary.Failed)
		// The caller's context may already be canceled; the record still needs writing.
		if err := s.runs.CompleteRun(context.WithoutCancel(ctx), run); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("failed to record run: %w", err))
		}
	}

	s.logger.Info("report run finished",
		slog.Int("succeeded", len(summary.Succeeded)),
		slog.Int("failed", len(summary.Failed)),
		slog.Duration("duration", summary.Duration))
	return summary, runErr
}

func (s *Suite) startRun(ctx context.Context) *core.ReportRun {
	if s.runs == nil {
		return nil
	}
	run, err := s.runs.CreateRun(ctx, s.opts.Environment)
	if err != nil {
		s.logger.Warn("failed to record run start", slog.String("error", err.Error()))
		return nil
	}
	return run
}

func (s *Suite) runOne(ctx context.Context, r core.ReportConfig, digest *Digest, summary *Summary) error {
	table, err := s.exec.Execute(ctx, r.QueryName(), core.Params(r.Params))
	if err != nil {
		return err
	}
	if table.Empty() {
		s.logger.Info("report returned no rows", slog.String("report", r.Name))
		summary.Empty = append(summary.Empty, r.Name)
		return nil
	}

	path, err := s.exporter.Export(r.Name, table)
	if err != nil {
		return err
	}
	summary.Exports = append(summary.Exports, path)
	s.logger.Info("export saved", slog.String("report", r.Name), slog.String("path", path), slog.Int("rows", table.Len()))

	if r.Chart != nil {
		chartPath, err := s.charts.Render(r.Name, *r.Chart, table)
		switch {
		case err != nil:
			s.logger.Warn("could not generate visualization", slog.String("report", r.Name), slog.String("error", err.Error()))
		case chartPath != "":
			summary.Charts = append(summary.Charts, chartPath)
		}
	}

	digest.Add(r.Name, s.insights.Generate(r.Insight, table))
	return nil
}

// Select filters reports to the given names, keeping suite order.
// Unknown names are an error.
func Select(reports []core.ReportConfig, names []string) ([]core.ReportConfig, error) {
	if len(names) == 0 {
		return reports, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []core.ReportConfig
	for _, r := range reports {
		if want[r.Name] {
			out = append(out, r)
			delete(want, r.Name)
		}
	}
	if len(want) > 0 {
		for _, n := range names {
			if want[n] {
				return nil, fmt.Errorf("unknown report %q", n)
			}
		}
	}
	return out, nil
}
