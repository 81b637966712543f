package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/leapstack-labs/querydeck/internal/catalog"
	"github.com/leapstack-labs/querydeck/internal/report"
	"github.com/leapstack-labs/querydeck/pkg/core"
	"github.com/spf13/cobra"
)

// ReportOptions holds options for the report command.
type ReportOptions struct {
	Only     []string
	Watch    bool
	Schedule string
}

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run the report suite",
		Long: `Run every configured report: execute its query, export the rows,
draw its chart and add its insight to the markdown digest.

A report that fails is logged and skipped; the suite carries on with the
next one. Without a reports section in querydeck.yaml the standard sales
analysis suite is used.

With --watch the suite reruns whenever the catalog file changes. With
--schedule it reruns on a cron schedule ("0 6 * * *", "@hourly",
"@every 30m"). Both keep running until interrupted.`,
		Example: `  # Run all reports once
  querydeck report

  # Run two reports
  querydeck report --only monthly_sales,sales_by_city

  # Rerun while editing the catalog
  querydeck report --watch

  # Every morning at six
  querydeck report --schedule "0 6 * * *"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Only, "only", nil, "Run only these reports (comma-separated)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Rerun when the catalog file changes")
	cmd.Flags().StringVar(&opts.Schedule, "schedule", "", "Rerun on a cron schedule")
	cmd.MarkFlagsMutuallyExclusive("watch", "schedule")

	return cmd
}

func runReport(cmd *cobra.Command, opts *ReportOptions) error {
	cctx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	reports, err := report.Select(cctx.Cfg.ReportSuite(), opts.Only)
	if err != nil {
		return err
	}

	var suiteOpts []report.Option
	if cctx.State != nil {
		suiteOpts = append(suiteOpts, report.WithRunStore(cctx.State))
	}
	suite, err := report.NewSuite(cctx.Executor, suiteOptions(cctx), cctx.Logger, suiteOpts...)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	runOnce := func(ctx context.Context) error {
		summary, err := suite.Run(ctx, reports)
		if summary != nil {
			printSummary(w, summary)
		}
		if err != nil {
			return err
		}
		if summary.Status() == core.RunStatusFailed {
			return fmt.Errorf("all %d reports failed", len(summary.Failed))
		}
		return nil
	}

	ctx := cmd.Context()
	switch {
	case opts.Watch:
		return watchReports(ctx, cctx.Catalog, cctx.Logger, runOnce)
	case opts.Schedule != "":
		return report.Schedule(ctx, opts.Schedule, cctx.Logger, func(ctx context.Context) {
			if err := runOnce(ctx); err != nil {
				cctx.Logger.Error("scheduled report run failed", slog.String("error", err.Error()))
			}
		})
	default:
		return runOnce(ctx)
	}
}

func suiteOptions(cctx *CommandContext) report.Options {
	cfg := cctx.Cfg
	return report.Options{
		OutputDir:    cfg.OutputDir,
		InsightsFile: cfg.InsightsFile,
		ChartsDir:    cfg.ChartsDir,
		ChartFormat:  cfg.ChartFormat,
		ExportFormat: cfg.ExportFormat,
		Compress:     cfg.Compress,
		Currency:     cfg.Currency,
		Title:        cfg.ReportTitle,
		Environment:  cfg.Environment,
	}
}

// watchReports runs the suite once, then again after every successful
// catalog reload, until ctx is done.
func watchReports(ctx context.Context, store *catalog.Store, logger *slog.Logger, run func(context.Context) error) error {
	events, err := catalog.Watch(ctx, store, logger)
	if err != nil {
		return err
	}
	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("report run failed", slog.String("error", err.Error()))
	}
	logger.Info("watching catalog for changes", slog.String("path", store.Source()))

	for ev := range events {
		if ev.Err != nil {
			// The previous catalog stays active.
			continue
		}
		if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("report run failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

func printSummary(w io.Writer, s *report.Summary) {
	if s.RunID != "" {
		_, _ = fmt.Fprintf(w, "Run %s: %s\n", s.RunID, s.Status())
	} else {
		_, _ = fmt.Fprintf(w, "Run: %s\n", s.Status())
	}
	_, _ = fmt.Fprintf(w, "Succeeded: %d", len(s.Succeeded))
	if len(s.Empty) > 0 {
		_, _ = fmt.Fprintf(w, " (%d with no rows)", len(s.Empty))
	}
	_, _ = fmt.Fprintln(w)
	if len(s.Failed) > 0 {
		_, _ = fmt.Fprintf(w, "Failed: %d\n", len(s.Failed))
		for _, f := range s.Failed {
			_, _ = fmt.Fprintf(w, "  %s: %v\n", f.Report, f.Err)
		}
	}
	_, _ = fmt.Fprintf(w, "Exports: %d, charts: %d\n", len(s.Exports), len(s.Charts))
	if s.Digest != "" {
		_, _ = fmt.Fprintf(w, "Insights: %s\n", s.Digest)
	}
	_, _ = fmt.Fprintf(w, "Completed in %s\n", s.Duration.Round(time.Millisecond))
}
