package commands

import (
	"os"
	"time"

	"github.com/leapstack-labs/querydeck/internal/state"
	"github.com/leapstack-labs/querydeck/pkg/core"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Query  string
	RunID  string
	Limit  int
	Format string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent query executions",
		Long: `Show the audit trail of query executions, newest first.

Every execution is recorded, named or raw, successful or not. Raw SQL
executions appear under the name <raw>.`,
		Example: `  # Last 20 executions
  querydeck history

  # Executions of one query
  querydeck history --query top_products

  # Executions of one report run
  querydeck history --run 0b6c6f1e-...

  # Report runs
  querydeck history runs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.PersistentFlags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of entries (0 for all)")
	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, csv, md (default: output config)")
	cmd.Flags().StringVar(&opts.Query, "query", "", "Only executions of this query")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "Only executions of this report run")

	cmd.AddCommand(newHistoryRunsCommand(opts))
	return cmd
}

func newHistoryRunsCommand(opts *HistoryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "Show recent report runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withState(cmd, opts, func(cctx *CommandContext, store *state.SQLiteStore) (*core.ResultTable, error) {
				runs, err := store.ListRuns(cmd.Context(), opts.Limit)
				if err != nil {
					return nil, err
				}
				return runsTable(runs), nil
			})
		},
	}
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	return withState(cmd, opts, func(cctx *CommandContext, store *state.SQLiteStore) (*core.ResultTable, error) {
		execs, err := store.ListExecutions(cmd.Context(), state.ExecutionFilter{
			Query: opts.Query,
			RunID: opts.RunID,
			Limit: opts.Limit,
		})
		if err != nil {
			return nil, err
		}
		return executionsTable(execs), nil
	})
}

// withState opens the audit store, builds a table with fn and renders it.
func withState(cmd *cobra.Command, opts *HistoryOptions, fn func(*CommandContext, *state.SQLiteStore) (*core.ResultTable, error)) error {
	cctx, err := NewCommandContextWithoutStore(cmd)
	if err != nil {
		return err
	}
	if !cctx.Cfg.History {
		return errHistoryDisabled
	}
	if _, err := os.Stat(cctx.Cfg.StatePath); os.IsNotExist(err) {
		return renderResults(cmd.OutOrStdout(), core.NewResultTable(nil), formatOr(opts.Format, cctx.Cfg.OutputFormat))
	}

	store, err := openState(cmd, cctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	t, err := fn(cctx, store)
	if err != nil {
		return err
	}
	return renderResults(cmd.OutOrStdout(), t, formatOr(opts.Format, cctx.Cfg.OutputFormat))
}

func executionsTable(execs []core.Execution) *core.ResultTable {
	rows := make([]core.Row, len(execs))
	for i, e := range execs {
		rows[i] = core.Row{
			"started_at": e.StartedAt.Local().Format(time.DateTime),
			"query":      e.Query,
			"status":     string(e.Status),
			"rows":       int64(e.Rows),
			"duration":   e.Duration.String(),
			"run_id":     e.RunID,
			"error":      e.Error,
		}
	}
	return core.NewResultTable(&core.RowSet{
		Columns: []string{"started_at", "query", "status", "rows", "duration", "run_id", "error"},
		Rows:    rows,
	})
}

func runsTable(runs []core.ReportRun) *core.ResultTable {
	rows := make([]core.Row, len(runs))
	for i, r := range runs {
		completed := ""
		if r.CompletedAt != nil {
			completed = r.CompletedAt.Local().Format(time.DateTime)
		}
		rows[i] = core.Row{
			"id":           r.ID,
			"environment":  r.Environment,
			"status":       string(r.Status),
			"started_at":   r.StartedAt.Local().Format(time.DateTime),
			"completed_at": completed,
			"succeeded":    int64(r.Succeeded),
			"failed":       int64(r.Failed),
		}
	}
	return core.NewResultTable(&core.RowSet{
		Columns: []string{"id", "environment", "status", "started_at", "completed_at", "succeeded", "failed"},
		Rows:    rows,
	})
}

func formatOr(format, fallback string) string {
	if format != "" {
		return format
	}
	return fallback
}
