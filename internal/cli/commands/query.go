package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/querydeck/internal/params"
	"github.com/leapstack-labs/querydeck/pkg/core"
	"github.com/spf13/cobra"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Params []string
	SQL    string
	Input  string
	Format string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <name>",
		Short: "Run a named query from the catalog",
		Long: `Run one named query from the catalog and print the result.

Parameters are passed as key=value pairs. Values that look like integers,
decimals or booleans are bound with that type; wrap a value in quotes to
force text. Missing or extra parameters are logged as warnings and the
query still runs.

With --sql (or --input) the statement is executed directly, bypassing the
catalog. Raw executions are logged and recorded in the history.`,
		Example: `  # Run a query without parameters
  querydeck query monthly_sales

  # Bind parameters
  querydeck query top_products -p limit=5

  # Output as JSON
  querydeck query sales_by_city -f json

  # Raw SQL outside the catalog
  querydeck query --sql "SELECT COUNT(*) AS n FROM sales WHERE total_amount > :min" -p min=1000`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.SQL != "" || opts.Input != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.SQL, "sql", "", "Execute raw SQL instead of a catalog query")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read raw SQL from file ('-' for stdin)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, csv, md (default: output config)")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv", "md"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	p, err := params.Parse(opts.Params)
	if err != nil {
		return err
	}

	stmt, err := rawStatement(cmd, opts)
	if err != nil {
		return err
	}

	cctx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	format := opts.Format
	if format == "" {
		format = cctx.Cfg.OutputFormat
	}

	var result *core.ResultTable
	if stmt != "" {
		result, err = cctx.Executor.ExecuteRaw(cmd.Context(), stmt, p)
	} else {
		result, err = cctx.Executor.Execute(cmd.Context(), args[0], p)
	}
	if err != nil {
		return err
	}

	return renderResults(cmd.OutOrStdout(), result, format)
}

// rawStatement returns the SQL given by --sql or --input, or "" for a named query.
func rawStatement(cmd *cobra.Command, opts *QueryOptions) (string, error) {
	if opts.SQL != "" {
		return opts.SQL, nil
	}
	if opts.Input == "" {
		return "", nil
	}

	var (
		content []byte
		err     error
	)
	if opts.Input == "-" {
		content, err = io.ReadAll(cmd.InOrStdin())
	} else {
		content, err = os.ReadFile(opts.Input)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read SQL: %w", err)
	}
	stmt := strings.TrimSpace(string(content))
	if stmt == "" {
		return "", fmt.Errorf("no SQL provided in %s", opts.Input)
	}
	return stmt, nil
}
