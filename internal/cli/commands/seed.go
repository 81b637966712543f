package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/leapstack-labs/querydeck/internal/connection"
	"github.com/leapstack-labs/querydeck/internal/seed"
	"github.com/spf13/cobra"
)

// DefaultSalesFile is the sample sales CSV, relative to the project root.
const DefaultSalesFile = "data/raw_sales_data.csv"

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	var opts seed.Options

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the sample sales dataset",
		Long: `Load the sample dataset into the configured target: 50 customers,
20 products and the sales records from a CSV file.

The tables must exist unless --create-tables is given, which runs the
bundled schema for the target's dialect first. A missing sales file is an
error and nothing is written.`,
		Example: `  # Load sample data into existing tables
  querydeck seed

  # Create the tables first, using a SQLite file target
  querydeck seed --create-tables

  # Use a different sales file
  querydeck seed --sales-file ./exports/sales_2024.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.SalesFile, "sales-file", "", "Sales CSV to load (default: "+DefaultSalesFile+")")
	cmd.Flags().BoolVar(&opts.CreateTables, "create-tables", false, "Create the sample tables before loading")
	return cmd
}

func runSeed(cmd *cobra.Command, opts seed.Options) error {
	cctx, err := NewCommandContextWithoutStore(cmd)
	if err != nil {
		return err
	}
	if opts.SalesFile == "" {
		opts.SalesFile = filepath.Join(cctx.Cfg.ProjectRoot, DefaultSalesFile)
	}

	conn := connection.New(cctx.Cfg.Target.ToAdapterConfig(), cctx.Logger)
	var res *seed.Result
	err = conn.Do(cmd.Context(), func(ctx context.Context, m *connection.Manager) error {
		var err error
		res, err = seed.New(m, cctx.Logger).Run(ctx, opts)
		return err
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Sample data loaded into %s: %d customers, %d products, %d sales\n",
		conn.Target(), res.Customers, res.Products, res.Sales)
	return nil
}
