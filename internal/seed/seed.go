// Package seed loads the sample sales dataset into the configured store.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/querydeck/pkg/core"
)

// batchSize bounds the rows per INSERT so statements stay under driver
// placeholder limits.
const batchSize = 500

// Store is the part of the connection manager the seeder needs.
type Store interface {
	Dialect() (string, error)
	Exec(ctx context.Context, stmt string, params core.Params) (int64, error)
	BulkInsert(ctx context.Context, table string, records []core.Row) (int64, error)
}

// Options controls one seeding run.
type Options struct {
	SalesFile    string
	CreateTables bool
}

// Result counts the rows written per table.
type Result struct {
	Customers int64
	Products  int64
	Sales     int64
}

// Seeder writes sample data through a Store.
type Seeder struct {
	store  Store
	logger *slog.Logger
}

// New creates a seeder. A nil logger discards output.
func New(store Store, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Seeder{store: store, logger: logger}
}

// Run loads customers, products and the sales file, in that order.
// The sales file is read before anything is written; a missing file is an error.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	sales, err := s.readSales(opts.SalesFile)
	if err != nil {
		return nil, err
	}

	if opts.CreateTables {
		if err := s.createTables(ctx); err != nil {
			return nil, err
		}
	}

	res := &Result{}
	s.logger.Info("loading customers")
	if res.Customers, err = s.insert(ctx, "customers", Customers()); err != nil {
		return res, err
	}
	s.logger.Info("loading products")
	if res.Products, err = s.insert(ctx, "products", Products()); err != nil {
		return res, err
	}
	s.logger.Info("loading sales", slog.String("file", opts.SalesFile))
	if res.Sales, err = s.insert(ctx, "sales", sales); err != nil {
		return res, err
	}

	s.logger.Info("sample data loaded",
		slog.Int64("customers", res.Customers),
		slog.Int64("products", res.Products),
		slog.Int64("sales", res.Sales))
	return res, nil
}

func (s *Seeder) readSales(path string) ([]core.Row, error) {
	if path == "" {
		return nil, fmt.Errorf("sales file not configured")
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("sample data file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open sales file: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := ReadSalesCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func (s *Seeder) createTables(ctx context.Context) error {
	dialect, err := s.store.Dialect()
	if err != nil {
		return err
	}
	stmts, err := Schema(dialect)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := s.store.Exec(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to create sample tables: %w", err)
		}
	}
	s.logger.Info("sample tables created", slog.String("dialect", dialect), slog.Int("statements", len(stmts)))
	return nil
}

func (s *Seeder) insert(ctx context.Context, table string, rows []core.Row) (int64, error) {
	var total int64
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		n, err := s.store.BulkInsert(ctx, table, rows[start:end])
		if err != nil {
			return total, fmt.Errorf("failed to load %s: %w", table, err)
		}
		total += n
	}
	s.logger.Debug("rows inserted", slog.String("table", table), slog.Int64("rows", total))
	return total, nil
}
