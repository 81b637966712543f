// Package duckdb provides a DuckDB database adapter for querydeck.
package duckdb

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/querydeck/pkg/adapter"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "duckdb"
}

// Placeholder returns the positional parameter syntax ($1, $2, ...).
func (a *Adapter) Placeholder() adapter.PlaceholderStyle {
	return adapter.PlaceholderDollar
}

// QuoteIdentifier quotes an identifier with double quotes.
func (a *Adapter) QuoteIdentifier(name string) string {
	return adapter.QuoteANSI(name)
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" or an empty path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == ":memory:" {
		path = ""
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", cfg.Path))

	db, err := adapter.OpenDB(ctx, "duckdb", path)
	if err != nil {
		return err
	}
	a.DB = db
	a.Cfg = cfg

	if err := a.applyParams(ctx, params); err != nil {
		_ = a.Close()
		return err
	}
	return nil
}

// applyParams installs extensions and applies session settings.
func (a *Adapter) applyParams(ctx context.Context, p *Params) error {
	for _, ext := range p.Extensions {
		a.Logger.Debug("loading duckdb extension", slog.String("extension", ext))
		if _, err := a.Exec(ctx, "INSTALL "+ext); err != nil {
			return fmt.Errorf("failed to install extension %s: %w", ext, err)
		}
		if _, err := a.Exec(ctx, "LOAD "+ext); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := strings.ReplaceAll(p.Settings[k], "'", "''")
		if _, err := a.Exec(ctx, fmt.Sprintf("SET %s = '%s'", k, v)); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", k, err)
		}
	}
	return nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
