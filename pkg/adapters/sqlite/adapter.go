// Package sqlite provides a SQLite database adapter for querydeck,
// backed by the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/querydeck/pkg/adapter"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
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
	return "sqlite"
}

// Placeholder returns the positional parameter syntax (?).
func (a *Adapter) Placeholder() adapter.PlaceholderStyle {
	return adapter.PlaceholderQuestion
}

// QuoteIdentifier quotes an identifier with double quotes.
func (a *Adapter) QuoteIdentifier(name string) string {
	return adapter.QuoteANSI(name)
}

// Connect opens the database file, creating parent directories as needed.
// An empty path or ":memory:" opens an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := adapter.OpenDB(ctx, "sqlite", path)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
