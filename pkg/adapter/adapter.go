// Package adapter provides the database adapter contract for querydeck.
//
// An adapter wraps one database/sql driver and knows its dialect: how to
// quote identifiers and which positional placeholder syntax the driver
// expects. Concrete adapters live in pkg/adapters/ subdirectories and
// register themselves from init().
package adapter

import (
	"context"
	"strconv"

	"github.com/leapstack-labs/querydeck/pkg/core"
)

// Config is an alias for core.AdapterConfig.
type Config = core.AdapterConfig

// PlaceholderStyle is the positional parameter syntax a driver accepts.
type PlaceholderStyle int

const (
	// PlaceholderQuestion binds with "?" once per occurrence (MySQL, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar binds with "$1", "$2", ... (PostgreSQL, DuckDB).
	PlaceholderDollar
)

// Format returns the placeholder text for the n-th argument (1-based).
func (s PlaceholderStyle) Format(n int) string {
	if s == PlaceholderDollar {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (s PlaceholderStyle) String() string {
	if s == PlaceholderDollar {
		return "dollar"
	}
	return "question"
}

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Connect opens and verifies a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close releases the connection. Closing a closed adapter is a no-op.
	Close() error

	// IsConnected reports whether a live handle is held.
	IsConnected() bool

	// Exec runs a statement that doesn't return rows and reports rows affected.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)

	// Query runs a statement and materializes every row.
	Query(ctx context.Context, sql string, args ...any) (*core.RowSet, error)

	// DialectName returns the SQL dialect name (e.g. "mysql").
	DialectName() string

	// Placeholder returns the positional parameter syntax of the driver.
	Placeholder() PlaceholderStyle

	// QuoteIdentifier quotes a single identifier part.
	QuoteIdentifier(name string) string

	// BackslashEscapes reports whether a backslash escapes the next
	// character inside a single-quoted string literal.
	BackslashEscapes() bool
}
