package adapter

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/querydeck/pkg/core"
)

// ErrNotConnected is returned when an operation needs an open connection.
var ErrNotConnected = errors.New("database connection not established")

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec, and Query implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger
}

// OpenDB opens a handle for driverName and verifies it with a ping.
// The pool is capped at a single connection so session state set after
// connecting (DuckDB settings, SQLite pragmas) applies to every statement.
func OpenDB(ctx context.Context, driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driverName, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driverName, err)
	}
	return db, nil
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB == nil {
		return nil
	}
	if b.Logger != nil {
		b.Logger.Debug("closing database connection", slog.String("target", b.Cfg.String()))
	}
	err := b.DB.Close()
	b.DB = nil
	return err
}

// BackslashEscapes reports false: standard SQL string literals end at the
// first unpaired quote. Adapters for dialects that escape with a backslash
// override it.
func (b *BaseSQLAdapter) BackslashEscapes() bool {
	return false
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string, args ...any) (int64, error) {
	if b.DB == nil {
		return 0, ErrNotConnected
	}
	res, err := b.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute SQL: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		// Some drivers cannot report it; that is not a statement failure.
		return 0, nil
	}
	return n, nil
}

// Query executes a SQL statement and reads every row into memory.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string, args ...any) (*core.RowSet, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	rows, err := b.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return ScanRows(rows)
}

// ScanRows reads all rows into a RowSet. Byte slices are converted to
// strings so text columns from MySQL render as text. Byte slices from
// DECIMAL and NUMERIC columns become json.Number so they stay numeric.
func ScanRows(rows *sql.Rows) (*core.RowSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	decimal := make([]bool, len(columns))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			switch strings.ToUpper(ct.DatabaseTypeName()) {
			case "DECIMAL", "NUMERIC":
				decimal[i] = true
			}
		}
	}

	rs := &core.RowSet{Columns: columns, Rows: []core.Row{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(core.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				if decimal[i] {
					row[col] = json.Number(b)
				} else {
					row[col] = string(b)
				}
			} else {
				row[col] = values[i]
			}
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return rs, nil
}

// QuoteANSI quotes an identifier with double quotes, doubling embedded quotes.
func QuoteANSI(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteQualified quotes each dot-separated part of a table reference.
func QuoteQualified(table string, quote func(string) string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = quote(strings.TrimSpace(p))
	}
	return strings.Join(parts, ".")
}
