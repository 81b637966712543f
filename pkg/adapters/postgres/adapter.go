// Package postgres provides a PostgreSQL database adapter for querydeck.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/leapstack-labs/querydeck/pkg/adapter"
)

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
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
	return "postgres"
}

// Placeholder returns the positional parameter syntax ($1, $2, ...).
func (a *Adapter) Placeholder() adapter.PlaceholderStyle {
	return adapter.PlaceholderDollar
}

// QuoteIdentifier quotes an identifier using pgx's sanitizer.
func (a *Adapter) QuoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := adapter.OpenDB(ctx, "pgx", buildPostgresDSN(cfg))
	if err != nil {
		return err
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a key=value PostgreSQL connection string.
func buildPostgresDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	opts := map[string]string{"sslmode": "disable"}
	for k, v := range cfg.Options {
		opts[k] = v
	}
	if cfg.Schema != "" {
		opts["search_path"] = cfg.Schema
	}

	parts := []string{
		fmt.Sprintf("host=%s", host),
		fmt.Sprintf("port=%d", port),
		fmt.Sprintf("dbname=%s", quoteDSNValue(cfg.Database)),
	}
	if cfg.Username != "" {
		parts = append(parts, fmt.Sprintf("user=%s", quoteDSNValue(cfg.Username)))
	}
	if cfg.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", quoteDSNValue(cfg.Password)))
	}

	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, quoteDSNValue(opts[k])))
	}
	return strings.Join(parts, " ")
}

// quoteDSNValue single-quotes values containing spaces or quotes.
func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
