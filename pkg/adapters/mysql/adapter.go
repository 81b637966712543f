// Package mysql provides a MySQL database adapter for querydeck.
package mysql

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/querydeck/pkg/adapter"
)

// Params holds MySQL-specific configuration decoded from target.params.
type Params struct {
	// Charset sets the connection character set (default utf8mb4).
	Charset string `mapstructure:"charset"`

	// Timeout bounds dialing, e.g. "5s".
	Timeout string `mapstructure:"timeout"`

	// Location names the time zone used to parse DATETIME values.
	Location string `mapstructure:"location"`
}

// Adapter implements the adapter.Adapter interface for MySQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new MySQL adapter instance.
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
	return "mysql"
}

// Placeholder returns the positional parameter syntax (?).
func (a *Adapter) Placeholder() adapter.PlaceholderStyle {
	return adapter.PlaceholderQuestion
}

// BackslashEscapes reports true: MySQL treats a backslash inside a string
// literal as an escape unless NO_BACKSLASH_ESCAPES is set.
func (a *Adapter) BackslashEscapes() bool {
	return true
}

// QuoteIdentifier quotes an identifier with backticks.
func (a *Adapter) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Connect establishes a connection to MySQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return err
	}

	a.Logger.Debug("connecting to mysql", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := adapter.OpenDB(ctx, "mysql", dsn)
	if err != nil {
		return err
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildMySQLDSN renders the driver DSN with mysql.Config.
func buildMySQLDSN(cfg adapter.Config) (string, error) {
	var p Params
	if err := mapstructure.Decode(cfg.Params, &p); err != nil {
		return "", fmt.Errorf("invalid mysql params: %w", err)
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	mc.DBName = cfg.Database
	mc.ParseTime = true

	if p.Timeout != "" {
		d, err := time.ParseDuration(p.Timeout)
		if err != nil {
			return "", fmt.Errorf("invalid mysql timeout %q: %w", p.Timeout, err)
		}
		mc.Timeout = d
	}
	if p.Location != "" {
		loc, err := time.LoadLocation(p.Location)
		if err != nil {
			return "", fmt.Errorf("invalid mysql location %q: %w", p.Location, err)
		}
		mc.Loc = loc
	}

	charset := p.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	mc.Params = map[string]string{"charset": charset}
	for k, v := range cfg.Options {
		mc.Params[k] = v
	}

	return mc.FormatDSN(), nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
