// Package connection owns the single link between querydeck and its data store.
//
// A Manager connects lazily, binds named parameters through the driver's
// own placeholder mechanism, and releases the link on Disconnect. It holds
// one connection and is not safe for concurrent use: callers that need
// parallelism use one Manager per worker.
package connection

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/leapstack-labs/querydeck/pkg/adapter"
	"github.com/leapstack-labs/querydeck/pkg/core"
)

// Manager owns one adapter and its connection.
type Manager struct {
	cfg     core.AdapterConfig
	logger  *slog.Logger
	adapter adapter.Adapter
}

// New creates a manager for cfg. Nothing is opened until the first
// Connect, Run, Exec, or BulkInsert.
func New(cfg core.AdapterConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{cfg: cfg, logger: logger}
}

// NewWithAdapter creates a manager around an existing adapter instance.
func NewWithAdapter(a adapter.Adapter, cfg core.AdapterConfig, logger *slog.Logger) *Manager {
	m := New(cfg, logger)
	m.adapter = a
	return m
}

// Target describes the configured store without credentials.
func (m *Manager) Target() string {
	return m.cfg.String()
}

// Dialect returns the adapter's dialect name, creating the adapter if needed.
func (m *Manager) Dialect() (string, error) {
	a, err := m.ensureAdapter()
	if err != nil {
		return "", err
	}
	return a.DialectName(), nil
}

func (m *Manager) ensureAdapter() (adapter.Adapter, error) {
	if m.adapter != nil {
		return m.adapter, nil
	}
	a, err := adapter.NewAdapter(m.cfg, m.logger)
	if err != nil {
		return nil, err
	}
	m.adapter = a
	return a, nil
}

// Connect establishes the link. Calling it while connected is a no-op that
// returns the existing adapter. Failures are not retried.
func (m *Manager) Connect(ctx context.Context) (adapter.Adapter, error) {
	a, err := m.ensureAdapter()
	if err != nil {
		return nil, err
	}
	if a.IsConnected() {
		return a, nil
	}

	start := time.Now()
	if err := a.Connect(ctx, m.cfg); err != nil {
		return nil, &ConnectError{Target: m.Target(), Err: err}
	}
	m.logger.Debug("connected",
		slog.String("target", m.Target()),
		slog.Duration("elapsed", time.Since(start)))
	return a, nil
}

// IsConnected reports whether the link is open. It never connects.
func (m *Manager) IsConnected() bool {
	return m.adapter != nil && m.adapter.IsConnected()
}

// Run binds params into stmt and returns every row. It connects first if
// needed. Placeholders without a value are left in the statement for the
// store to judge.
func (m *Manager) Run(ctx context.Context, stmt string, params core.Params) (*core.RowSet, error) {
	a, err := m.Connect(ctx)
	if err != nil {
		return nil, err
	}

	b := m.bind(a, stmt, params)
	rs, err := a.Query(ctx, b.SQL, b.Args...)
	if err != nil {
		return nil, &QueryError{SQL: stmt, Err: err}
	}
	return rs, nil
}

// Exec binds params into stmt and runs it without reading rows.
func (m *Manager) Exec(ctx context.Context, stmt string, params core.Params) (int64, error) {
	a, err := m.Connect(ctx)
	if err != nil {
		return 0, err
	}

	b := m.bind(a, stmt, params)
	n, err := a.Exec(ctx, b.SQL, b.Args...)
	if err != nil {
		return 0, &QueryError{SQL: stmt, Err: err}
	}
	return n, nil
}

func (m *Manager) bind(a adapter.Adapter, stmt string, params core.Params) adapter.Bound {
	b := adapter.Bind(stmt, params, a)
	if len(b.Unbound) > 0 {
		m.logger.Debug("placeholders left unbound", slog.Any("names", b.Unbound))
	}
	return b
}

// BulkInsert writes records into table with one multi-row INSERT. The
// column set comes from the first record; a record missing a column
// inserts NULL there. Empty input is a no-op that never connects.
func (m *Manager) BulkInsert(ctx context.Context, table string, records []core.Row) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	a, err := m.Connect(ctx)
	if err != nil {
		return 0, err
	}

	stmt, args := adapter.BuildInsert(a, table, records)
	n, err := a.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, &QueryError{SQL: stmt, Err: err}
	}
	m.logger.Debug("bulk insert",
		slog.String("table", table),
		slog.Int("records", len(records)),
		slog.Int("columns", len(adapter.InsertColumns(records))))
	return n, nil
}

// Disconnect releases the link. It is safe to call when not connected.
func (m *Manager) Disconnect() error {
	if !m.IsConnected() {
		return nil
	}
	if err := m.adapter.Close(); err != nil {
		return err
	}
	m.logger.Debug("disconnected", slog.String("target", m.Target()))
	return nil
}

// Do connects, runs fn, and always disconnects afterwards, including when
// fn fails or panics. A release error is joined to fn's error.
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context, m *Manager) error) (err error) {
	if _, err := m.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if cerr := m.Disconnect(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return fn(ctx, m)
}
