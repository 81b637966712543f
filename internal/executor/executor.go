// Package executor runs catalog queries by name.
//
// Execute resolves a name through the catalog, checks parameters
// (mismatches are logged and never fatal), runs the statement through the
// connection, and shapes the rows into a ResultTable. ExecuteRaw skips the
// catalog and always logs a warning. Nothing here retries.
package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/querydeck/internal/params"
	"github.com/leapstack-labs/querydeck/pkg/core"
)

// Catalog resolves query names.
type Catalog interface {
	Lookup(name string) (core.QueryDefinition, error)
	Names() []string
}

// Runner runs bound statements. *connection.Manager implements it.
type Runner interface {
	Run(ctx context.Context, stmt string, params core.Params) (*core.RowSet, error)
}

// Recorder receives an audit record for every execution.
type Recorder interface {
	RecordExecution(ctx context.Context, e *core.Execution) error
}

// Executor composes a catalog and a runner.
type Executor struct {
	catalog  Catalog
	runner   Runner
	recorder Recorder
	logger   *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithRecorder sends every execution to r.
func WithRecorder(r Recorder) Option {
	return func(e *Executor) { e.recorder = r }
}

// New creates an executor.
func New(catalog Catalog, runner Runner, logger *slog.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Executor{catalog: catalog, runner: runner, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the named query and returns a ResultTable. A query that
// returns no rows yields an empty table, not an error.
func (e *Executor) Execute(ctx context.Context, name string, p core.Params) (*core.ResultTable, error) {
	rs, err := e.executeNamed(ctx, name, p)
	if err != nil {
		return nil, err
	}
	return core.NewResultTable(rs), nil
}

// ExecuteRows runs the named query and returns the rows unshaped.
func (e *Executor) ExecuteRows(ctx context.Context, name string, p core.Params) ([]core.Row, error) {
	rs, err := e.executeNamed(ctx, name, p)
	if err != nil {
		return nil, err
	}
	return rs.Rows, nil
}

// ExecuteRaw runs caller-supplied SQL outside the catalog.
func (e *Executor) ExecuteRaw(ctx context.Context, stmt string, p core.Params) (*core.ResultTable, error) {
	rs, err := e.executeRaw(ctx, stmt, p)
	if err != nil {
		return nil, err
	}
	return core.NewResultTable(rs), nil
}

// ExecuteRawRows is ExecuteRaw without result shaping.
func (e *Executor) ExecuteRawRows(ctx context.Context, stmt string, p core.Params) ([]core.Row, error) {
	rs, err := e.executeRaw(ctx, stmt, p)
	if err != nil {
		return nil, err
	}
	return rs.Rows, nil
}

// ListQueries returns the catalog's query names in load order.
func (e *Executor) ListQueries() []string {
	return e.catalog.Names()
}

// QueryInfo returns the definition of a named query.
func (e *Executor) QueryInfo(name string) (core.QueryDefinition, error) {
	return e.catalog.Lookup(name)
}

func (e *Executor) executeNamed(ctx context.Context, name string, p core.Params) (*core.RowSet, error) {
	def, err := e.catalog.Lookup(name)
	if err != nil {
		return nil, err
	}

	params.Validate(e.logger, name, def.Params, p)

	e.logger.Debug("executing query", slog.String("query", name), slog.Any("params", p.Keys()))
	return e.run(ctx, name, false, def.SQL, p)
}

func (e *Executor) executeRaw(ctx context.Context, stmt string, p core.Params) (*core.RowSet, error) {
	e.logger.Warn("executing raw SQL outside the catalog", slog.String("sql", stmt))
	return e.run(ctx, core.RawQueryName, true, stmt, p)
}

func (e *Executor) run(ctx context.Context, name string, raw bool, stmt string, p core.Params) (*core.RowSet, error) {
	start := time.Now()
	rs, err := e.runner.Run(ctx, stmt, p)
	elapsed := time.Since(start)

	if err != nil {
		e.logger.Error("query failed", slog.String("query", name), slog.Any("error", err))
	} else {
		e.logger.Info("query executed",
			slog.String("query", name),
			slog.Int("rows", len(rs.Rows)),
			slog.Duration("elapsed", elapsed))
	}

	e.record(ctx, &core.Execution{
		ID:        uuid.NewString(),
		RunID:     core.RunIDFromContext(ctx),
		Query:     name,
		Raw:       raw,
		SQL:       stmt,
		Rows:      rowCount(rs),
		Duration:  elapsed,
		Status:    status(err),
		Error:     errText(err),
		StartedAt: start,
	})
	return rs, err
}

// record never changes the outcome of an execution.
func (e *Executor) record(ctx context.Context, ex *core.Execution) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordExecution(ctx, ex); err != nil {
		e.logger.Warn("failed to record execution", slog.String("query", ex.Query), slog.Any("error", err))
	}
}

func rowCount(rs *core.RowSet) int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

func status(err error) core.ExecutionStatus {
	if err != nil {
		return core.ExecutionStatusFailed
	}
	return core.ExecutionStatusSuccess
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
