// Package state keeps querydeck's own audit database: every query
// execution and every report run. It is a small SQLite file managed with
// goose migrations and is separate from the data store being queried.
package state

import (
	"context"

	"github.com/leapstack-labs/querydeck/pkg/core"
)

// ExecutionFilter narrows ListExecutions.
type ExecutionFilter struct {
	Query string // exact name; empty matches all
	RunID string
	Limit int // 0 means no limit
}

// Store is the audit store contract.
type Store interface {
	RecordExecution(ctx context.Context, e *core.Execution) error
	ListExecutions(ctx context.Context, f ExecutionFilter) ([]core.Execution, error)

	CreateRun(ctx context.Context, env string) (*core.ReportRun, error)
	CompleteRun(ctx context.Context, run *core.ReportRun) error
	ListRuns(ctx context.Context, limit int) ([]core.ReportRun, error)

	Close() error
}

var _ Store = (*SQLiteStore)(nil)
