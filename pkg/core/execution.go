package core

import (
	"context"
	"time"
)

// ExecutionStatus represents the outcome of one query execution.
type ExecutionStatus string

// Execution status values.
const (
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusFailed  ExecutionStatus = "failed"
)

// RawQueryName is recorded in place of a catalog name for raw SQL executions.
const RawQueryName = "<raw>"

// Execution is one audited query execution.
type Execution struct {
	ID        string
	RunID     string
	Query     string
	Raw       bool
	SQL       string
	Rows      int
	Duration  time.Duration
	Status    ExecutionStatus
	Error     string
	StartedAt time.Time
}

// RunStatus represents the status of a report run.
type RunStatus string

// Run status values.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
)

// ReportRun is one pass over the report suite.
type ReportRun struct {
	ID          string
	Environment string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Succeeded   int
	Failed      int
}

type runIDKey struct{}

// WithRunID attaches a report run ID to ctx so executions can be grouped.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the report run ID stored in ctx, if any.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
