package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/querydeck/pkg/core"
)

// RecordExecution stores one execution. Missing ID and StartedAt are filled in.
func (s *SQLiteStore) RecordExecution(ctx context.Context, e *core.Execution) error {
	if s.db == nil {
		return errNotOpened
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions (id, run_id, query_name, raw, sql_text, row_count, duration_ms, status, error, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, nullString(e.RunID), e.Query, e.Raw, e.SQL, e.Rows,
		e.Duration.Milliseconds(), string(e.Status), nullString(e.Error), formatTime(e.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}

	s.logger.Debug("execution recorded", slog.String("id", e.ID), slog.String("query", e.Query))
	return nil
}

// ListExecutions returns executions newest first.
func (s *SQLiteStore) ListExecutions(ctx context.Context, f ExecutionFilter) ([]core.Execution, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	var (
		where []string
		args  []any
	)
	if f.Query != "" {
		where = append(where, "query_name = ?")
		args = append(args, f.Query)
	}
	if f.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, f.RunID)
	}

	q := `SELECT id, run_id, query_name, raw, sql_text, row_count, duration_ms, status, error, started_at FROM executions`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY started_at DESC, rowid DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.Execution
	for rows.Next() {
		var (
			e          core.Execution
			runID, msg sql.NullString
			durationMS int64
			status     string
			started    string
		)
		if err := rows.Scan(&e.ID, &runID, &e.Query, &e.Raw, &e.SQL, &e.Rows, &durationMS, &status, &msg, &started); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		e.RunID = runID.String
		e.Error = msg.String
		e.Status = core.ExecutionStatus(status)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		if e.StartedAt, err = parseTime(started); err != nil {
			return nil, fmt.Errorf("invalid execution timestamp %q: %w", started, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}
	return out, nil
}
