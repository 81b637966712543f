package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/querydeck/pkg/core"
)

// CreateRun starts a report run.
func (s *SQLiteStore) CreateRun(ctx context.Context, env string) (*core.ReportRun, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	run := &core.ReportRun{
		ID:          uuid.NewString(),
		Environment: env,
		Status:      core.RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("environment", env))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO report_runs (id, environment, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Environment, string(run.Status), formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun stores the final status and counts of run.
// CompletedAt is set to now when empty.
func (s *SQLiteStore) CompleteRun(ctx context.Context, run *core.ReportRun) error {
	if s.db == nil {
		return errNotOpened
	}
	if run.CompletedAt == nil {
		now := time.Now().UTC()
		run.CompletedAt = &now
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE report_runs SET status = ?, completed_at = ?, succeeded = ?, failed = ? WHERE id = ?`,
		string(run.Status), formatTime(*run.CompletedAt), run.Succeeded, run.Failed, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run not found: %s", run.ID)
	}
	return nil
}

// ListRuns returns report runs newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]core.ReportRun, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	q := `SELECT id, environment, status, started_at, completed_at, succeeded, failed
		FROM report_runs ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.ReportRun
	for rows.Next() {
		var (
			run       core.ReportRun
			status    string
			started   string
			completed sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Environment, &status, &started, &completed, &run.Succeeded, &run.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Status = core.RunStatus(status)
		if run.StartedAt, err = parseTime(started); err != nil {
			return nil, fmt.Errorf("invalid run timestamp %q: %w", started, err)
		}
		if completed.Valid {
			t, err := parseTime(completed.String)
			if err != nil {
				return nil, fmt.Errorf("invalid run timestamp %q: %w", completed.String, err)
			}
			run.CompletedAt = &t
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return out, nil
}
