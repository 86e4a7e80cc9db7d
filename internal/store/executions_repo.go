package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ledgerport/internal/core"
)

var ErrExecutionNotFound = errors.New("task execution not found")

func (s *Store) InsertExecution(ctx context.Context, exec *core.TaskExecution) error {
	now := time.Now().UTC()
	exec.CreatedAt = now
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO task_executions (id, task_id, report_id, status, scheduled_for, started_at, completed_at, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, exec.ID, exec.TaskID, nullableString(exec.ReportID), string(exec.Status),
		exec.ScheduledFor.UTC().Format(time.RFC3339Nano),
		nullableTime(exec.StartedAt), nullableTime(exec.CompletedAt), nullableString(exec.Error),
		exec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// FinishExecution records the terminal state of a run attempt.
func (s *Store) FinishExecution(ctx context.Context, id string, status core.ExecutionStatus, completedAt time.Time, errMsg *string) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE task_executions
		SET status = ?, completed_at = ?, error = ?
		WHERE id = ?
	`, string(status), completedAt.UTC().Format(time.RFC3339Nano), nullableString(errMsg), id)
	if err != nil {
		return fmt.Errorf("finish execution: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrExecutionNotFound
	}
	return nil
}

// HasProcessingExecution reports whether a run for the task is still under
// way; the worker uses it to keep executions strictly sequential per task.
func (s *Store) HasProcessingExecution(ctx context.Context, taskID string) (bool, error) {
	var count int
	err := s.DB.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM task_executions WHERE task_id = ? AND status = ?
	`, taskID, string(core.ExecutionProcessing)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check processing execution: %w", err)
	}
	return count > 0, nil
}

func (s *Store) ListExecutions(ctx context.Context, taskID string, limit, offset int) ([]*core.TaskExecution, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, task_id, report_id, status, scheduled_for, started_at, completed_at, error, created_at
		FROM task_executions
		WHERE task_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, taskID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()
	var execs []*core.TaskExecution
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		execs = append(execs, exec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return execs, nil
}

func scanExecution(sc scanner) (*core.TaskExecution, error) {
	var (
		exec                 core.TaskExecution
		reportID             sql.NullString
		status, scheduledFor string
		startedNS, doneNS    sql.NullString
		errMsg               sql.NullString
		createdAt            string
	)
	if err := sc.Scan(&exec.ID, &exec.TaskID, &reportID, &status, &scheduledFor,
		&startedNS, &doneNS, &errMsg, &createdAt); err != nil {
		return nil, err
	}
	exec.ReportID = stringPtr(reportID)
	exec.Status = core.ExecutionStatus(status)
	exec.Error = stringPtr(errMsg)
	var err error
	if exec.ScheduledFor, err = parseTime(scheduledFor); err != nil {
		return nil, fmt.Errorf("parse execution scheduled_for: %w", err)
	}
	if exec.StartedAt, err = timePtr(startedNS); err != nil {
		return nil, fmt.Errorf("parse execution started_at: %w", err)
	}
	if exec.CompletedAt, err = timePtr(doneNS); err != nil {
		return nil, fmt.Errorf("parse execution completed_at: %w", err)
	}
	if exec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse execution created_at: %w", err)
	}
	return &exec, nil
}
