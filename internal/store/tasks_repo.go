package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ledgerport/internal/commerce"
	"ledgerport/internal/core"
	"ledgerport/internal/exporter"
)

var ErrTaskNotFound = errors.New("scheduled task not found")

const taskColumns = `id, name, data_type, regime, format, frequency, execution_day, execution_time, cron_expr, delivery, status, last_run_at, next_run_at, created_at, updated_at`

func (s *Store) InsertTask(ctx context.Context, task *core.ScheduledTask) error {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	delivery, err := json.Marshal(task.Delivery)
	if err != nil {
		return fmt.Errorf("encode delivery config: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO scheduled_tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, task.ID, nullableString(task.Name), string(task.DataType), task.Regime, string(task.Format),
		string(task.Frequency), task.ExecutionDay, task.ExecutionTime, nullableString(task.CronExpr),
		string(delivery), string(task.Status), nullableTime(task.LastRunAt), nullableTime(task.NextRunAt),
		task.CreatedAt.Format(time.RFC3339Nano), task.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *Store) UpdateTask(ctx context.Context, task *core.ScheduledTask) error {
	task.UpdatedAt = time.Now().UTC()
	delivery, err := json.Marshal(task.Delivery)
	if err != nil {
		return fmt.Errorf("encode delivery config: %w", err)
	}
	res, err := s.DB.ExecContext(ctx, `
		UPDATE scheduled_tasks
		SET name = ?, data_type = ?, regime = ?, format = ?, frequency = ?, execution_day = ?, execution_time = ?, cron_expr = ?, delivery = ?, status = ?, last_run_at = ?, next_run_at = ?, updated_at = ?
		WHERE id = ?
	`, nullableString(task.Name), string(task.DataType), task.Regime, string(task.Format),
		string(task.Frequency), task.ExecutionDay, task.ExecutionTime, nullableString(task.CronExpr),
		string(delivery), string(task.Status), nullableTime(task.LastRunAt), nullableTime(task.NextRunAt),
		task.UpdatedAt.Format(time.RFC3339Nano), task.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task rows: %w", err)
	}
	if rows == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// DeleteTask removes the task and its execution history.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete task: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_executions WHERE task_id = ?`, id); err != nil {
		return fmt.Errorf("delete task executions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM scheduled_tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTaskNotFound
	}
	return tx.Commit()
}

func (s *Store) GetTask(ctx context.Context, id string) (*core.ScheduledTask, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM scheduled_tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

func (s *Store) ListTasks(ctx context.Context, status *core.TaskStatus) ([]*core.ScheduledTask, error) {
	var rows *sql.Rows
	var err error
	if status != nil {
		rows, err = s.DB.QueryContext(ctx, `
			SELECT `+taskColumns+` FROM scheduled_tasks WHERE status = ? ORDER BY created_at DESC
		`, string(*status))
	} else {
		rows, err = s.DB.QueryContext(ctx, `
			SELECT `+taskColumns+` FROM scheduled_tasks ORDER BY created_at DESC
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// DueTasks returns active tasks whose next run is at or before now.
func (s *Store) DueTasks(ctx context.Context, now time.Time) ([]*core.ScheduledTask, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM scheduled_tasks
		WHERE status = ? AND next_run_at IS NOT NULL AND next_run_at <= ?
		ORDER BY next_run_at ASC
	`, string(core.TaskActive), now.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("query due tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// UpdateTaskSchedule advances last_run_at/next_run_at after a run attempt.
func (s *Store) UpdateTaskSchedule(ctx context.Context, id string, lastRun, nextRun time.Time) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE scheduled_tasks
		SET last_run_at = ?, next_run_at = ?, updated_at = ?
		WHERE id = ?
	`, lastRun.UTC().Format(time.RFC3339Nano), nextRun.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("update task schedule: %w", err)
	}
	return nil
}

func collectTasks(rows *sql.Rows) ([]*core.ScheduledTask, error) {
	var tasks []*core.ScheduledTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func scanTask(sc scanner) (*core.ScheduledTask, error) {
	var (
		task                   core.ScheduledTask
		name, cronExpr         sql.NullString
		dataType, format, freq string
		status, delivery       string
		lastNS, nextNS         sql.NullString
		createdAt, updatedAt   string
	)
	if err := sc.Scan(&task.ID, &name, &dataType, &task.Regime, &format, &freq,
		&task.ExecutionDay, &task.ExecutionTime, &cronExpr, &delivery, &status,
		&lastNS, &nextNS, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	task.Name = stringPtr(name)
	task.CronExpr = stringPtr(cronExpr)
	task.DataType = commerce.DataType(dataType)
	task.Format = exporter.Format(format)
	task.Frequency = core.Frequency(freq)
	task.Status = core.TaskStatus(status)
	if err := json.Unmarshal([]byte(delivery), &task.Delivery); err != nil {
		return nil, fmt.Errorf("decode delivery config: %w", err)
	}
	var err error
	if task.LastRunAt, err = timePtr(lastNS); err != nil {
		return nil, fmt.Errorf("parse task last_run_at: %w", err)
	}
	if task.NextRunAt, err = timePtr(nextNS); err != nil {
		return nil, fmt.Errorf("parse task next_run_at: %w", err)
	}
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse task created_at: %w", err)
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse task updated_at: %w", err)
	}
	return &task, nil
}
