package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/constants"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
)

const taskColumns = `id, type, status, payload, dedupe_key, attempts, max_attempts, run_at, lease_until,
	last_error, created_at, updated_at, finished_at`

// EnqueueTask inserts the task unless an active task with the same type and
// dedupe key already exists. It reports whether the task was inserted.
func (db *DB) EnqueueTask(ctx context.Context, t *domain.Task) (bool, error) {
	query := `INSERT OR IGNORE INTO tasks (id, type, status, payload, dedupe_key, attempts, max_attempts,
		run_at, created_at, updated_at)
		VALUES (:id, :type, :status, :payload, :dedupe_key, :attempts, :max_attempts,
		:run_at, :created_at, :updated_at)`

	res, err := db.NamedExecContext(ctx, query, t)
	if err != nil {
		return false, fmt.Errorf("failed to enqueue %s task: %w", t.Type, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (db *DB) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	t := &domain.Task{}
	if err := db.GetContext(ctx, t, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id); err != nil {
		return nil, notFound(err, "task", id)
	}
	return t, nil
}

// GetActiveTask returns the queued or running task for the type and dedupe
// key, or nil when there is none.
func (db *DB) GetActiveTask(ctx context.Context, taskType domain.TaskType, dedupeKey string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE type = ? AND dedupe_key = ? AND status IN ('queued', 'running')
		LIMIT 1`

	t := &domain.Task{}
	err := db.GetContext(ctx, t, query, taskType, dedupeKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ClaimTask leases the oldest due task. Queued tasks whose run_at has passed
// are due, and so are running tasks whose lease expired with attempts left,
// which gives at-least-once delivery after a crash. It returns nil when
// nothing is due.
func (db *DB) ClaimTask(ctx context.Context) (*domain.Task, error) {
	var claimed *domain.Task
	err := db.RunInTx(ctx, func(tx *DB) error {
		now := tx.now()
		candidate := &domain.Task{}
		err := tx.GetContext(ctx, candidate, `SELECT `+taskColumns+` FROM tasks
			WHERE (status = 'queued' AND run_at <= ?)
			   OR (status = 'running' AND lease_until < ? AND attempts < max_attempts)
			ORDER BY run_at ASC, created_at ASC
			LIMIT 1`, now, now)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		lease := now.Add(candidate.Type.Timeout() + constants.LeaseGrace)
		_, err = tx.ExecContext(ctx, `UPDATE tasks SET status = 'running', attempts = attempts + 1,
			lease_until = ?, updated_at = ? WHERE id = ?`, lease, now, candidate.ID)
		if err != nil {
			return err
		}

		candidate.Status = domain.TaskStatusRunning
		candidate.Attempts++
		candidate.LeaseUntil = &lease
		candidate.UpdatedAt = now
		claimed = candidate
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim task: %w", err)
	}
	return claimed, nil
}

// The finishing transitions below are fenced on the attempt number, so a
// worker whose lease was taken over cannot overwrite the new owner's state.

func (db *DB) CompleteTask(ctx context.Context, id string, attempt int) error {
	now := db.now()
	res, err := db.ExecContext(ctx, `UPDATE tasks SET status = 'completed', lease_until = NULL, last_error = NULL,
		finished_at = ?, updated_at = ? WHERE id = ? AND attempts = ? AND status = 'running'`, now, now, id, attempt)
	if err != nil {
		return err
	}
	return expectRow(res, "running task", id)
}

// SnoozeTask reschedules the task without spending the attempt it was claimed with.
func (db *DB) SnoozeTask(ctx context.Context, id string, attempt int, runAt time.Time) error {
	res, err := db.ExecContext(ctx, `UPDATE tasks SET status = 'queued', attempts = attempts - 1, lease_until = NULL,
		run_at = ?, updated_at = ? WHERE id = ? AND attempts = ? AND status = 'running'`, runAt.UTC(), db.now(), id, attempt)
	if err != nil {
		return err
	}
	return expectRow(res, "running task", id)
}

func (db *DB) RetryTask(ctx context.Context, id string, attempt int, runAt time.Time, lastErr string) error {
	res, err := db.ExecContext(ctx, `UPDATE tasks SET status = 'queued', lease_until = NULL, run_at = ?, last_error = ?,
		updated_at = ? WHERE id = ? AND attempts = ? AND status = 'running'`, runAt.UTC(), lastErr, db.now(), id, attempt)
	if err != nil {
		return err
	}
	return expectRow(res, "running task", id)
}

func (db *DB) FailTask(ctx context.Context, id string, attempt int, lastErr string) error {
	now := db.now()
	res, err := db.ExecContext(ctx, `UPDATE tasks SET status = 'failed', lease_until = NULL, last_error = ?,
		finished_at = ?, updated_at = ? WHERE id = ? AND attempts = ? AND status = 'running'`, lastErr, now, now, id, attempt)
	if err != nil {
		return err
	}
	return expectRow(res, "running task", id)
}

// ListAbandonedTasks returns running tasks whose lease expired after their
// final attempt. No worker will claim them again.
func (db *DB) ListAbandonedTasks(ctx context.Context) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE status = 'running' AND lease_until < ? AND attempts >= max_attempts
		ORDER BY run_at ASC`

	var tasks []*domain.Task
	err := db.SelectContext(ctx, &tasks, query, db.now())
	return tasks, err
}

func (db *DB) ListTasks(ctx context.Context, limit int) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := db.SelectContext(ctx, &tasks, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC LIMIT ?`, limit)
	return tasks, err
}

func (db *DB) ListTasksByStatus(ctx context.Context, status domain.TaskStatus, limit int) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := db.SelectContext(ctx, &tasks, `SELECT `+taskColumns+` FROM tasks WHERE status = ? ORDER BY updated_at DESC LIMIT ?`,
		status, limit)
	return tasks, err
}

func (db *DB) ClearFinishedTasks(ctx context.Context) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE status IN ('completed', 'failed')`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type TaskStats struct {
	Total     int `db:"total" json:"total"`
	Queued    int `db:"queued" json:"queued"`
	Running   int `db:"running" json:"running"`
	Completed int `db:"completed" json:"completed"`
	Failed    int `db:"failed" json:"failed"`
}

func (db *DB) GetTaskStats(ctx context.Context) (*TaskStats, error) {
	query := `SELECT
		COUNT(*) as total,
		COALESCE(SUM(CASE WHEN status = 'queued' THEN 1 ELSE 0 END), 0) as queued,
		COALESCE(SUM(CASE WHEN status = 'running' THEN 1 ELSE 0 END), 0) as running,
		COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) as completed,
		COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) as failed
	FROM tasks`

	stats := &TaskStats{}
	err := db.GetContext(ctx, stats, query)
	return stats, err
}
