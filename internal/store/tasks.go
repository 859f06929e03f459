package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const taskColumns = "id, title, description, due_at, completed, reminder_fired, created_at, updated_at"

// CreateTask inserts a new open task and returns the stored record.
func (s *Store) CreateTask(ctx context.Context, title, description string, dueAt *time.Time) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("task title required")
	}

	now := time.Now().UTC()
	timestamp := now.Format(timeLayout)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO tasks (title, description, due_at, completed, reminder_fired, created_at, updated_at)
         VALUES (?, ?, ?, 0, 0, ?, ?)`,
		title,
		nullableString(strings.TrimSpace(description)),
		nullableTime(dueAt),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetTask(ctx, id)
}

// GetTask fetches a task by identifier. Missing ids return ErrTaskNotFound.
func (s *Store) GetTask(ctx context.Context, id int64) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// ListTasks returns tasks matching the filter, soonest due first.
func (s *Store) ListTasks(ctx context.Context, filter TaskFilter) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	switch filter {
	case FilterOpen, "":
		query += ` WHERE completed = 0`
	case FilterCompleted:
		query += ` WHERE completed = 1`
	case FilterAll:
	default:
		return nil, fmt.Errorf("unknown task filter %q", filter)
	}
	query += ` ORDER BY due_at IS NULL, due_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// UpdateTask persists title, description, and due timestamp changes.
func (s *Store) UpdateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return errors.New("task is nil")
	}
	task.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE tasks
         SET title = ?, description = ?, due_at = ?, completed = ?, reminder_fired = ?, updated_at = ?
         WHERE id = ?`,
		task.Title,
		nullableString(task.Description),
		nullableTime(task.DueAt),
		boolToInt(task.Completed),
		boolToInt(task.ReminderFired),
		task.UpdatedAt.Format(timeLayout),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// CompleteTask marks a task completed. Completion is terminal and suppresses
// any pending reminder.
func (s *Store) CompleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE tasks SET completed = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(timeLayout),
		id,
	)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// DeleteTask removes a task permanently.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// DueTasks returns open tasks whose due timestamp has passed and whose
// reminder has not fired, oldest due first.
func (s *Store) DueTasks(ctx context.Context, now time.Time) ([]*Task, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+taskColumns+` FROM tasks
         WHERE completed = 0 AND reminder_fired = 0 AND due_at IS NOT NULL AND due_at <= ?
         ORDER BY due_at, id`,
		now.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query due tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// MarkReminderFired flips the reminder-fired flag exactly once. It reports
// whether this call performed the transition; concurrent or repeated calls
// for the same task, or a task completed/deleted in the meantime, return
// false so the caller does not emit a duplicate notification.
func (s *Store) MarkReminderFired(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE tasks SET reminder_fired = 1, updated_at = ?
         WHERE id = ? AND completed = 0 AND reminder_fired = 0`,
		time.Now().UTC().Format(timeLayout),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("mark reminder fired: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanTask(scanner interface{ Scan(dest ...any) error }) (*Task, error) {
	var (
		id            int64
		title         string
		description   sql.NullString
		dueRaw        sql.NullString
		completed     int64
		reminderFired int64
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&title,
		&description,
		&dueRaw,
		&completed,
		&reminderFired,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	task := &Task{
		ID:            id,
		Title:         title,
		Description:   description.String,
		Completed:     completed != 0,
		ReminderFired: reminderFired != 0,
	}
	if dueRaw.Valid {
		if due, err := parseTimeString(dueRaw.String); err == nil {
			task.DueAt = &due
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		task.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		task.UpdatedAt = updated
	}
	return task, nil
}
