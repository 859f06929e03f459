package store

import (
	"errors"
	"time"
)

// ErrTaskNotFound reports an operation against a task id that does not exist.
var ErrTaskNotFound = errors.New("task not found")

// Task is a persisted to-do item. A task with a due timestamp doubles as a
// reminder: the scheduler fires it once when the due time passes.
type Task struct {
	ID            int64
	Title         string
	Description   string
	DueAt         *time.Time
	Completed     bool
	ReminderFired bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Due reports whether the task's reminder precondition holds at now.
func (t *Task) Due(now time.Time) bool {
	return t != nil && !t.Completed && !t.ReminderFired && t.DueAt != nil && !t.DueAt.After(now)
}

// TaskFilter selects which tasks a listing returns.
type TaskFilter string

const (
	// FilterOpen returns tasks that are not completed.
	FilterOpen TaskFilter = "open"
	// FilterCompleted returns completed tasks.
	FilterCompleted TaskFilter = "completed"
	// FilterAll returns every task.
	FilterAll TaskFilter = "all"
)

// QuotaRecord tracks consumed and reserved request counts for one subject
// within one billing period.
type QuotaRecord struct {
	Subject   string
	Period    string
	Consumed  int
	Reserved  int
	UpdatedAt time.Time
}
