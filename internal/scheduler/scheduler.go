// Package scheduler owns task persistence and the background reminder
// scan. Synchronous CRUD calls go straight to the store; a polling loop
// fires reminders for due tasks at most once each, fanning events out to
// subscribers and the push notifier.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"smarttask/internal/config"
	"smarttask/internal/logging"
	"smarttask/internal/notifications"
	"smarttask/internal/store"
)

// Filter selects which tasks a listing returns.
type Filter string

const (
	FilterOpen      Filter = "open"
	FilterCompleted Filter = "completed"
	FilterDue       Filter = "due"
	FilterAll       Filter = "all"
)

// ParseFilter validates a filter name from user input. Empty means open.
func ParseFilter(value string) (Filter, error) {
	switch Filter(value) {
	case "":
		return FilterOpen, nil
	case FilterOpen, FilterCompleted, FilterDue, FilterAll:
		return Filter(value), nil
	default:
		return "", errors.New("filter must be one of open, completed, due, all")
	}
}

// Options configures a Scheduler.
type Options struct {
	Store    *store.Store
	Config   *config.Config
	Notifier notifications.Service
	Logger   *slog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Scheduler provides task CRUD and runs the reminder scan loop.
type Scheduler struct {
	store         *store.Store
	notifier      notifications.Service
	logger        *slog.Logger
	scanInterval  time.Duration
	errorInterval time.Duration
	now           func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	subsMu sync.Mutex
	subs   map[chan ReminderEvent]struct{}
}

// New validates options and builds a scheduler. Start must be called
// separately; CRUD works without the background loop.
func New(opts Options) (*Scheduler, error) {
	if opts.Store == nil {
		return nil, errors.New("scheduler: store is required")
	}
	if opts.Config == nil {
		return nil, errors.New("scheduler: config is required")
	}
	s := &Scheduler{
		store:         opts.Store,
		notifier:      opts.Notifier,
		logger:        opts.Logger,
		scanInterval:  time.Duration(opts.Config.Scheduler.ScanInterval) * time.Second,
		errorInterval: time.Duration(opts.Config.Scheduler.ErrorRetryInterval) * time.Second,
		now:           opts.Now,
		subs:          make(map[chan ReminderEvent]struct{}),
	}
	if s.notifier == nil {
		s.notifier = notifications.NewService(opts.Config)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.scanInterval <= 0 {
		s.scanInterval = 30 * time.Second
	}
	if s.errorInterval <= 0 {
		s.errorInterval = s.scanInterval
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// CreateTask persists a new task. An empty title is rejected by the store.
func (s *Scheduler) CreateTask(ctx context.Context, title, description string, dueAt *time.Time) (*store.Task, error) {
	task, err := s.store.CreateTask(ctx, title, description, dueAt)
	if err != nil {
		return nil, err
	}
	s.logger.Info("task created", logging.Int64(logging.FieldTaskID, task.ID))
	return task, nil
}

// GetTask fetches one task by id.
func (s *Scheduler) GetTask(ctx context.Context, id int64) (*store.Task, error) {
	return s.store.GetTask(ctx, id)
}

// ListTasks returns tasks matching the filter. FilterDue means open tasks
// whose due time has passed, fired or not.
func (s *Scheduler) ListTasks(ctx context.Context, filter Filter) ([]*store.Task, error) {
	switch filter {
	case FilterDue:
		tasks, err := s.store.ListTasks(ctx, store.FilterOpen)
		if err != nil {
			return nil, err
		}
		now := s.now()
		due := tasks[:0]
		for _, task := range tasks {
			if task.DueAt != nil && !task.DueAt.After(now) {
				due = append(due, task)
			}
		}
		return due, nil
	case FilterCompleted:
		return s.store.ListTasks(ctx, store.FilterCompleted)
	case FilterAll:
		return s.store.ListTasks(ctx, store.FilterAll)
	default:
		return s.store.ListTasks(ctx, store.FilterOpen)
	}
}

// TaskUpdate carries optional field changes for UpdateTask. Nil fields are
// left unchanged; ClearDue removes the due timestamp.
type TaskUpdate struct {
	Title       *string
	Description *string
	DueAt       *time.Time
	ClearDue    bool
}

// UpdateTask applies the given changes and returns the stored task.
// Changing or clearing the due timestamp re-arms the reminder, so a task
// whose reminder already fired will fire once more at the new time.
func (s *Scheduler) UpdateTask(ctx context.Context, id int64, update TaskUpdate) (*store.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, errors.New("task title required")
		}
		task.Title = title
	}
	if update.Description != nil {
		task.Description = strings.TrimSpace(*update.Description)
	}
	switch {
	case update.ClearDue:
		task.DueAt = nil
		task.ReminderFired = false
	case update.DueAt != nil:
		task.DueAt = update.DueAt
		task.ReminderFired = false
	}
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	s.logger.Info("task updated", logging.Int64(logging.FieldTaskID, id))
	return task, nil
}

// CompleteTask marks a task done. Completion also suppresses any reminder
// that has not fired yet.
func (s *Scheduler) CompleteTask(ctx context.Context, id int64) error {
	if err := s.store.CompleteTask(ctx, id); err != nil {
		return err
	}
	s.logger.Info("task completed", logging.Int64(logging.FieldTaskID, id))
	return nil
}

// DeleteTask removes a task permanently.
func (s *Scheduler) DeleteTask(ctx context.Context, id int64) error {
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.logger.Info("task deleted", logging.Int64(logging.FieldTaskID, id))
	return nil
}
