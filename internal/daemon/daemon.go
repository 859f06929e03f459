package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"smarttask/internal/config"
	"smarttask/internal/license"
	"smarttask/internal/logging"
	"smarttask/internal/notifications"
	"smarttask/internal/orchestrator"
	"smarttask/internal/quota"
	"smarttask/internal/scheduler"
	"smarttask/internal/store"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	ledger    *quota.Ledger
	license   *license.Manager
	orch      *orchestrator.Orchestrator
	scheduler *scheduler.Scheduler
	notifier  notifications.Service

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running         bool
	PID             int
	DatabasePath    string
	LockFilePath    string
	DefaultProvider string
	LicenseTier     license.Tier
	OpenTasks       int
	DueTasks        int
}

// New constructs a daemon with initialized components.
func New(ctx context.Context, cfg *config.Config, st *store.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	licenseMgr, err := license.NewManager(ctx, st, logging.NewComponentLogger(logger, "license"))
	if err != nil {
		return nil, fmt.Errorf("init license manager: %w", err)
	}
	ledger, err := quota.NewLedger(st, quota.Options{
		Subject:   cfg.Quota.Subject,
		FreeLimit: cfg.Quota.FreeLimit,
		Unlimited: licenseMgr.IsPro,
		Logger:    logging.NewComponentLogger(logger, "quota"),
	})
	if err != nil {
		return nil, fmt.Errorf("init quota ledger: %w", err)
	}
	notifier := notifications.NewService(cfg)
	orch, err := orchestrator.New(orchestrator.Options{
		Config:   cfg,
		Ledger:   ledger,
		Notifier: notifier,
		Logger:   logging.NewComponentLogger(logger, "orchestrator"),
	})
	if err != nil {
		return nil, fmt.Errorf("init orchestrator: %w", err)
	}
	sched, err := scheduler.New(scheduler.Options{
		Store:    st,
		Config:   cfg,
		Notifier: notifier,
		Logger:   logging.NewComponentLogger(logger, "scheduler"),
	})
	if err != nil {
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		ledger:    ledger,
		license:   licenseMgr,
		orch:      orch,
		scheduler: sched,
		notifier:  notifier,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the reminder scan.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another smarttask daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.ledger.Prune(d.ctx); err != nil {
		d.logger.Warn("quota prune failed", logging.Error(err))
	}
	if err := d.scheduler.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start scheduler: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("smarttask daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.scheduler.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("smarttask daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Submit routes one command through the orchestrator.
func (d *Daemon) Submit(ctx context.Context, raw, providerName string) (*orchestrator.Result, error) {
	return d.orch.Submit(ctx, raw, orchestrator.SubmitOptions{Provider: providerName})
}

// CreateTask persists a new task.
func (d *Daemon) CreateTask(ctx context.Context, title, description string, dueAt *time.Time) (*store.Task, error) {
	return d.scheduler.CreateTask(ctx, title, description, dueAt)
}

// GetTask fetches one task by id.
func (d *Daemon) GetTask(ctx context.Context, id int64) (*store.Task, error) {
	return d.scheduler.GetTask(ctx, id)
}

// ListTasks returns tasks matching the filter.
func (d *Daemon) ListTasks(ctx context.Context, filter scheduler.Filter) ([]*store.Task, error) {
	return d.scheduler.ListTasks(ctx, filter)
}

// UpdateTask applies field changes to an existing task.
func (d *Daemon) UpdateTask(ctx context.Context, id int64, update scheduler.TaskUpdate) (*store.Task, error) {
	return d.scheduler.UpdateTask(ctx, id, update)
}

// CompleteTask marks a task done.
func (d *Daemon) CompleteTask(ctx context.Context, id int64) error {
	return d.scheduler.CompleteTask(ctx, id)
}

// DeleteTask removes a task.
func (d *Daemon) DeleteTask(ctx context.Context, id int64) error {
	return d.scheduler.DeleteTask(ctx, id)
}

// QuotaStatus reports current-period usage.
func (d *Daemon) QuotaStatus(ctx context.Context) (quota.Status, error) {
	return d.ledger.Status(ctx)
}

// LicenseTier reports the active entitlement level.
func (d *Daemon) LicenseTier() license.Tier {
	return d.license.Tier()
}

// ActivateLicense validates and persists a license key.
func (d *Daemon) ActivateLicense(ctx context.Context, key string) error {
	return d.license.Activate(ctx, key)
}

// DeactivateLicense clears any stored key and reverts to the free tier.
func (d *Daemon) DeactivateLicense(ctx context.Context) error {
	return d.license.Deactivate(ctx)
}

// WaitReminder blocks until the next reminder fires, the wait elapses, or
// ctx is canceled. The second return is false when no event arrived.
func (d *Daemon) WaitReminder(ctx context.Context, wait time.Duration) (scheduler.ReminderEvent, bool) {
	events := d.scheduler.Subscribe()
	defer d.scheduler.Unsubscribe(events)

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case event, ok := <-events:
		return event, ok
	case <-timer.C:
		return scheduler.ReminderEvent{}, false
	case <-ctx.Done():
		return scheduler.ReminderEvent{}, false
	}
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:         d.running.Load(),
		PID:             os.Getpid(),
		DatabasePath:    d.cfg.DatabasePath(),
		LockFilePath:    d.lockPath,
		DefaultProvider: d.cfg.Providers.Default,
		LicenseTier:     d.license.Tier(),
	}
	if open, err := d.scheduler.ListTasks(ctx, scheduler.FilterOpen); err == nil {
		status.OpenTasks = len(open)
	}
	if due, err := d.scheduler.ListTasks(ctx, scheduler.FilterDue); err == nil {
		status.DueTasks = len(due)
	}
	return status
}
