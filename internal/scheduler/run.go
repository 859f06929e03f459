package scheduler

import (
	"context"
	"errors"
	"time"

	"smarttask/internal/logging"
	"smarttask/internal/store"
)

// Start begins the background reminder scan.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(runCtx)
	return nil
}

// Stop terminates the scan loop and waits for it to exit. Subscriber
// channels are closed so readers unblock.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.closeSubscribers()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.scanOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error("reminder scan failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "reminder_scan_failed"),
				logging.String(logging.FieldErrorHint, "check database access"),
			)
			if !s.sleep(ctx, s.errorInterval) {
				return
			}
			continue
		}

		if !s.sleep(ctx, s.scanInterval) {
			return
		}
	}
}

// scanOnce fires reminders for every currently due task. The guarded
// update in the store makes firing at-most-once even if scans overlap.
func (s *Scheduler) scanOnce(ctx context.Context) error {
	now := s.now()
	due, err := s.store.DueTasks(ctx, now)
	if err != nil {
		return err
	}

	for _, task := range due {
		fired, err := s.store.MarkReminderFired(ctx, task.ID)
		if err != nil {
			return err
		}
		if !fired {
			// Completed or already fired since the query; nothing to emit.
			continue
		}
		s.emit(ctx, task, now)
	}
	return nil
}

func (s *Scheduler) emit(ctx context.Context, task *store.Task, firedAt time.Time) {
	dueAt := firedAt
	if task.DueAt != nil {
		dueAt = *task.DueAt
	}
	event := ReminderEvent{
		TaskID:  task.ID,
		Title:   task.Title,
		DueAt:   dueAt,
		FiredAt: firedAt,
	}
	s.logger.Info("reminder fired",
		logging.Int64(logging.FieldTaskID, task.ID),
		logging.Time("due_at", dueAt),
	)
	s.publish(event)

	if err := s.notifier.NotifyReminderDue(ctx, task.Title, dueAt); err != nil {
		s.logger.Warn("reminder notification failed",
			logging.Int64(logging.FieldTaskID, task.ID),
			logging.Error(err),
		)
	}
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
