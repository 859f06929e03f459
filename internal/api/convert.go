package api

import (
	"time"

	"smarttask/internal/orchestrator"
	"smarttask/internal/quota"
	"smarttask/internal/scheduler"
	"smarttask/internal/store"
)

// FromTask converts a stored task to its API representation.
func FromTask(task *store.Task) Task {
	if task == nil {
		return Task{}
	}
	dto := Task{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		Completed:     task.Completed,
		ReminderFired: task.ReminderFired,
	}
	if task.DueAt != nil && !task.DueAt.IsZero() {
		dto.DueAt = task.DueAt.UTC().Format(dateTimeFormat)
	}
	if !task.CreatedAt.IsZero() {
		dto.CreatedAt = task.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !task.UpdatedAt.IsZero() {
		dto.UpdatedAt = task.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromTasks converts a slice of stored tasks into API DTOs.
func FromTasks(tasks []*store.Task) []Task {
	if len(tasks) == 0 {
		return nil
	}
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, FromTask(task))
	}
	return out
}

// ParseDueAt reverses the DueAt formatting for clients that round-trip it.
func ParseDueAt(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// FromSubmitResult converts an orchestrator result to its API representation.
func FromSubmitResult(result *orchestrator.Result) SubmitResult {
	if result == nil {
		return SubmitResult{}
	}
	return SubmitResult{
		CorrelationID: result.CorrelationID,
		Intent:        string(result.Intent),
		Provider:      string(result.Provider),
		Content:       result.Content,
		Retried:       result.Retried,
	}
}

// FromQuotaStatus converts a ledger status to its API representation.
func FromQuotaStatus(status quota.Status) QuotaStatus {
	return QuotaStatus{
		Subject:   status.Subject,
		Period:    status.Period,
		Limit:     status.Limit,
		Consumed:  status.Consumed,
		Reserved:  status.Reserved,
		Remaining: status.Remaining,
		Unlimited: status.Unlimited,
	}
}

// FromReminderEvent converts a scheduler event to its API representation.
func FromReminderEvent(event scheduler.ReminderEvent) ReminderEvent {
	return ReminderEvent{
		TaskID:  event.TaskID,
		Title:   event.Title,
		DueAt:   event.DueAt.UTC().Format(dateTimeFormat),
		FiredAt: event.FiredAt.UTC().Format(dateTimeFormat),
	}
}
