package api_test

import (
	"testing"
	"time"

	"smarttask/internal/api"
	"smarttask/internal/orchestrator"
	"smarttask/internal/scheduler"
	"smarttask/internal/store"
)

func TestFromTaskFormatsTimestamps(t *testing.T) {
	due := time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC)
	task := &store.Task{
		ID:        7,
		Title:     "pay rent",
		DueAt:     &due,
		CreatedAt: due.Add(-48 * time.Hour),
		UpdatedAt: due.Add(-time.Hour),
	}

	dto := api.FromTask(task)
	if dto.ID != 7 || dto.Title != "pay rent" {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	if dto.DueAt != "2026-04-01T12:00:00.000Z" {
		t.Fatalf("unexpected due timestamp: %q", dto.DueAt)
	}
	if dto.CreatedAt == "" || dto.UpdatedAt == "" {
		t.Fatal("expected created/updated timestamps")
	}

	parsed, err := api.ParseDueAt(dto.DueAt)
	if err != nil {
		t.Fatalf("ParseDueAt failed: %v", err)
	}
	if !parsed.Equal(due) {
		t.Fatalf("due time did not round-trip: %s", parsed)
	}
}

func TestFromTaskHandlesNilAndMissingDue(t *testing.T) {
	if dto := api.FromTask(nil); dto.ID != 0 {
		t.Fatalf("expected zero dto for nil task, got %+v", dto)
	}
	dto := api.FromTask(&store.Task{ID: 1, Title: "no due"})
	if dto.DueAt != "" {
		t.Fatalf("expected empty due, got %q", dto.DueAt)
	}
	if parsed, err := api.ParseDueAt(""); err != nil || parsed != nil {
		t.Fatalf("expected nil for empty due, got %v, %v", parsed, err)
	}
}

func TestFromSubmitResult(t *testing.T) {
	dto := api.FromSubmitResult(&orchestrator.Result{
		CorrelationID: "abc",
		Intent:        orchestrator.IntentDraftEmail,
		Provider:      "claude",
		Content:       "Dear team,",
		Retried:       true,
	})
	if dto.Intent != "draft-email" || dto.Provider != "claude" || !dto.Retried {
		t.Fatalf("unexpected dto: %+v", dto)
	}
}

func TestFromReminderEvent(t *testing.T) {
	fired := time.Date(2026, time.April, 2, 8, 0, 0, 0, time.UTC)
	dto := api.FromReminderEvent(scheduler.ReminderEvent{
		TaskID:  3,
		Title:   "standup",
		DueAt:   fired.Add(-time.Minute),
		FiredAt: fired,
	})
	if dto.TaskID != 3 || dto.FiredAt != "2026-04-02T08:00:00.000Z" {
		t.Fatalf("unexpected dto: %+v", dto)
	}
}
