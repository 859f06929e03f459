package testsupport

import (
	"context"
	"testing"
	"time"

	"smarttask/internal/config"
	"smarttask/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewTask creates a task for tests using the provided store.
func NewTask(t testing.TB, st *store.Store, title string, dueAt *time.Time) *store.Task {
	t.Helper()

	task, err := st.CreateTask(context.Background(), title, "", dueAt)
	if err != nil {
		t.Fatalf("store.CreateTask: %v", err)
	}
	return task
}

// TimePtr returns a pointer to the supplied time, for optional due fields.
func TimePtr(value time.Time) *time.Time {
	return &value
}
