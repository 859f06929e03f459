package quota_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"smarttask/internal/quota"
	"smarttask/internal/store"
	"smarttask/internal/testsupport"
)

func newLedger(t *testing.T, st *store.Store, limit int, opts ...func(*quota.Options)) *quota.Ledger {
	t.Helper()
	options := quota.Options{Subject: "local", FreeLimit: limit}
	for _, opt := range opts {
		opt(&options)
	}
	ledger, err := quota.NewLedger(st, options)
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}
	return ledger
}

func TestReserveCommitConsumes(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ledger := newLedger(t, st, 3)
	ctx := context.Background()

	res, err := ledger.Reserve(ctx)
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	status, err := ledger.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Reserved != 1 || status.Consumed != 0 || status.Remaining != 2 {
		t.Fatalf("unexpected status after reserve: %+v", status)
	}

	if err := res.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	status, err = ledger.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Reserved != 0 || status.Consumed != 1 || status.Remaining != 2 {
		t.Fatalf("unexpected status after commit: %+v", status)
	}
}

func TestReleaseReturnsAllowance(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ledger := newLedger(t, st, 1)
	ctx := context.Background()

	res, err := ledger.Reserve(ctx)
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if _, err := ledger.Reserve(ctx); !errors.Is(err, quota.ErrExhausted) {
		t.Fatalf("expected ErrExhausted while unit reserved, got %v", err)
	}
	if err := res.Release(ctx); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	res, err = ledger.Reserve(ctx)
	if err != nil {
		t.Fatalf("Reserve after release failed: %v", err)
	}
	if err := res.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	status, err := ledger.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Consumed != 1 || status.Remaining != 0 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestSettleIsIdempotent(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ledger := newLedger(t, st, 5)
	ctx := context.Background()

	res, err := ledger.Reserve(ctx)
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if err := res.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if err := res.Commit(ctx); err != nil {
		t.Fatalf("second Commit failed: %v", err)
	}
	if err := res.Release(ctx); err != nil {
		t.Fatalf("Release after Commit failed: %v", err)
	}

	status, err := ledger.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Consumed != 1 || status.Reserved != 0 {
		t.Fatalf("settlement not idempotent: %+v", status)
	}
}

func TestReserveNeverOvershootsUnderConcurrency(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	const limit = 5
	ledger := newLedger(t, st, limit)
	ctx := context.Background()

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < limit*4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := ledger.Reserve(ctx)
			if err != nil {
				if !errors.Is(err, quota.ErrExhausted) {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			granted.Add(1)
			if err := res.Commit(ctx); err != nil {
				t.Errorf("Commit failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := granted.Load(); got != limit {
		t.Fatalf("expected exactly %d grants, got %d", limit, got)
	}
	status, err := ledger.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Consumed != limit || status.Remaining != 0 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestPeriodRolloverResetsAllowance(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	now := time.Date(2026, time.January, 31, 23, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	ledger := newLedger(t, st, 1, func(o *quota.Options) { o.Now = clock })
	ctx := context.Background()

	res, err := ledger.Reserve(ctx)
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if err := res.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if _, err := ledger.Reserve(ctx); !errors.Is(err, quota.ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}

	mu.Lock()
	now = time.Date(2026, time.February, 1, 0, 30, 0, 0, time.UTC)
	mu.Unlock()

	if ledger.Period() != "2026-02" {
		t.Fatalf("unexpected period: %s", ledger.Period())
	}
	res, err = ledger.Reserve(ctx)
	if err != nil {
		t.Fatalf("Reserve after rollover failed: %v", err)
	}
	if err := res.Release(ctx); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if err := ledger.Prune(ctx); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	record, err := st.QuotaRecord(ctx, "local", "2026-01")
	if err != nil {
		t.Fatalf("QuotaRecord failed: %v", err)
	}
	if record.Consumed != 0 {
		t.Fatalf("expected january record pruned, got %+v", record)
	}
}

func TestPruneClearsOrphanedReservations(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	// A reservation persisted by a process that died mid-invoke: reserved
	// on disk, but no in-memory Reservation left to settle it.
	first := newLedger(t, st, 1)
	if _, err := first.Reserve(ctx); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	ledger := newLedger(t, st, 1)
	if _, err := ledger.Reserve(ctx); !errors.Is(err, quota.ErrExhausted) {
		t.Fatalf("expected ErrExhausted before sweep, got %v", err)
	}

	if err := ledger.Prune(ctx); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	status, err := ledger.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Reserved != 0 || status.Consumed != 0 {
		t.Fatalf("unexpected status after sweep: %+v", status)
	}

	res, err := ledger.Reserve(ctx)
	if err != nil {
		t.Fatalf("Reserve after sweep failed: %v", err)
	}
	if err := res.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
}

func TestUnlimitedBypassesEnforcement(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ledger := newLedger(t, st, 1, func(o *quota.Options) {
		o.Unlimited = func() bool { return true }
	})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		res, err := ledger.Reserve(ctx)
		if err != nil {
			t.Fatalf("Reserve %d failed: %v", i, err)
		}
		if err := res.Commit(ctx); err != nil {
			t.Fatalf("Commit %d failed: %v", i, err)
		}
	}

	status, err := ledger.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !status.Unlimited {
		t.Fatal("expected unlimited status")
	}
	if status.Consumed != 0 {
		t.Fatalf("bypass should consume nothing, got %d", status.Consumed)
	}
}

func TestNewLedgerValidation(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := quota.NewLedger(nil, quota.Options{Subject: "x", FreeLimit: 1}); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := quota.NewLedger(st, quota.Options{FreeLimit: 1}); err == nil {
		t.Fatal("expected error for missing subject")
	}
	if _, err := quota.NewLedger(st, quota.Options{Subject: "x"}); err == nil {
		t.Fatal("expected error for non-positive limit")
	}
}
