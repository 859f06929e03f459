package orchestrator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"smarttask/internal/orchestrator"
	"smarttask/internal/provider"
	"smarttask/internal/quota"
	"smarttask/internal/store"
	"smarttask/internal/testsupport"
)

type fakeAdapter struct {
	kind    provider.Kind
	calls   int
	outcome []func() (string, error)
}

func (f *fakeAdapter) Kind() provider.Kind { return f.kind }

func (f *fakeAdapter) Invoke(ctx context.Context, prompt string, params provider.Params) (string, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.outcome) {
		idx = len(f.outcome) - 1
	}
	return f.outcome[idx]()
}

func succeed(content string) func() (string, error) {
	return func() (string, error) { return content, nil }
}

func fail(kind provider.FailureKind) func() (string, error) {
	return func() (string, error) { return "", provider.NewFailure(kind, "simulated %s", kind) }
}

type fixture struct {
	orch    *orchestrator.Orchestrator
	ledger  *quota.Ledger
	store   *store.Store
	adapter *fakeAdapter
}

func newFixture(t *testing.T, limit int, outcome ...func() (string, error)) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithFreeLimit(limit))
	st := testsupport.MustOpenStore(t, cfg)
	ledger, err := quota.NewLedger(st, quota.Options{Subject: cfg.Quota.Subject, FreeLimit: limit})
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}

	adapter := &fakeAdapter{kind: provider.KindOpenAI, outcome: outcome}
	orch, err := orchestrator.New(orchestrator.Options{
		Config: cfg,
		Ledger: ledger,
		Adapters: func(kind provider.Kind) (provider.Adapter, error) {
			return adapter, nil
		},
		RetryBackoff: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("orchestrator.New failed: %v", err)
	}
	return &fixture{orch: orch, ledger: ledger, store: st, adapter: adapter}
}

func (f *fixture) assertQuota(t *testing.T, consumed, reserved int) {
	t.Helper()
	status, err := f.ledger.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Consumed != consumed || status.Reserved != reserved {
		t.Fatalf("expected consumed=%d reserved=%d, got %+v", consumed, reserved, status)
	}
}

func TestParseCommandIntents(t *testing.T) {
	cases := []struct {
		raw  string
		want orchestrator.Intent
	}{
		{"Generate report on Q3 sales", orchestrator.IntentGenerateReport},
		{"create a report about churn", orchestrator.IntentGenerateReport},
		{"Draft an email to the team", orchestrator.IntentDraftEmail},
		{"write email apologizing for the delay", orchestrator.IntentDraftEmail},
		{"Analyze file contents below", orchestrator.IntentAnalyzeFile},
		{"summarize this meeting", orchestrator.IntentFreeform},
		{"   reportedly broken   ", orchestrator.IntentFreeform},
	}
	for _, tc := range cases {
		cmd := orchestrator.ParseCommand(tc.raw)
		if cmd.Intent != tc.want {
			t.Errorf("ParseCommand(%q): expected %s, got %s", tc.raw, tc.want, cmd.Intent)
		}
	}
}

func TestSubmitSuccessCommitsQuota(t *testing.T) {
	f := newFixture(t, 5, succeed("generated content"))

	result, err := f.orch.Submit(context.Background(), "generate report on sales", orchestrator.SubmitOptions{})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.Content != "generated content" {
		t.Fatalf("unexpected content: %q", result.Content)
	}
	if result.Intent != orchestrator.IntentGenerateReport {
		t.Fatalf("unexpected intent: %s", result.Intent)
	}
	if result.CorrelationID == "" {
		t.Fatal("expected a correlation id")
	}
	if result.Retried {
		t.Fatal("clean success must not be marked retried")
	}
	f.assertQuota(t, 1, 0)
}

func TestSubmitRejectsEmptyCommand(t *testing.T) {
	f := newFixture(t, 5, succeed("unused"))

	_, err := f.orch.Submit(context.Background(), "   ", orchestrator.SubmitOptions{})
	if provider.KindOf(err) != provider.FailureInvalidInput {
		t.Fatalf("expected invalid input failure, got %v", err)
	}
	if f.adapter.calls != 0 {
		t.Fatalf("expected zero adapter calls, got %d", f.adapter.calls)
	}
	f.assertQuota(t, 0, 0)
}

func TestSubmitQuotaExhaustedSkipsAdapter(t *testing.T) {
	f := newFixture(t, 1, succeed("first"))
	ctx := context.Background()

	if _, err := f.orch.Submit(ctx, "hello", orchestrator.SubmitOptions{}); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}

	_, err := f.orch.Submit(ctx, "hello again", orchestrator.SubmitOptions{})
	if provider.KindOf(err) != provider.FailureQuotaExceeded {
		t.Fatalf("expected quota exceeded failure, got %v", err)
	}
	if f.adapter.calls != 1 {
		t.Fatalf("expected one adapter call total, got %d", f.adapter.calls)
	}
	f.assertQuota(t, 1, 0)
}

func TestSubmitRetriesTransientOnce(t *testing.T) {
	f := newFixture(t, 5, fail(provider.FailureTimeout), succeed("second try"))

	result, err := f.orch.Submit(context.Background(), "hello", orchestrator.SubmitOptions{})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.Content != "second try" {
		t.Fatalf("unexpected content: %q", result.Content)
	}
	if !result.Retried {
		t.Fatal("expected result marked retried")
	}
	if f.adapter.calls != 2 {
		t.Fatalf("expected two adapter calls, got %d", f.adapter.calls)
	}
	// Only the successful attempt counts against the allowance.
	f.assertQuota(t, 1, 0)
}

func TestSubmitTransientTwiceGivesUp(t *testing.T) {
	f := newFixture(t, 5, fail(provider.FailureUnavailable))

	_, err := f.orch.Submit(context.Background(), "hello", orchestrator.SubmitOptions{})
	if provider.KindOf(err) != provider.FailureUnavailable {
		t.Fatalf("expected unavailable failure, got %v", err)
	}
	if f.adapter.calls != 2 {
		t.Fatalf("expected exactly two adapter calls, got %d", f.adapter.calls)
	}
	f.assertQuota(t, 0, 0)
}

func TestSubmitDoesNotRetryNonTransient(t *testing.T) {
	f := newFixture(t, 5, fail(provider.FailureAuth))

	_, err := f.orch.Submit(context.Background(), "hello", orchestrator.SubmitOptions{})
	if provider.KindOf(err) != provider.FailureAuth {
		t.Fatalf("expected auth failure, got %v", err)
	}
	if f.adapter.calls != 1 {
		t.Fatalf("expected one adapter call, got %d", f.adapter.calls)
	}
	f.assertQuota(t, 0, 0)
}

func TestSubmitCancelledDuringInvoke(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newFixture(t, 5, func() (string, error) {
		cancel()
		return "", context.Canceled
	})

	_, err := f.orch.Submit(ctx, "hello", orchestrator.SubmitOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.adapter.calls != 1 {
		t.Fatalf("cancellation must not retry, got %d calls", f.adapter.calls)
	}
	f.assertQuota(t, 0, 0)
}

func TestSubmitMisconfiguredProviderTouchesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Providers.OpenAI.APIKey = ""
	st := testsupport.MustOpenStore(t, cfg)
	ledger, err := quota.NewLedger(st, quota.Options{Subject: cfg.Quota.Subject, FreeLimit: cfg.Quota.FreeLimit})
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}
	orch, err := orchestrator.New(orchestrator.Options{Config: cfg, Ledger: ledger})
	if err != nil {
		t.Fatalf("orchestrator.New failed: %v", err)
	}

	_, err = orch.Submit(context.Background(), "hello", orchestrator.SubmitOptions{})
	if provider.KindOf(err) != provider.FailureMisconfigured {
		t.Fatalf("expected misconfigured failure, got %v", err)
	}
	status, err := ledger.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Consumed != 0 || status.Reserved != 0 {
		t.Fatalf("misconfiguration must not touch quota: %+v", status)
	}
}

func TestSubmitUnknownProviderOverride(t *testing.T) {
	f := newFixture(t, 5, succeed("unused"))

	_, err := f.orch.Submit(context.Background(), "hello", orchestrator.SubmitOptions{Provider: "watson"})
	if provider.KindOf(err) != provider.FailureMisconfigured {
		t.Fatalf("expected misconfigured failure, got %v", err)
	}
	if f.adapter.calls != 0 {
		t.Fatalf("expected zero adapter calls, got %d", f.adapter.calls)
	}
}
