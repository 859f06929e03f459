package license_test

import (
	"context"
	"errors"
	"testing"

	"smarttask/internal/license"
	"smarttask/internal/testsupport"
)

const validKey = "SMARTTASK-0123456789ABCDEF"

func TestActivateUpgradesTier(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	mgr, err := license.NewManager(ctx, st, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if mgr.Tier() != license.TierFree {
		t.Fatalf("expected free tier initially, got %s", mgr.Tier())
	}

	if err := mgr.Activate(ctx, "  "+validKey+"  "); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if !mgr.IsPro() {
		t.Fatal("expected pro tier after activation")
	}
}

func TestActivateAcceptsLowercaseKeys(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	mgr, err := license.NewManager(ctx, st, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if err := mgr.Activate(ctx, "smarttask-0123456789abcdef"); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if !mgr.IsPro() {
		t.Fatal("expected pro tier after lowercase activation")
	}

	reloaded, err := license.NewManager(ctx, st, nil)
	if err != nil {
		t.Fatalf("NewManager after restart failed: %v", err)
	}
	if !reloaded.IsPro() {
		t.Fatal("expected uppercased key to persist as valid")
	}
}

func TestActivateRejectsMalformedKeys(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	mgr, err := license.NewManager(ctx, st, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	for _, key := range []string{"", "SMARTTASK-short", "WRONGPREFIX-0123456789ABCDEF"} {
		if err := mgr.Activate(ctx, key); !errors.Is(err, license.ErrInvalidKey) {
			t.Errorf("Activate(%q): expected ErrInvalidKey, got %v", key, err)
		}
	}
	if mgr.IsPro() {
		t.Fatal("rejected keys must not upgrade the tier")
	}
}

func TestTierSurvivesRestart(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	mgr, err := license.NewManager(ctx, st, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if err := mgr.Activate(ctx, validKey); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	reloaded, err := license.NewManager(ctx, st, nil)
	if err != nil {
		t.Fatalf("NewManager after restart failed: %v", err)
	}
	if !reloaded.IsPro() {
		t.Fatal("expected pro tier to persist across restart")
	}
}

func TestDeactivateReturnsToFree(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	mgr, err := license.NewManager(ctx, st, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if err := mgr.Activate(ctx, validKey); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if err := mgr.Deactivate(ctx); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if mgr.IsPro() {
		t.Fatal("expected free tier after deactivation")
	}

	reloaded, err := license.NewManager(ctx, st, nil)
	if err != nil {
		t.Fatalf("NewManager after restart failed: %v", err)
	}
	if reloaded.IsPro() {
		t.Fatal("deactivation must persist")
	}
}

func TestMalformedStoredKeyIsDiscarded(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := st.SetState(ctx, "license.key", "garbage"); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	mgr, err := license.NewManager(ctx, st, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if mgr.IsPro() {
		t.Fatal("malformed stored key must not grant pro tier")
	}
	value, err := st.GetState(ctx, "license.key")
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if value != "" {
		t.Fatalf("expected stored key cleared, got %q", value)
	}
}
