// Package license tracks the free versus pro tier. Activation persists the
// key in app_state so the tier survives restarts; the key itself is treated
// as an opaque secret and never written to logs.
package license

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"smarttask/internal/logging"
	"smarttask/internal/store"
)

const (
	stateKeyLicense = "license.key"

	keyPrefix    = "SMARTTASK-"
	minKeyLength = 16
)

// Tier names the active entitlement level.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// ErrInvalidKey is returned by Activate for keys that fail format checks.
var ErrInvalidKey = errors.New("invalid license key")

// Manager caches the current tier and serializes activation and
// deactivation against the store.
type Manager struct {
	mu     sync.RWMutex
	store  *store.Store
	logger *slog.Logger
	active bool
}

// NewManager loads any persisted license key and returns a ready manager.
func NewManager(ctx context.Context, st *store.Store, logger *slog.Logger) (*Manager, error) {
	if st == nil {
		return nil, errors.New("license: store is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	mgr := &Manager{store: st, logger: logger}

	key, err := st.GetState(ctx, stateKeyLicense)
	if err != nil {
		return nil, fmt.Errorf("load license state: %w", err)
	}
	if key != "" {
		if validateKey(key) == nil {
			mgr.active = true
		} else {
			// A stored key that no longer validates is dropped rather
			// than silently honored.
			logger.Warn("discarding malformed stored license key")
			if err := st.SetState(ctx, stateKeyLicense, ""); err != nil {
				return nil, fmt.Errorf("clear license state: %w", err)
			}
		}
	}
	return mgr, nil
}

// Tier returns the current entitlement level.
func (m *Manager) Tier() Tier {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active {
		return TierPro
	}
	return TierFree
}

// IsPro reports whether a valid license is active.
func (m *Manager) IsPro() bool {
	return m.Tier() == TierPro
}

// Activate validates and persists a license key, upgrading the tier to pro.
// Keys are case-insensitive and stored uppercased. The key is rejected
// before any store write when the format is wrong.
func (m *Manager) Activate(ctx context.Context, key string) error {
	key = strings.ToUpper(strings.TrimSpace(key))
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.SetState(ctx, stateKeyLicense, key); err != nil {
		return fmt.Errorf("persist license key: %w", err)
	}
	m.active = true
	m.logger.Info("license activated", logging.String("tier", string(TierPro)))
	return nil
}

// Deactivate clears the stored key and returns the tier to free.
func (m *Manager) Deactivate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.SetState(ctx, stateKeyLicense, ""); err != nil {
		return fmt.Errorf("clear license key: %w", err)
	}
	m.active = false
	m.logger.Info("license deactivated", logging.String("tier", string(TierFree)))
	return nil
}

func validateKey(key string) error {
	if !strings.HasPrefix(key, keyPrefix) {
		return fmt.Errorf("%w: key must start with %s", ErrInvalidKey, keyPrefix)
	}
	if len(key) < minKeyLength {
		return fmt.Errorf("%w: key too short", ErrInvalidKey)
	}
	return nil
}
