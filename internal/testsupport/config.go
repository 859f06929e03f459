package testsupport

import (
	"path/filepath"
	"testing"

	"smarttask/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.Socket = filepath.Join(base, "smarttaskd.sock")
	cfg.Providers.OpenAI.APIKey = "test-key"
	cfg.Scheduler.ScanInterval = 1
	cfg.Scheduler.ErrorRetryInterval = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithFreeLimit overrides the free-tier quota limit on the test config.
func WithFreeLimit(limit int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Quota.FreeLimit = limit
	}
}

// WithDefaultProvider overrides the default provider selection.
func WithDefaultProvider(kind string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Providers.Default = kind
	}
}
