// Package logging assembles the structured slog loggers used across the
// SmartTask daemon and CLI.
//
// It centralizes level and output plumbing, standardizes attribute keys so
// every component tags log lines the same way, and provides a no-op logger
// for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components
// emit data with the same shape as the rest of the system.
package logging
