// Package daemon composes the store, quota ledger, orchestrator, scheduler,
// and notifier into the long-running smarttaskd process. A flock file lock
// enforces single-instance execution; the IPC layer calls the facade
// methods defined here.
package daemon
