// Package store persists tasks, quota records, and application state in
// SQLite.
//
// The Store manages the database connection, schema migrations, task CRUD,
// the due-reminder scan, and the quota counters the ledger operates on.
// SQLite serializes writers, so a single Store shared between the scheduler
// and the IPC surface gives the single-writer-per-record discipline the
// reminder-fired transition depends on.
//
// Treat this package as the single source of truth for persistence
// semantics; schema changes get a new file under migrations/.
package store
