// Package quota enforces the monthly free-tier usage allowance. Usage is
// tracked per subject and calendar month in the quota_records table, with a
// reserve-then-commit protocol so concurrent requests never overshoot the
// limit: a unit is reserved before the provider call and either committed on
// success or released on failure.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"smarttask/internal/logging"
	"smarttask/internal/store"
)

const periodLayout = "2006-01"

// ErrExhausted is returned by Reserve when the subject has no remaining
// allowance for the current period.
var ErrExhausted = errors.New("quota exhausted")

// Options configures a Ledger.
type Options struct {
	// Subject identifies whose usage is tracked. Required.
	Subject string
	// FreeLimit is the per-period allowance for free-tier subjects.
	FreeLimit int
	// Unlimited, when it returns true, bypasses enforcement entirely.
	// Reservations still succeed but consume nothing.
	Unlimited func() bool
	// Now overrides the clock, for tests.
	Now    func() time.Time
	Logger *slog.Logger
}

// Ledger mediates all quota reads and writes. Mutations are serialized by a
// mutex so check-and-reserve is atomic within the process.
type Ledger struct {
	mu        sync.Mutex
	store     *store.Store
	subject   string
	limit     int
	unlimited func() bool
	now       func() time.Time
	logger    *slog.Logger
}

// NewLedger builds a ledger backed by st.
func NewLedger(st *store.Store, opts Options) (*Ledger, error) {
	if st == nil {
		return nil, errors.New("quota: store is required")
	}
	if opts.Subject == "" {
		return nil, errors.New("quota: subject is required")
	}
	if opts.FreeLimit <= 0 {
		return nil, fmt.Errorf("quota: free limit must be positive, got %d", opts.FreeLimit)
	}
	ledger := &Ledger{
		store:     st,
		subject:   opts.Subject,
		limit:     opts.FreeLimit,
		unlimited: opts.Unlimited,
		now:       opts.Now,
		logger:    opts.Logger,
	}
	if ledger.unlimited == nil {
		ledger.unlimited = func() bool { return false }
	}
	if ledger.now == nil {
		ledger.now = time.Now
	}
	if ledger.logger == nil {
		ledger.logger = logging.NewNop()
	}
	return ledger, nil
}

// Period returns the identifier of the current accounting period. Periods
// are calendar months in UTC, so rollover needs no background job: a new
// month simply keys a fresh record.
func (l *Ledger) Period() string {
	return l.now().UTC().Format(periodLayout)
}

// Reservation is a claimed unit of allowance. It must be settled exactly
// once with Commit or Release; further settlements are no-ops.
type Reservation struct {
	Subject string
	Period  string

	ledger  *Ledger
	settled bool
	bypass  bool
}

// Reserve claims one unit of allowance for the current period. It fails
// with ErrExhausted when consumed plus outstanding reservations already
// meet the limit.
func (l *Ledger) Reserve(ctx context.Context) (*Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.Period()
	if l.unlimited() {
		return &Reservation{Subject: l.subject, Period: period, ledger: l, bypass: true}, nil
	}

	record, err := l.store.QuotaRecord(ctx, l.subject, period)
	if err != nil {
		return nil, fmt.Errorf("load quota record: %w", err)
	}
	if record.Consumed+record.Reserved >= l.limit {
		l.logger.Warn("quota exhausted",
			logging.String(logging.FieldSubject, l.subject),
			logging.String("period", period),
			logging.Int("limit", l.limit),
			logging.Int("consumed", record.Consumed))
		return nil, fmt.Errorf("%w: %d of %d used in %s", ErrExhausted, record.Consumed, l.limit, period)
	}

	record.Reserved++
	if err := l.store.PutQuotaRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("persist quota reservation: %w", err)
	}
	return &Reservation{Subject: l.subject, Period: period, ledger: l}, nil
}

// Commit converts the reservation into consumed allowance.
func (r *Reservation) Commit(ctx context.Context) error {
	return r.settle(ctx, true)
}

// Release returns the reserved unit without consuming it.
func (r *Reservation) Release(ctx context.Context) error {
	return r.settle(ctx, false)
}

func (r *Reservation) settle(ctx context.Context, consume bool) error {
	if r == nil || r.settled {
		return nil
	}
	r.settled = true
	if r.bypass {
		return nil
	}

	l := r.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	record, err := l.store.QuotaRecord(ctx, r.Subject, r.Period)
	if err != nil {
		return fmt.Errorf("load quota record: %w", err)
	}
	if record.Reserved > 0 {
		record.Reserved--
	}
	if consume {
		record.Consumed++
	}
	if err := l.store.PutQuotaRecord(ctx, record); err != nil {
		return fmt.Errorf("persist quota settlement: %w", err)
	}
	return nil
}

// Status summarizes the subject's standing for the current period.
type Status struct {
	Subject   string
	Period    string
	Limit     int
	Consumed  int
	Reserved  int
	Remaining int
	Unlimited bool
}

// Status reports current-period usage. Remaining is zero-floored and
// meaningless when Unlimited is set.
func (l *Ledger) Status(ctx context.Context) (Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.Period()
	status := Status{
		Subject:   l.subject,
		Period:    period,
		Limit:     l.limit,
		Unlimited: l.unlimited(),
	}
	record, err := l.store.QuotaRecord(ctx, l.subject, period)
	if err != nil {
		return Status{}, fmt.Errorf("load quota record: %w", err)
	}
	status.Consumed = record.Consumed
	status.Reserved = record.Reserved
	status.Remaining = l.limit - record.Consumed - record.Reserved
	if status.Remaining < 0 {
		status.Remaining = 0
	}
	return status, nil
}

// Prune removes records from periods before the current one and zeroes any
// reserved count left behind by a crash. Reservations live only in process
// memory, so a persisted reserved count at startup is orphaned: its owner
// can no longer commit or release it. Call before serving traffic.
func (l *Ledger) Prune(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed, err := l.store.PruneQuotaRecords(ctx, l.subject, l.Period())
	if err != nil {
		return err
	}
	if removed > 0 {
		l.logger.Info("pruned stale quota records",
			logging.String(logging.FieldSubject, l.subject),
			logging.Int64("removed", removed))
	}

	record, err := l.store.QuotaRecord(ctx, l.subject, l.Period())
	if err != nil {
		return fmt.Errorf("load quota record: %w", err)
	}
	if record.Reserved > 0 {
		orphaned := record.Reserved
		record.Reserved = 0
		if err := l.store.PutQuotaRecord(ctx, record); err != nil {
			return fmt.Errorf("clear orphaned reservations: %w", err)
		}
		l.logger.Info("released orphaned quota reservations",
			logging.String(logging.FieldSubject, l.subject),
			logging.Int("released", orphaned))
	}
	return nil
}
