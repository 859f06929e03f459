// Package orchestrator routes submitted commands to the configured LLM
// provider under quota enforcement. Every submission claims a quota
// reservation before the outbound call, commits it on success, and releases
// it on any failure. Transient provider failures earn exactly one retry on
// a fresh reservation.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"smarttask/internal/config"
	"smarttask/internal/logging"
	"smarttask/internal/notifications"
	"smarttask/internal/provider"
	"smarttask/internal/quota"
)

const (
	defaultRetryBackoff = 500 * time.Millisecond
	maxRetryBackoff     = 5 * time.Second
)

// AdapterFactory resolves a ready adapter for the requested provider kind.
type AdapterFactory func(kind provider.Kind) (provider.Adapter, error)

// Options configures an Orchestrator.
type Options struct {
	Config   *config.Config
	Ledger   *quota.Ledger
	Notifier notifications.Service
	Logger   *slog.Logger
	// Adapters overrides provider construction, for tests.
	Adapters AdapterFactory
	// RetryBackoff is the delay before the single retry when the vendor
	// supplied no Retry-After hint.
	RetryBackoff time.Duration
}

// Orchestrator coordinates parse, quota, invoke, and retry for one
// submission at a time per call. It is safe for concurrent use; the ledger
// serializes quota decisions.
type Orchestrator struct {
	cfg      *config.Config
	ledger   *quota.Ledger
	notifier notifications.Service
	logger   *slog.Logger
	adapters AdapterFactory
	backoff  time.Duration
}

// New validates options and builds an orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Config == nil {
		return nil, errors.New("orchestrator: config is required")
	}
	if opts.Ledger == nil {
		return nil, errors.New("orchestrator: quota ledger is required")
	}
	o := &Orchestrator{
		cfg:      opts.Config,
		ledger:   opts.Ledger,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		adapters: opts.Adapters,
		backoff:  opts.RetryBackoff,
	}
	if o.notifier == nil {
		o.notifier = notifications.NewService(opts.Config)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.adapters == nil {
		cfg := opts.Config
		o.adapters = func(kind provider.Kind) (provider.Adapter, error) {
			return provider.FromConfig(kind, cfg)
		}
	}
	if o.backoff <= 0 {
		o.backoff = defaultRetryBackoff
	}
	return o, nil
}

// SubmitOptions carries per-submission overrides.
type SubmitOptions struct {
	// Provider selects a vendor for this submission only. Empty means the
	// configured default.
	Provider string
}

// Result is a successful submission outcome.
type Result struct {
	CorrelationID string
	Intent        Intent
	Provider      provider.Kind
	Content       string
	Retried       bool
}

// Submit runs one command end to end: parse, resolve the provider, reserve
// quota, invoke, and settle. The returned error is always a classified
// provider failure except for caller cancellation, which propagates as
// context.Canceled.
func (o *Orchestrator) Submit(ctx context.Context, raw string, opts SubmitOptions) (*Result, error) {
	correlationID := uuid.NewString()
	cmd := ParseCommand(raw)
	if cmd.Prompt == "" {
		return nil, provider.NewFailure(provider.FailureInvalidInput, "command text required")
	}

	kind, err := o.resolveKind(opts.Provider)
	if err != nil {
		return nil, err
	}
	log := o.logger.With(
		logging.String(logging.FieldCorrelationID, correlationID),
		logging.String(logging.FieldIntent, string(cmd.Intent)),
		logging.String(logging.FieldProvider, string(kind)))

	adapter, err := o.adapters(kind)
	if err != nil {
		log.Warn("provider unavailable", logging.Error(err))
		return nil, err
	}

	log.Info("submission accepted")
	content, retried, err := o.invokeWithRetry(ctx, log, adapter, cmd.Prompt)
	if err != nil {
		log.Warn("submission failed",
			logging.String(logging.FieldErrorHint, string(provider.KindOf(err))))
		return nil, err
	}

	log.Info("submission completed", logging.Bool("retried", retried))
	return &Result{
		CorrelationID: correlationID,
		Intent:        cmd.Intent,
		Provider:      kind,
		Content:       content,
		Retried:       retried,
	}, nil
}

func (o *Orchestrator) resolveKind(override string) (provider.Kind, error) {
	name := override
	if name == "" {
		name = o.cfg.Providers.Default
	}
	kind, err := provider.ParseKind(name)
	if err != nil {
		return "", provider.NewFailure(provider.FailureMisconfigured, "%s", err)
	}
	return kind, nil
}

// invokeWithRetry performs the reserve/invoke/settle cycle, retrying once
// on a transient failure. The retry claims a fresh reservation so a quota
// that filled up in between is still honored.
func (o *Orchestrator) invokeWithRetry(ctx context.Context, log *slog.Logger, adapter provider.Adapter, prompt string) (string, bool, error) {
	content, err := o.invokeOnce(ctx, adapter, prompt)
	if err == nil {
		return content, false, nil
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return "", false, err
	}

	failure, ok := provider.AsFailure(err)
	if !ok || !failure.Transient() {
		return "", false, err
	}

	delay := o.backoff
	if failure.RetryAfter > 0 {
		delay = failure.RetryAfter
	}
	if delay > maxRetryBackoff {
		delay = maxRetryBackoff
	}
	log.Warn("transient failure, retrying once",
		logging.String(logging.FieldErrorHint, string(failure.Kind)),
		logging.Duration("delay", delay))
	if err := wait(ctx, delay); err != nil {
		return "", false, err
	}

	content, err = o.invokeOnce(ctx, adapter, prompt)
	if err != nil {
		return "", true, err
	}
	return content, true, nil
}

// invokeOnce claims one reservation and settles it against the outcome of
// a single adapter call.
func (o *Orchestrator) invokeOnce(ctx context.Context, adapter provider.Adapter, prompt string) (string, error) {
	reservation, err := o.ledger.Reserve(ctx)
	if err != nil {
		if errors.Is(err, quota.ErrExhausted) {
			o.notifyExhausted(ctx)
			return "", &provider.Failure{Kind: provider.FailureQuotaExceeded, Message: err.Error()}
		}
		return "", provider.NewFailure(provider.FailureUnknown, "quota check: %s", err)
	}

	content, err := adapter.Invoke(ctx, prompt, provider.Params{})
	if err != nil {
		if releaseErr := reservation.Release(context.WithoutCancel(ctx)); releaseErr != nil {
			o.logger.Error("release quota reservation", logging.Error(releaseErr))
		}
		return "", err
	}
	if err := reservation.Commit(context.WithoutCancel(ctx)); err != nil {
		// The provider call succeeded; losing the commit must not turn
		// the submission into a failure.
		o.logger.Error("commit quota reservation", logging.Error(err))
	}
	return content, nil
}

func (o *Orchestrator) notifyExhausted(ctx context.Context) {
	status, err := o.ledger.Status(ctx)
	if err != nil {
		o.logger.Error("read quota status", logging.Error(err))
		return
	}
	if err := o.notifier.NotifyQuotaExhausted(ctx, status.Consumed, status.Limit); err != nil {
		o.logger.Warn("quota notification failed", logging.Error(err))
	}
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("retry aborted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
