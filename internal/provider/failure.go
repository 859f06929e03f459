package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FailureKind is the stable classification a failed provider call carries.
type FailureKind string

const (
	FailureInvalidInput  FailureKind = "invalid_input"
	FailureMisconfigured FailureKind = "misconfigured"
	FailureQuotaExceeded FailureKind = "quota_exceeded"
	FailureTimeout       FailureKind = "timeout"
	FailureRateLimited   FailureKind = "rate_limited"
	FailureAuth          FailureKind = "auth_failure"
	FailureUnavailable   FailureKind = "provider_unavailable"
	FailureUnknown       FailureKind = "unknown"
)

// Failure is a classified provider error. It always carries a kind and a
// human-readable message; RetryAfter is set when the vendor supplied one.
type Failure struct {
	Kind       FailureKind
	Message    string
	RetryAfter time.Duration
	err        error
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
	return string(f.Kind)
}

func (f *Failure) Unwrap() error { return f.err }

// Transient reports whether the failure is worth a single retry.
func (f *Failure) Transient() bool {
	switch f.Kind {
	case FailureTimeout, FailureRateLimited, FailureUnavailable:
		return true
	}
	return false
}

// NewFailure builds a classified failure with a formatted message.
func NewFailure(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsFailure extracts a *Failure from an error chain.
func AsFailure(err error) (*Failure, bool) {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}

// KindOf returns the failure kind for err, defaulting to FailureUnknown for
// anything unclassified.
func KindOf(err error) FailureKind {
	if failure, ok := AsFailure(err); ok {
		return failure.Kind
	}
	return FailureUnknown
}

// classifyStatus maps an HTTP response status to a failure.
func classifyStatus(kind Kind, status int, body string, retryAfter time.Duration) *Failure {
	message := strings.TrimSpace(body)
	if message == "" {
		message = http.StatusText(status)
	}
	message = fmt.Sprintf("%s returned http %d: %s", kind, status, snippet(message))

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Failure{Kind: FailureAuth, Message: message}
	case status == http.StatusRequestTimeout:
		return &Failure{Kind: FailureTimeout, Message: message}
	case status == http.StatusTooManyRequests:
		return &Failure{Kind: FailureRateLimited, Message: message, RetryAfter: retryAfter}
	case status >= http.StatusInternalServerError:
		return &Failure{Kind: FailureUnavailable, Message: message, RetryAfter: retryAfter}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return &Failure{Kind: FailureInvalidInput, Message: message}
	default:
		return &Failure{Kind: FailureUnknown, Message: message}
	}
}

// classifyTransport maps a transport-level error to a failure. Caller
// cancellation is returned unchanged so it propagates as context.Canceled.
func classifyTransport(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Kind: FailureTimeout, Message: fmt.Sprintf("%s request timed out", kind), err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Failure{Kind: FailureTimeout, Message: fmt.Sprintf("%s request timed out", kind), err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &Failure{Kind: FailureTimeout, Message: fmt.Sprintf("%s request timed out", kind), err: err}
	}

	return &Failure{
		Kind:    FailureUnavailable,
		Message: fmt.Sprintf("%s unreachable: %s", kind, err),
		err:     err,
	}
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0
		}
		return delay
	}
	return 0
}

func snippet(content string) string {
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := strings.Join(strings.Fields(replacer.Replace(content)), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
