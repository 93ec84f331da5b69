package graph

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds how an operation is retried on transient errors.
// Delays grow exponentially from BaseDelay by Multiplier, capped at
// MaxDelay, with no jitter.
type RetryPolicy struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy returns 3 attempts starting at 500ms, doubling up to 5s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2,
	}
}

// Classifier reports whether an error is transient and worth retrying.
type Classifier func(error) bool

// WithRetry runs op until it succeeds, fails with an error isTransient
// rejects, or MaxAttempts invocations have been made. Permanent errors are
// returned on first occurrence. On exhaustion the last error is returned
// unchanged so callers see the most specific kind.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, isTransient Classifier, op func(context.Context) (T, error)) (T, error) {
	policy = policy.normalized()

	b := &backoff.ExponentialBackOff{
		InitialInterval:     policy.BaseDelay,
		RandomizationFactor: 0,
		Multiplier:          policy.Multiplier,
		MaxInterval:         policy.MaxDelay,
	}
	b.Reset()

	attempt := 0
	operation := func() (T, error) {
		attempt++
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !isTransient(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	notify := func(err error, delay time.Duration) {
		retryNotify(err, attempt, policy.MaxAttempts, delay)
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(policy.MaxAttempts)),
		backoff.WithNotify(notify),
	)
	// A permanent error on the final attempt comes back still wrapped.
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return result, err
}

// retryNotify is called before each wait with the delay about to be slept.
var retryNotify = func(err error, attempt, maxAttempts int, delay time.Duration) {
	slog.Warn("transient error, retrying",
		"attempt", attempt,
		"max_attempts", maxAttempts,
		"delay", delay,
		"error", err)
}

func (p RetryPolicy) normalized() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = def.Multiplier
	}
	return p
}
