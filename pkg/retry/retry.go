// Package retry runs fallible operations under a bounded exponential
// backoff policy.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Policy controls attempt count and backoff growth.
type Policy struct {
	// MaxAttempts bounds the total number of invocations, first try
	// included.
	MaxAttempts int
	// BaseDelay is the wait before the second attempt.
	BaseDelay time.Duration
	// MaxDelay caps backoff growth. Zero means uncapped.
	MaxDelay time.Duration
	// Multiplier is the exponential growth factor between attempts.
	Multiplier float64
	// ShouldRetry decides whether err from the given attempt (1-based)
	// is worth another try. Nil retries everything up to MaxAttempts.
	ShouldRetry func(err error, attempt int) bool
}

// DefaultPolicy matches the token-fetch contract: four attempts with
// exponential growth.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Multiplier:  2.0,
	}
}

// Delay returns the wait applied before the given attempt (1-based).
// Attempt 1 runs immediately; later attempts wait
// BaseDelay * Multiplier^(attempt-2), capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(multiplier, float64(attempt-2)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Do invokes fn until it succeeds, the policy declines to retry, or
// MaxAttempts is exhausted. Inter-attempt sleeps honor ctx
// cancellation. On a declined retry the failure is returned as-is so
// callers can classify it; on exhaustion the last failure is wrapped.
func Do[T any](ctx context.Context, policy Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(policy.Delay(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err

		if policy.ShouldRetry != nil && !policy.ShouldRetry(err, attempt) {
			return zero, err
		}
	}

	return zero, fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}
