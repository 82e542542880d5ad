// ABOUTME: Retry logic with exponential backoff and jitter for backend API calls.
// ABOUTME: Provides RetryPolicy configuration and a generic Retry wrapper that respects error retryability.
package llm

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy configures how retry behavior works for backend API calls.
type RetryPolicy struct {
	// MaxRetries is the maximum number of retry attempts (not counting the initial call).
	MaxRetries int

	// BaseDelay is the initial delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay is the upper bound on the delay between retries.
	MaxDelay time.Duration

	// BackoffMultiplier controls exponential growth of the delay between retries.
	BackoffMultiplier float64

	// Jitter adds randomness to the delay to avoid thundering herd problems.
	Jitter bool

	// OnRetry is an optional callback invoked before each retry attempt.
	OnRetry func(err error, attempt int, delay time.Duration)
}

// DefaultRetryPolicy returns a RetryPolicy with sensible defaults:
// 2 retries, 1s base delay, 30s max delay, 2x backoff, jitter enabled.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// CalculateDelay computes the delay for a given retry attempt using exponential
// backoff. When Jitter is enabled, the delay is randomized between 0 and the
// calculated backoff value. The result is always capped at MaxDelay.
func (p RetryPolicy) CalculateDelay(attempt int) time.Duration {
	delayFloat := float64(p.BaseDelay) * math.Pow(p.BackoffMultiplier, float64(attempt))

	if delayFloat > float64(p.MaxDelay) {
		delayFloat = float64(p.MaxDelay)
	}

	delay := time.Duration(delayFloat)

	if p.Jitter {
		// Full jitter: randomize between 0 and the calculated delay
		delay = time.Duration(rand.Int63n(int64(delay) + 1))
	}

	return delay
}

// ShouldRetry determines whether the operation should be retried based on the
// error and the current attempt number. It returns false for nil errors,
// non-retryable errors, and when the attempt count has reached MaxRetries.
func (p RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.MaxRetries {
		return false
	}

	type retryable interface {
		IsRetryable() bool
	}
	if r, ok := err.(retryable); ok {
		return r.IsRetryable()
	}

	// Non-SDK errors are not retried
	return false
}

// Retry executes fn with the given retry policy. It retries on retryable
// errors up to MaxRetries times, using exponential backoff with optional
// jitter. If the error carries a RetryAfter hint, that value is used as the
// minimum delay. The context can be used to cancel retries early.
func Retry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	var lastErr error

	for attempt := 0; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !policy.ShouldRetry(lastErr, attempt) {
			return lastErr
		}

		delay := policy.CalculateDelay(attempt)
		delay = applyRetryAfter(lastErr, delay)

		if policy.OnRetry != nil {
			policy.OnRetry(lastErr, attempt, delay)
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
			// Continue to next attempt
		}
	}
}

// applyRetryAfter returns the greater of the calculated delay and the
// RetryAfter hint carried by the error, when one is present.
func applyRetryAfter(err error, calculatedDelay time.Duration) time.Duration {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.RetryAfter != nil {
		hint := time.Duration(*pe.RetryAfter * float64(time.Second))
		if hint > calculatedDelay {
			return hint
		}
	}
	return calculatedDelay
}
