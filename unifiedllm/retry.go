package unifiedllm

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy configures exponential backoff for transient failures.
// MaxRetries counts additional attempts after the initial one.
type RetryPolicy struct {
	MaxRetries        int
	BaseDelay         float64 // seconds
	MaxDelay          float64 // seconds, caps the backoff and any Retry-After
	BackoffMultiplier float64
	Jitter            bool
	OnRetry           func(err error, attempt int, delay time.Duration)
}

// DefaultRetryPolicy returns the policy used by RetryMiddleware when callers
// have no specific requirements: two retries, 1s base, 30s cap, jittered.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		BaseDelay:         1.0,
		MaxDelay:          30.0,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// Delay returns the backoff before retry number attempt (0-indexed).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	seconds := math.Min(p.BaseDelay*math.Pow(p.BackoffMultiplier, float64(attempt)), p.MaxDelay)
	if p.Jitter {
		// Spread between 50% and 150% of the computed delay.
		seconds *= 0.5 + rand.Float64()
	}
	return time.Duration(seconds * float64(time.Second))
}

// nextDelay decides whether err warrants another attempt and, if so, how
// long to wait. A rate-limited response with a Retry-After beyond MaxDelay
// is treated as non-retryable rather than waiting out an arbitrary server
// demand.
func (p RetryPolicy) nextDelay(err error, attempt int) (time.Duration, bool) {
	if !IsRetryable(err) {
		return 0, false
	}
	if rl, ok := err.(*RateLimitError); ok && rl.RetryAfter != nil {
		wait := time.Duration(*rl.RetryAfter * float64(time.Second))
		if wait > time.Duration(p.MaxDelay*float64(time.Second)) {
			return 0, false
		}
		return wait, true
	}
	return p.Delay(attempt), true
}

// Retry runs fn, retrying per the policy. The last error is returned once
// retries are exhausted; a context cancellation during a backoff wait
// surfaces as an AbortError.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	result, err := fn(ctx)
	for attempt := 0; err != nil && attempt < policy.MaxRetries; attempt++ {
		delay, retry := policy.nextDelay(err, attempt)
		if !retry {
			return zero, err
		}

		if policy.OnRetry != nil {
			policy.OnRetry(err, attempt+1, delay)
		}

		select {
		case <-ctx.Done():
			return zero, &AbortError{SDKError: SDKError{Message: "request cancelled during retry", Cause: ctx.Err()}}
		case <-time.After(delay):
		}

		result, err = fn(ctx)
	}

	if err != nil {
		return zero, err
	}
	return result, nil
}
