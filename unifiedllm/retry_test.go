package unifiedllm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func retryableErr() error {
	return &ServerError{ProviderError: ProviderError{
		SDKError: SDKError{Message: "transient"}, StatusCode: 503, Retryable: true,
	}}
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		BaseDelay:         0.001,
		MaxDelay:          0.01,
		BackoffMultiplier: 2.0,
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	result, err := Retry(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", retryableErr()
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("expected %q, got %q", "ok", result)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryExhausted(t *testing.T) {
	attempts := 0
	_, err := Retry(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		attempts++
		return "", retryableErr()
	})
	if err == nil {
		t.Fatal("expected the final error after exhaustion")
	}
	// Initial attempt plus MaxRetries.
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryNonRetryableStopsImmediately(t *testing.T) {
	attempts := 0
	_, err := Retry(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		attempts++
		return "", &AuthenticationError{ProviderError: ProviderError{
			SDKError: SDKError{Message: "bad key"}, StatusCode: 401,
		}}
	})
	if err == nil {
		t.Fatal("expected the error to propagate")
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt, got %d", attempts)
	}
}

func TestRetryHonorsRetryAfter(t *testing.T) {
	retryAfter := 0.005
	attempts := 0
	start := time.Now()
	_, err := Retry(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "", &RateLimitError{ProviderError: ProviderError{
				SDKError: SDKError{Message: "slow down"}, StatusCode: 429,
				Retryable: true, RetryAfter: &retryAfter,
			}}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Errorf("expected the retry to wait at least 5ms, waited %v", elapsed)
	}
}

func TestRetryAfterExceedingMaxDelayGivesUp(t *testing.T) {
	retryAfter := 60.0 // far above MaxDelay
	attempts := 0
	_, err := Retry(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		attempts++
		return "", &RateLimitError{ProviderError: ProviderError{
			SDKError: SDKError{Message: "slow down"}, StatusCode: 429,
			Retryable: true, RetryAfter: &retryAfter,
		}}
	})
	if err == nil {
		t.Fatal("expected the error when Retry-After exceeds the delay cap")
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt, got %d", attempts)
	}
}

func TestRetryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := fastPolicy()
	policy.BaseDelay = 10 // long enough that cancellation wins

	done := make(chan error, 1)
	go func() {
		_, err := Retry(ctx, policy, func(ctx context.Context) (string, error) {
			return "", retryableErr()
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		var abort *AbortError
		if !errors.As(err, &abort) {
			t.Errorf("expected AbortError on cancellation, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}

func TestRetryPolicyDelayBackoff(t *testing.T) {
	policy := RetryPolicy{
		BaseDelay:         1.0,
		MaxDelay:          4.0,
		BackoffMultiplier: 2.0,
	}
	wants := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		4 * time.Second, // capped
	}
	for attempt, want := range wants {
		if got := policy.Delay(attempt); got != want {
			t.Errorf("attempt %d: expected %v, got %v", attempt, want, got)
		}
	}
}

func TestRetryOnRetryCallback(t *testing.T) {
	policy := fastPolicy()
	var notified []int
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		notified = append(notified, attempt)
	}

	attempts := 0
	_, err := Retry(context.Background(), policy, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", retryableErr()
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notified) != 1 || notified[0] != 1 {
		t.Errorf("expected one retry notification for attempt 1, got %v", notified)
	}
}
