package unifiedllm

import (
	"errors"
	"testing"
)

func TestErrorFromStatusCode(t *testing.T) {
	cases := []struct {
		status    int
		wantType  string
		retryable bool
	}{
		{400, "*unifiedllm.InvalidRequestError", false},
		{401, "*unifiedllm.AuthenticationError", false},
		{403, "*unifiedllm.AccessDeniedError", false},
		{404, "*unifiedllm.NotFoundError", false},
		{408, "*unifiedllm.RequestTimeoutError", true},
		{413, "*unifiedllm.ContextLengthError", false},
		{422, "*unifiedllm.InvalidRequestError", false},
		{429, "*unifiedllm.RateLimitError", true},
		{500, "*unifiedllm.ServerError", true},
		{502, "*unifiedllm.ServerError", true},
		{503, "*unifiedllm.ServerError", true},
		{504, "*unifiedllm.ServerError", true},
		{418, "*unifiedllm.ProviderError", true},
	}

	for _, tc := range cases {
		err := ErrorFromStatusCode(tc.status, "boom", "test-provider", nil)
		if err == nil {
			t.Fatalf("status %d: expected an error", tc.status)
		}
		if got := typeName(err); got != tc.wantType {
			t.Errorf("status %d: expected %s, got %s", tc.status, tc.wantType, got)
		}
		if got := IsRetryable(err); got != tc.retryable {
			t.Errorf("status %d: IsRetryable = %v, expected %v", tc.status, got, tc.retryable)
		}
	}
}

func typeName(err error) string {
	switch err.(type) {
	case *InvalidRequestError:
		return "*unifiedllm.InvalidRequestError"
	case *AuthenticationError:
		return "*unifiedllm.AuthenticationError"
	case *AccessDeniedError:
		return "*unifiedllm.AccessDeniedError"
	case *NotFoundError:
		return "*unifiedllm.NotFoundError"
	case *RequestTimeoutError:
		return "*unifiedllm.RequestTimeoutError"
	case *ContextLengthError:
		return "*unifiedllm.ContextLengthError"
	case *RateLimitError:
		return "*unifiedllm.RateLimitError"
	case *ServerError:
		return "*unifiedllm.ServerError"
	case *ProviderError:
		return "*unifiedllm.ProviderError"
	default:
		return "unknown"
	}
}

func TestSDKErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &SDKError{Message: "wrapper", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestProviderErrorMessage(t *testing.T) {
	err := ErrorFromStatusCode(429, "slow down", "anthropic", nil)
	if err.Error() == "" {
		t.Error("expected a non-empty message")
	}
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %T", err)
	}
	if rl.Provider != "anthropic" {
		t.Errorf("expected provider to be carried, got %q", rl.Provider)
	}
	if rl.StatusCode != 429 {
		t.Errorf("expected status 429, got %d", rl.StatusCode)
	}
}

func TestIsRetryableNil(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil must not be retryable")
	}
}

func TestIsRetryableSDKErrors(t *testing.T) {
	if IsRetryable(&ConfigurationError{}) {
		t.Error("configuration errors must not be retried")
	}
	if !IsRetryable(&NetworkError{}) {
		t.Error("network errors must be retried")
	}
	if !IsRetryable(&RequestTimeoutError{}) {
		t.Error("timeouts must be retried")
	}
}
