package unifiedllm

import (
	"context"
	"log/slog"
	"time"
)

// RetryMiddleware retries retryable provider errors with the given policy
// before they surface to the caller. Non-retryable errors pass through
// untouched.
func RetryMiddleware(policy RetryPolicy) Middleware {
	return func(ctx context.Context, req Request, next func(context.Context, Request) (*Response, error)) (*Response, error) {
		return Retry(ctx, policy, func(ctx context.Context) (*Response, error) {
			return next(ctx, req)
		})
	}
}

// LoggingMiddleware logs each completion request and its outcome at debug
// level on the given logger.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(ctx context.Context, req Request, next func(context.Context, Request) (*Response, error)) (*Response, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		elapsed := time.Since(start)
		if err != nil {
			logger.Debug("completion failed",
				"provider", req.Provider,
				"model", req.Model,
				"messages", len(req.Messages),
				"elapsed", elapsed,
				"error", err)
			return nil, err
		}
		logger.Debug("completion ok",
			"provider", resp.Provider,
			"model", resp.Model,
			"messages", len(req.Messages),
			"tool_calls", len(resp.ToolCallsFromResponse()),
			"tokens", resp.Usage.TotalTokens,
			"elapsed", elapsed)
		return resp, nil
	}
}
