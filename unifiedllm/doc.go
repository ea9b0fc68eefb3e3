// Package unifiedllm is the completion-service layer for loom. It wraps the
// gollm library (github.com/teilomillet/gollm) behind a provider-agnostic
// blocking interface: the caller supplies a model, a message history, and a
// static tool definition list, and receives an ordered sequence of content
// blocks that are either text or tool calls.
//
// The package has three layers:
//
//   - ProviderAdapter: the per-backend interface, with GollmAdapter as the
//     production implementation.
//   - Client: provider routing (explicit, catalog-inferred, or default) plus
//     a middleware chain. RetryMiddleware and LoggingMiddleware are provided.
//   - Typed errors: a hierarchy rooted at SDKError with status-code mapping
//     and an IsRetryable classification used by the retry policy.
//
// Adapters are stateless between calls; the full conversation is resupplied
// on every request.
//
//	adapter, _ := unifiedllm.NewGollmAdapter("anthropic", os.Getenv("ANTHROPIC_API_KEY"))
//	client := unifiedllm.NewClient(
//	    unifiedllm.WithProvider("anthropic", adapter),
//	    unifiedllm.WithMiddleware(unifiedllm.RetryMiddleware(unifiedllm.DefaultRetryPolicy())),
//	)
//
//	resp, err := client.Complete(ctx, unifiedllm.Request{
//	    Model:    "claude-opus-4-6",
//	    Messages: []unifiedllm.Message{unifiedllm.UserMessage("Hello")},
//	})
package unifiedllm
