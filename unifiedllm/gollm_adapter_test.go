package unifiedllm

import (
	"errors"
	"strings"
	"testing"
)

func testAdapter() *GollmAdapter {
	return &GollmAdapter{provider: "anthropic", model: "claude-opus-4-6"}
}

func TestTranslateRequestFlattensConversation(t *testing.T) {
	a := testAdapter()
	req := Request{
		Model: "claude-opus-4-6",
		Messages: []Message{
			SystemMessage("be helpful"),
			UserMessage("list the files"),
			{
				Role: RoleAssistant,
				Content: []ContentPart{
					TextPart("Checking."),
					ToolCallPart("call_1", "listDir", []byte(`{}`)),
				},
			},
			ToolResultMessage("call_1", "a.txt\nb.txt", false),
			ToolResultMessage("call_1", "io error: cannot list x", true),
		},
	}

	prompt, err := a.translateRequest(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := prompt.Input
	for _, want := range []string{
		"list the files",
		"[Assistant]: Checking.",
		"[Assistant called listDir({})]",
		"[Tool Result]: a.txt\nb.txt",
		"[Tool Error]: io error: cannot list x",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q:\n%s", want, text)
		}
	}
}

func TestBuildResponsePlainText(t *testing.T) {
	a := testAdapter()
	resp := a.buildResponse(Request{Model: "claude-opus-4-6"}, "Just an answer.")

	if resp.Text() != "Just an answer." {
		t.Errorf("unexpected text: %q", resp.Text())
	}
	if len(resp.ToolCallsFromResponse()) != 0 {
		t.Error("expected no tool calls")
	}
	if resp.FinishReason.Reason != "stop" {
		t.Errorf("expected stop, got %q", resp.FinishReason.Reason)
	}
	if !strings.HasPrefix(resp.ID, "resp_") {
		t.Errorf("unexpected response ID %q", resp.ID)
	}
}

func TestBuildResponseParsesToolCalls(t *testing.T) {
	a := testAdapter()
	text := `I'll read that file. [{"name": "readFile", "arguments": {"filePath": "main.go"}}]`
	resp := a.buildResponse(Request{Model: "claude-opus-4-6"}, text)

	calls := resp.ToolCallsFromResponse()
	if len(calls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(calls))
	}
	if calls[0].Name != "readFile" {
		t.Errorf("expected readFile, got %q", calls[0].Name)
	}
	if !strings.HasPrefix(calls[0].ID, "call_") {
		t.Errorf("unexpected call ID %q", calls[0].ID)
	}
	if resp.FinishReason.Reason != "tool_calls" {
		t.Errorf("expected tool_calls, got %q", resp.FinishReason.Reason)
	}
	// The JSON payload is stripped from the visible text.
	if strings.Contains(resp.Text(), `[{"name"`) {
		t.Errorf("tool call JSON leaked into text: %q", resp.Text())
	}
}

func TestTranslateErrorMapping(t *testing.T) {
	a := testAdapter()
	cases := []struct {
		msg  string
		want string
	}{
		{"API error: 401 Unauthorized", "auth"},
		{"rate limit exceeded", "ratelimit"},
		{"model not found", "notfound"},
		{"request timeout", "timeout"},
		{"internal server error", "server"},
		{"something odd happened", "provider"},
	}

	for _, tc := range cases {
		err := a.translateError(errors.New(tc.msg))
		var matched bool
		switch tc.want {
		case "auth":
			var e *AuthenticationError
			matched = errors.As(err, &e)
		case "ratelimit":
			var e *RateLimitError
			matched = errors.As(err, &e)
		case "notfound":
			var e *NotFoundError
			matched = errors.As(err, &e)
		case "timeout":
			var e *RequestTimeoutError
			matched = errors.As(err, &e)
		case "server":
			var e *ServerError
			matched = errors.As(err, &e)
		case "provider":
			var e *ProviderError
			matched = errors.As(err, &e)
		}
		if !matched {
			t.Errorf("message %q: expected %s error, got %T", tc.msg, tc.want, err)
		}
	}
}
