package agentloop

import (
	"context"

	"github.com/google/uuid"
	"github.com/loomworks/loom/unifiedllm"
)

// LoopState is the explicit state of the orchestration loop.
type LoopState string

const (
	StateAwaitingModel    LoopState = "awaiting_model"
	StateDispatchingTools LoopState = "dispatching_tools"
	StateDone             LoopState = "done"
	StateLimitReached     LoopState = "limit_reached"
)

// Terminal reports whether the state ends a prompt's processing.
func (s LoopState) Terminal() bool {
	return s == StateDone || s == StateLimitReached
}

// LimitReachedMessage is the fixed sentinel returned when the round budget is
// exhausted. It replaces any partial output.
const LimitReachedMessage = "Stopped: the round limit was reached before the model produced a final answer."

// LoopConfig holds configuration for a Loop.
type LoopConfig struct {
	Model     string `json:"model"`
	Provider  string `json:"provider,omitempty"`
	MaxRounds int    `json:"max_rounds"` // rounds, not tool calls; one round may bundle several calls
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// DefaultLoopConfig returns the default configuration.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		MaxRounds: 6,
	}
}

// Result is the outcome of one prompt's processing.
type Result struct {
	Text      string           `json:"text"`
	State     LoopState        `json:"state"` // StateDone or StateLimitReached
	Rounds    int              `json:"rounds"`
	ToolCalls int              `json:"tool_calls"`
	Usage     unifiedllm.Usage `json:"usage"`
}

// Loop drives the tool-calling orchestration: it sends the conversation to
// the completion service, dispatches any requested tool calls, feeds the
// results back, and repeats until the model answers without tool calls or
// the round budget runs out.
//
// Each Run gets a fresh Conversation; nothing carries over between prompts.
type Loop struct {
	id       string
	client   *unifiedllm.Client
	registry *ToolRegistry
	env      ExecutionEnvironment
	config   LoopConfig
	sink     EventSink
	state    LoopState
}

// NewLoop creates a Loop. A nil config uses defaults; a nil sink discards
// events.
func NewLoop(client *unifiedllm.Client, registry *ToolRegistry, env ExecutionEnvironment, config *LoopConfig, sink EventSink) *Loop {
	cfg := DefaultLoopConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultLoopConfig().MaxRounds
	}
	if sink == nil {
		sink = NopSink
	}
	return &Loop{
		id:       uuid.New().String(),
		client:   client,
		registry: registry,
		env:      env,
		config:   cfg,
		sink:     sink,
		state:    StateAwaitingModel,
	}
}

// ID returns the loop identifier.
func (l *Loop) ID() string { return l.id }

// State returns the loop state as of the most recent transition.
func (l *Loop) State() LoopState { return l.state }

// Run processes one user prompt to completion. Tool-level failures are
// absorbed into Tool Result content and never end the run; completion-service
// transport failures propagate to the caller, ending the prompt's processing
// with no result.
func (l *Loop) Run(ctx context.Context, prompt string) (*Result, error) {
	conv := NewConversation(prompt)
	systemPrompt := BuildSystemPrompt(l.env)
	toolDefs := l.toolDefinitions()

	var usage unifiedllm.Usage
	dispatched := 0

	for round := 1; ; round++ {
		l.state = StateAwaitingModel

		if round > l.config.MaxRounds {
			l.state = StateLimitReached
			emit(l.sink, EventRoundLimit, round-1, nil)
			return &Result{
				Text:      LimitReachedMessage,
				State:     StateLimitReached,
				Rounds:    round - 1,
				ToolCalls: dispatched,
				Usage:     usage,
			}, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req := unifiedllm.Request{
			Model:      l.config.Model,
			Provider:   l.config.Provider,
			Messages:   append([]unifiedllm.Message{unifiedllm.SystemMessage(systemPrompt)}, conv.Messages()...),
			ToolDefs:   toolDefs,
			ToolChoice: &unifiedllm.ToolChoice{Mode: "auto"},
		}
		if l.config.MaxTokens > 0 {
			req.MaxTokens = &l.config.MaxTokens
		}

		resp, err := l.client.Complete(ctx, req)
		if err != nil {
			// Transport failures are not retried here; they end the prompt.
			return nil, err
		}
		usage = usage.Add(resp.Usage)

		calls := resp.ToolCallsFromResponse()
		if len(calls) == 0 {
			l.state = StateDone
			return &Result{
				Text:      resp.Text(),
				State:     StateDone,
				Rounds:    round,
				ToolCalls: dispatched,
				Usage:     usage,
			}, nil
		}

		// Text alongside tool calls is recorded in the conversation but is
		// never part of the returned answer.
		l.state = StateDispatchingTools
		conv.Append(NewAssistantTurn(resp.Text(), calls))

		// Strictly sequential, in request order.
		results := make([]unifiedllm.ToolResult, len(calls))
		for i, call := range calls {
			results[i] = l.registry.Dispatch(call, l.env)
			dispatched++
			emit(l.sink, EventToolCall, round, &ToolLogEntry{
				Name:      call.Name,
				Arguments: call.Arguments,
				Output:    results[i].Content,
				IsError:   results[i].IsError,
			})
		}
		conv.Append(NewToolResultsTurn(results))
	}
}

// toolDefinitions converts the registry's descriptors for the request. The
// list is built once per Run and reused verbatim on every round.
func (l *Loop) toolDefinitions() []unifiedllm.ToolDefinition {
	defs := l.registry.Definitions()
	out := make([]unifiedllm.ToolDefinition, len(defs))
	for i, d := range defs {
		out[i] = unifiedllm.ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		}
	}
	return out
}
