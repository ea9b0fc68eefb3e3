package agentloop

import (
	"encoding/json"
	"time"
)

// EventKind identifies the type of loop event.
type EventKind string

const (
	EventToolCall   EventKind = "tool_call"
	EventRoundLimit EventKind = "round_limit"
)

// ToolLogEntry records one dispatched tool call for operator-facing display.
// It is ephemeral and never part of the conversation.
type ToolLogEntry struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	Output    string          `json:"output"`
	IsError   bool            `json:"is_error"`
}

// Event is a notification from the loop to its host.
type Event struct {
	Kind      EventKind     `json:"kind"`
	Timestamp time.Time     `json:"timestamp"`
	Round     int           `json:"round"`
	Tool      *ToolLogEntry `json:"tool,omitempty"`
}

// EventSink receives loop events. Sinks are invoked synchronously from the
// loop goroutine, so tool notifications are always delivered in dispatch
// order and before the final answer is returned.
type EventSink func(Event)

// NopSink discards all events.
func NopSink(Event) {}

func emit(sink EventSink, kind EventKind, round int, tool *ToolLogEntry) {
	if sink == nil {
		return
	}
	sink(Event{
		Kind:      kind,
		Timestamp: time.Now(),
		Round:     round,
		Tool:      tool,
	})
}
