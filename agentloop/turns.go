package agentloop

import (
	"time"

	"github.com/loomworks/loom/unifiedllm"
)

// TurnKind discriminates between turn types.
type TurnKind string

const (
	TurnUser        TurnKind = "user"
	TurnAssistant   TurnKind = "assistant"
	TurnToolResults TurnKind = "tool_results"
)

// Turn is a single entry in the conversation. Turns alternate between the
// user/tool-result side and the assistant side; one assistant turn may bundle
// multiple tool call requests, and the following tool-results turn carries
// exactly one result per request, in request order.
type Turn struct {
	Kind        TurnKind         `json:"kind"`
	Timestamp   time.Time        `json:"timestamp"`
	User        *UserTurn        `json:"user,omitempty"`
	Assistant   *AssistantTurn   `json:"assistant,omitempty"`
	ToolResults *ToolResultsTurn `json:"tool_results,omitempty"`
}

// UserTurn holds user input.
type UserTurn struct {
	Content string `json:"content"`
}

// AssistantTurn holds the model's response as returned: its text content and
// any tool call requests it issued.
type AssistantTurn struct {
	Content   string                `json:"content"`
	ToolCalls []unifiedllm.ToolCall `json:"tool_calls,omitempty"`
}

// ToolResultsTurn holds the results for one round of tool dispatch.
type ToolResultsTurn struct {
	Results []unifiedllm.ToolResult `json:"results"`
}

// NewUserTurn creates a Turn wrapping user input.
func NewUserTurn(content string) Turn {
	return Turn{
		Kind:      TurnUser,
		Timestamp: time.Now(),
		User:      &UserTurn{Content: content},
	}
}

// NewAssistantTurn creates a Turn wrapping an assistant response.
func NewAssistantTurn(content string, toolCalls []unifiedllm.ToolCall) Turn {
	return Turn{
		Kind:      TurnAssistant,
		Timestamp: time.Now(),
		Assistant: &AssistantTurn{
			Content:   content,
			ToolCalls: toolCalls,
		},
	}
}

// NewToolResultsTurn creates a Turn wrapping one round of tool results.
func NewToolResultsTurn(results []unifiedllm.ToolResult) Turn {
	return Turn{
		Kind:        TurnToolResults,
		Timestamp:   time.Now(),
		ToolResults: &ToolResultsTurn{Results: results},
	}
}

// Conversation is the ordered turn history for one prompt. It is created at
// the start of Loop.Run, grows monotonically while the prompt is processed,
// and is discarded when Run returns.
type Conversation struct {
	turns []Turn
}

// NewConversation starts a conversation with the user's prompt.
func NewConversation(prompt string) *Conversation {
	return &Conversation{turns: []Turn{NewUserTurn(prompt)}}
}

// Append adds a turn to the conversation.
func (c *Conversation) Append(turn Turn) {
	c.turns = append(c.turns, turn)
}

// Turns returns a copy of the turn list.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Messages converts the conversation into completion-service messages. Tool
// results become one tool message each, in the order they were recorded, so
// result order always matches request order.
func (c *Conversation) Messages() []unifiedllm.Message {
	var messages []unifiedllm.Message
	for _, turn := range c.turns {
		switch turn.Kind {
		case TurnUser:
			if turn.User != nil {
				messages = append(messages, unifiedllm.UserMessage(turn.User.Content))
			}
		case TurnAssistant:
			if turn.Assistant != nil {
				msg := unifiedllm.AssistantMessage(turn.Assistant.Content)
				for _, tc := range turn.Assistant.ToolCalls {
					msg.Content = append(msg.Content,
						unifiedllm.ToolCallPart(tc.ID, tc.Name, tc.Arguments))
				}
				messages = append(messages, msg)
			}
		case TurnToolResults:
			if turn.ToolResults != nil {
				for _, result := range turn.ToolResults.Results {
					messages = append(messages,
						unifiedllm.ToolResultMessage(result.ToolCallID, result.Content, result.IsError))
				}
			}
		}
	}
	return messages
}
