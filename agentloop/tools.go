package agentloop

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"

	"github.com/loomworks/loom/unifiedllm"
)

// ToolExecutor is the function signature for tool execution. It receives the
// raw argument bag and the execution environment, and returns the rendered
// result string.
type ToolExecutor func(arguments json.RawMessage, env ExecutionEnvironment) (string, error)

// ToolDefinition describes a tool for the model (serializable metadata).
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// RegisteredTool pairs a tool definition with its executor.
type RegisteredTool struct {
	Definition ToolDefinition
	Executor   ToolExecutor
}

// ToolRegistry holds the static descriptor list and the name-to-handler
// mapping. Registration order is preserved so the descriptor list supplied to
// the model is identical on every round.
type ToolRegistry struct {
	tools map[string]*RegisteredTool
	order []string
	mu    sync.RWMutex
}

// NewToolRegistry creates an empty ToolRegistry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]*RegisteredTool),
	}
}

// Register adds or replaces a tool in the registry.
func (r *ToolRegistry) Register(tool RegisteredTool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := tool.Definition.Name
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = &tool
}

// Get returns a registered tool by name, or nil if not found.
func (r *ToolRegistry) Get(name string) *RegisteredTool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Definitions returns all tool definitions in registration order.
func (r *ToolRegistry) Definitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition)
	}
	return defs
}

// Names returns the names of all registered tools in registration order.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Count returns the number of registered tools.
func (r *ToolRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Dispatch resolves one tool call and returns its Tool Result. Expected
// tool-level failures (unknown tool, bad arguments, I/O, not-found,
// execution) are rendered into the result content with IsError set, so the
// model sees them and can react. Dispatch never panics past its boundary.
func (r *ToolRegistry) Dispatch(call unifiedllm.ToolCall, env ExecutionEnvironment) unifiedllm.ToolResult {
	registered := r.Get(call.Name)
	if registered == nil {
		return unifiedllm.ToolResult{
			ToolCallID: call.ID,
			Content:    UnknownToolf("no tool named %q is registered", call.Name).Render(),
			IsError:    true,
		}
	}

	output, err := registered.Executor(call.Arguments, env)
	if err != nil {
		var te *ToolError
		if !errors.As(err, &te) {
			te = &ToolError{Kind: ErrExecution, Message: err.Error(), Cause: err}
		}
		return unifiedllm.ToolResult{
			ToolCallID: call.ID,
			Content:    te.Render(),
			IsError:    true,
		}
	}

	return unifiedllm.ToolResult{
		ToolCallID: call.ID,
		Content:    output,
	}
}

// decodeArgs strictly decodes a raw argument bag into a typed argument
// record, rejecting unknown fields. A decode failure is a validation error.
func decodeArgs(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return Validationf("invalid tool arguments: %v", err)
	}
	return nil
}
