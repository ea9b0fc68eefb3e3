package agentloop

import "fmt"

// ToolErrorKind classifies tool-level failures. Every kind is reported back
// to the model as Tool Result content; none of them terminate the loop.
type ToolErrorKind string

const (
	ErrValidation  ToolErrorKind = "validation"   // bad or missing tool arguments
	ErrIO          ToolErrorKind = "io"           // filesystem failure
	ErrNotFound    ToolErrorKind = "not_found"    // edit target text absent
	ErrExecution   ToolErrorKind = "execution"    // non-zero exit or timeout
	ErrUnknownTool ToolErrorKind = "unknown_tool" // unregistered tool name
)

// ToolError is the base error type for all tool failures. Its string form
// becomes the Tool Result content so the model can see the failure and react.
type ToolError struct {
	Kind    ToolErrorKind
	Message string
	Cause   error

	// Captured streams, populated for execution errors so partial output
	// produced before the failure is not lost.
	Stdout string
	Stderr string
}

func (e *ToolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.Cause
}

// Render produces the Tool Result content for this error, including any
// captured streams.
func (e *ToolError) Render() string {
	out := e.Error()
	if e.Stdout != "" {
		out += "\nstdout:\n" + e.Stdout
	}
	if e.Stderr != "" {
		out += "\nstderr:\n" + e.Stderr
	}
	return out
}

// Validationf creates a ValidationError-class ToolError.
func Validationf(format string, args ...interface{}) *ToolError {
	return &ToolError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// IOErrorf creates an IOError-class ToolError wrapping cause.
func IOErrorf(cause error, format string, args ...interface{}) *ToolError {
	return &ToolError{Kind: ErrIO, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// NotFoundf creates a NotFoundError-class ToolError.
func NotFoundf(format string, args ...interface{}) *ToolError {
	return &ToolError{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// Executionf creates an ExecutionError-class ToolError carrying the captured
// streams.
func Executionf(stdout, stderr string, format string, args ...interface{}) *ToolError {
	return &ToolError{
		Kind:    ErrExecution,
		Message: fmt.Sprintf(format, args...),
		Stdout:  stdout,
		Stderr:  stderr,
	}
}

// UnknownToolf creates an UnknownToolError-class ToolError.
func UnknownToolf(format string, args ...interface{}) *ToolError {
	return &ToolError{Kind: ErrUnknownTool, Message: fmt.Sprintf(format, args...)}
}
