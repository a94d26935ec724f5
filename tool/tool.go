// Package tool implements the function calling subsystem that lets agents
// invoke structured capabilities (web search, handoff, escalation) with schema
// validated arguments and uniform error handling.
package tool

import (
	"fmt"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/internal/util"
)

// Tool defines the interface for extending agent capabilities with external functions.
//
// Tool failures are recoverable: the agent turns them into degraded message
// text instead of aborting the conversation.
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description is shown to the model to decide when to call the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Call executes the tool with already decoded arguments.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// Error codes attached to ToolError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeNotFound   = "TOOL_NOT_FOUND"
	CodeBadInput   = "INVALID_ARGUMENTS"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}

// Set is a name indexed collection of tools preserving registration order.
type Set struct {
	order []Tool
	index map[string]Tool
}

// NewSet builds a Set; later tools with a duplicate name replace earlier ones.
func NewSet(tools ...Tool) *Set {
	s := &Set{index: map[string]Tool{}}
	for _, t := range tools {
		s.Add(t)
	}
	return s
}

// Add registers t.
func (s *Set) Add(t Tool) {
	if _, ok := s.index[t.Name()]; !ok {
		s.order = append(s.order, t)
	} else {
		for i, existing := range s.order {
			if existing.Name() == t.Name() {
				s.order[i] = t
			}
		}
	}
	s.index[t.Name()] = t
}

// Get returns the tool registered under name.
func (s *Set) Get(name string) (Tool, bool) {
	t, ok := s.index[name]
	return t, ok
}

// All returns the tools in registration order.
func (s *Set) All() []Tool { return append([]Tool(nil), s.order...) }

// Len returns the number of tools.
func (s *Set) Len() int { return len(s.order) }
