package core

import (
	"context"

	"github.com/hupe1980/chatmesh/logging"
)

// ToolContext is the constrained surface a tool sees while an agent is
// producing its message. It accumulates MessageActions (handoff, escalation)
// that the agent attaches to the message it finally returns.
type ToolContext struct {
	ctx            context.Context
	functionCallID string
	agentInfo      AgentInfo
	actions        MessageActions
	logger         logging.Logger
}

// NewToolContext constructs a tool context for one function call.
func NewToolContext(ctx context.Context, agent AgentInfo, functionCallID string, logger logging.Logger) *ToolContext {
	return &ToolContext{
		ctx:            ctx,
		functionCallID: functionCallID,
		agentInfo:      agent,
		logger:         logging.OrNoOp(logger),
	}
}

// Context returns the context of the current turn.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.logger }

// FunctionCallID returns the model supplied call identifier.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// AgentName returns the name of the agent invoking the tool.
func (tc *ToolContext) AgentName() string { return tc.agentInfo.Name }

// Actions returns the actions accumulated so far.
func (tc *ToolContext) Actions() MessageActions { return tc.actions }

// TransferToAgent records an explicit handoff to the named participant.
func (tc *ToolContext) TransferToAgent(name string) {
	tc.actions.TransferTo = name
	tc.logger.Info("tool.transfer.request", "from_agent", tc.AgentName(), "to_agent", name, "function_call_id", tc.functionCallID)
}

// Escalate asks the controller to end the conversation after this turn.
func (tc *ToolContext) Escalate() {
	tc.actions.Escalate = true
	tc.logger.Info("tool.escalate.request", "agent", tc.AgentName(), "function_call_id", tc.functionCallID)
}
