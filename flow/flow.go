// Package flow provides the per-turn execution pipeline of model backed agents.
//
// A flow turns the reduced conversation view into a model request through an
// ordered chain of request processors, calls the model, executes requested
// tools, splices their responses back into the request and repeats until the
// model answers in text or the tool round budget is spent. The outcome is the
// content and actions of exactly one conversation message.
package flow

import (
	"context"
	"time"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/logging"
	"github.com/hupe1980/chatmesh/model"
	"github.com/hupe1980/chatmesh/tool"
)

// DefaultMaxToolRounds bounds how many times a flow executes tool calls in one turn.
const DefaultMaxToolRounds = 3

// Flow produces one turn for an agent.
type Flow interface {
	Run(turn *Turn) (Result, error)
}

// FlowAgent is the view of an agent a flow needs.
type FlowAgent interface {
	// Name returns the agent's participant name.
	Name() string

	// Model returns the language model backing the agent.
	Model() model.Model

	// ResolveInstructions returns the raw (untemplated) persona text.
	ResolveInstructions(turn *Turn) (string, error)

	// Tools returns the tools the model may call.
	Tools() *tool.Set

	// IsStreamingEnabled reports whether model requests ask for streaming.
	IsStreamingEnabled() bool

	// MaxToolRounds bounds tool execution rounds per turn.
	MaxToolRounds() int
}

// Turn carries the inputs of one agent turn through processors and tools.
type Turn struct {
	Context      context.Context
	View         []core.Message
	Participants []string
	Now          time.Time
	Logger       logging.Logger
}

// NewTurn creates a turn for view at the current time.
func NewTurn(ctx context.Context, view []core.Message, participants []string, logger logging.Logger) *Turn {
	return &Turn{
		Context:      ctx,
		View:         view,
		Participants: participants,
		Now:          time.Now(),
		Logger:       logging.OrNoOp(logger),
	}
}

// Result is the outcome of a flow run.
type Result struct {
	// Content is the final message text including any tool failure notes.
	Content string
	// Actions accumulated by tools during the turn.
	Actions core.MessageActions
	// ToolFailures lists "<tool> failed: <err>" notes for failed calls.
	ToolFailures []string
	// ModelCalls counts model round trips.
	ModelCalls int
	// ToolCalls counts executed tool calls.
	ToolCalls int
}

// RequestProcessor prepares the model request before each model call.
type RequestProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessRequest modifies the request.
	ProcessRequest(turn *Turn, req *model.Request, agent FlowAgent) error
}

// ResponseProcessor post-processes the final model response of each call.
type ResponseProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessResponse may rewrite the response in place.
	ProcessResponse(turn *Turn, resp *model.Response, agent FlowAgent) error
}
