package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/flow"
	"github.com/hupe1980/chatmesh/logging"
	"github.com/hupe1980/chatmesh/model"
	"github.com/hupe1980/chatmesh/tool"
)

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Description     string
	Instruction     Instruction
	EnableStreaming bool
	MaxToolRounds   int
	Tools           []tool.Tool
	Logger          logging.Logger
}

// ModelAgent answers turns with a language model.
//
// Without tools it runs the plain flow (persona, transcript, one model call).
// With tools it runs the tool flow, splicing tool results into the request
// until the model answers in text. Tool failures become notes in the message;
// model failures are returned from Respond.
type ModelAgent struct {
	BaseAgent
	llm             model.Model
	instruction     Instruction
	tools           *tool.Set
	enableStreaming bool
	maxToolRounds   int
	logger          logging.Logger
	selector        *flow.Selector
}

// NewModelAgent creates a model-based agent.
//
// Defaults: a generic persona, no tools, non-streaming requests and
// flow.DefaultMaxToolRounds tool rounds.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction:   NewInstructionFromText(fmt.Sprintf("You are %s, a helpful participant in a group conversation.", name)),
		MaxToolRounds: flow.DefaultMaxToolRounds,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	base := NewBaseAgent(name)
	if opts.Description != "" {
		base.description = opts.Description
	}

	return &ModelAgent{
		BaseAgent:       base,
		llm:             llm,
		instruction:     opts.Instruction,
		tools:           tool.NewSet(opts.Tools...),
		enableStreaming: opts.EnableStreaming,
		maxToolRounds:   opts.MaxToolRounds,
		logger:          logging.OrNoOp(opts.Logger),
		selector:        flow.NewSelector(),
	}
}

// RegisterTools adds tools to the agent's capability set. Tools registered
// after the conversation started are visible from the next turn on.
func (a *ModelAgent) RegisterTools(tools ...tool.Tool) {
	for _, t := range tools {
		a.tools.Add(t)
	}
}

// HasTool checks if a tool is registered with the agent.
func (a *ModelAgent) HasTool(name string) bool {
	_, ok := a.tools.Get(name)
	return ok
}

// Model implements flow.FlowAgent.
func (a *ModelAgent) Model() model.Model { return a.llm }

// Tools implements flow.FlowAgent.
func (a *ModelAgent) Tools() *tool.Set { return a.tools }

// IsStreamingEnabled implements flow.FlowAgent.
func (a *ModelAgent) IsStreamingEnabled() bool { return a.enableStreaming }

// MaxToolRounds implements flow.FlowAgent.
func (a *ModelAgent) MaxToolRounds() int { return a.maxToolRounds }

// ResolveInstructions implements flow.FlowAgent.
func (a *ModelAgent) ResolveInstructions(turn *flow.Turn) (string, error) {
	return a.instruction.Resolve(turn)
}

// Respond implements core.Agent.
func (a *ModelAgent) Respond(ctx context.Context, view []core.Message) (core.Message, error) {
	turn := flow.NewTurn(ctx, view, a.Participants(), a.logger)
	fl := a.selector.SelectFlow(a)

	a.logger.Debug("agent.flow.selected", "agent", a.Name(), "flow", fmt.Sprintf("%T", fl), "view", len(view))

	start := time.Now()

	res, err := fl.Run(turn)
	if err != nil {
		a.logger.Error("agent.respond.error", "agent", a.Name(), "error", err.Error())
		return core.Message{}, fmt.Errorf("agent %s: %w", a.Name(), err)
	}

	a.logger.Debug("agent.respond.complete",
		"agent", a.Name(),
		"model_calls", res.ModelCalls,
		"tool_calls", res.ToolCalls,
		"tool_failures", len(res.ToolFailures),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	msg := core.NewAgentMessage(a.Name(), res.Content)
	msg.Actions = res.Actions

	return msg, nil
}
