package flow

// SingleAgentFlow is the plain conversational flow: persona, transcript,
// one model call. No tools are exposed.
type SingleAgentFlow struct{ *BaseFlow }

// NewSingleAgentFlow creates a flow for agents without tools.
func NewSingleAgentFlow(agent FlowAgent) *SingleAgentFlow {
	baseFlow := NewBaseFlow(agent)

	baseFlow.AddRequestProcessor(NewInstructionsProcessor())
	baseFlow.AddRequestProcessor(NewContentsProcessor())
	baseFlow.AddResponseProcessor(NewSpeakerPrefixProcessor())

	return &SingleAgentFlow{BaseFlow: baseFlow}
}

// ToolAgentFlow extends the plain flow with tool definitions and the tool
// call loop (model -> tools -> model) bounded by the agent's MaxToolRounds.
type ToolAgentFlow struct{ *BaseFlow }

// NewToolAgentFlow creates a flow for tool-using agents.
func NewToolAgentFlow(agent FlowAgent) *ToolAgentFlow {
	baseFlow := NewBaseFlow(agent)

	baseFlow.AddRequestProcessor(NewInstructionsProcessor())
	baseFlow.AddRequestProcessor(NewContentsProcessor())
	baseFlow.AddRequestProcessor(NewToolsProcessor())
	baseFlow.AddResponseProcessor(NewSpeakerPrefixProcessor())

	return &ToolAgentFlow{BaseFlow: baseFlow}
}
