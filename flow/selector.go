package flow

// Selector determines which flow to use based on agent capabilities.
type Selector struct{}

// NewSelector creates a new flow selector.
func NewSelector() *Selector { return &Selector{} }

// SelectFlow returns a ToolAgentFlow when the agent has tools and a
// SingleAgentFlow otherwise.
func (s *Selector) SelectFlow(agent FlowAgent) Flow {
	if tools := agent.Tools(); tools != nil && tools.Len() > 0 {
		return NewToolAgentFlow(agent)
	}
	return NewSingleAgentFlow(agent)
}
