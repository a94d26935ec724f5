package agent

import (
	"fmt"
	"sync"
)

// BaseAgent bundles identity helpers shared by concrete agents. Embed it and
// supply Respond to satisfy core.Agent. All exported methods are goroutine-safe.
type BaseAgent struct {
	name         string
	description  string
	mu           sync.RWMutex
	participants []string
}

// NewBaseAgent constructs a BaseAgent with a generated description.
func NewBaseAgent(name string) BaseAgent {
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
}

// Name returns the participant name.
func (b *BaseAgent) Name() string { return b.name }

// Description returns what the agent is for; selectors show it to judges.
func (b *BaseAgent) Description() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.description
}

// SetDescription updates the agent's description.
func (b *BaseAgent) SetDescription(desc string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.description = desc
}

// SetParticipants records the names of everyone in the conversation. The
// registry calls it when it is frozen.
func (b *BaseAgent) SetParticipants(names []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.participants = append([]string(nil), names...)
}

// Participants returns a copy of the known participant names.
func (b *BaseAgent) Participants() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.participants...)
}
