package agent

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/chatmesh/core"
)

var (
	// ErrEmptyAgentName is returned when registering an agent without a name.
	ErrEmptyAgentName = errors.New("agent name must not be empty")
	// ErrDuplicateAgent is returned when a name is registered twice.
	ErrDuplicateAgent = errors.New("agent already registered")
	// ErrAgentNotFound is returned by Get for unknown names.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrRegistryFrozen is returned when registering into a frozen registry.
	ErrRegistryFrozen = errors.New("agent registry is frozen")
	// ErrReservedAgentName is returned for core.UserSpeaker, the speaker of
	// the seeded task message.
	ErrReservedAgentName = errors.New("agent name is reserved")
)

// participantAware is implemented by agents that want to know who else is in
// the conversation (persona templates use it).
type participantAware interface {
	SetParticipants(names []string)
}

// Registry is the ordered set of conversation participants. Order defines
// round-robin succession. Once frozen (by the group chat controller) it can
// no longer change.
type Registry struct {
	mu     sync.RWMutex
	order  []core.Agent
	index  map[string]core.Agent
	frozen bool
}

// NewRegistry creates a registry holding agents in the given order.
func NewRegistry(agents ...core.Agent) (*Registry, error) {
	r := &Registry{index: make(map[string]core.Agent)}
	for _, a := range agents {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a to the participant order.
func (r *Registry) Register(a core.Agent) error {
	if a == nil {
		return fmt.Errorf("register agent: %w", ErrEmptyAgentName)
	}

	name := a.Name()
	if strings.TrimSpace(name) == "" {
		return ErrEmptyAgentName
	}

	if name == core.UserSpeaker {
		return fmt.Errorf("register %q: %w", name, ErrReservedAgentName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("register %q: %w", name, ErrRegistryFrozen)
	}

	if _, exists := r.index[name]; exists {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateAgent)
	}

	r.order = append(r.order, a)
	r.index[name] = a

	return nil
}

// Get returns the agent registered under name.
func (r *Registry) Get(name string) (core.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.index[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrAgentNotFound)
	}

	return a, nil
}

// Has reports whether name is a participant.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.index[name]

	return ok
}

// Names returns participant names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	for i, a := range r.order {
		names[i] = a.Name()
	}

	return names
}

// Agents returns participants in order.
func (r *Registry) Agents() []core.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

// Len returns the number of participants.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Describe renders "name: description" lines in participant order.
func (r *Registry) Describe() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lines := make([]string, len(r.order))
	for i, a := range r.order {
		lines[i] = fmt.Sprintf("%s: %s", a.Name(), a.Description())
	}

	return strings.Join(lines, "\n")
}

// Freeze prevents further registration and tells participant-aware agents
// who is in the conversation. Freezing twice is a no-op.
func (r *Registry) Freeze() {
	r.mu.Lock()
	if r.frozen {
		r.mu.Unlock()
		return
	}
	r.frozen = true
	agents := slices.Clone(r.order)
	r.mu.Unlock()

	names := make([]string, len(agents))
	for i, a := range agents {
		names[i] = a.Name()
	}

	for _, a := range agents {
		if pa, ok := a.(participantAware); ok {
			pa.SetParticipants(names)
		}
	}
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.frozen
}
