package groupchat

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/hupe1980/chatmesh/agent"
	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/history"
	"github.com/hupe1980/chatmesh/logging"
	"github.com/hupe1980/chatmesh/strategy"
)

// DefaultMaxIterations is the iteration ceiling when none is configured.
const DefaultMaxIterations = 10

var (
	// ErrNoParticipants is returned by New for a nil or empty registry.
	ErrNoParticipants = errors.New("groupchat: no participants")
	// ErrInvalidMaxIterations is returned by New when MaxIterations < 1.
	ErrInvalidMaxIterations = errors.New("groupchat: max iterations must be positive")
	// ErrMissingStrategy is returned by New when a strategy or the reducer is nil.
	ErrMissingStrategy = errors.New("groupchat: missing strategy")
	// ErrConversationStarted is yielded when a Conversation is run twice.
	ErrConversationStarted = errors.New("groupchat: conversation already started")
)

// Options configures a Controller.
type Options struct {
	Selection     strategy.SelectionStrategy
	Termination   strategy.TerminationStrategy
	Reducer       history.Reducer
	MaxIterations int
	Logger        logging.Logger
	Callbacks     []Callback
}

// WithSelection sets the selection strategy.
func WithSelection(s strategy.SelectionStrategy) func(o *Options) {
	return func(o *Options) { o.Selection = s }
}

// WithTermination sets the termination strategy.
func WithTermination(t strategy.TerminationStrategy) func(o *Options) {
	return func(o *Options) { o.Termination = t }
}

// WithReducer sets the history reducer.
func WithReducer(r history.Reducer) func(o *Options) {
	return func(o *Options) { o.Reducer = r }
}

// WithMaxIterations sets the iteration ceiling.
func WithMaxIterations(n int) func(o *Options) {
	return func(o *Options) { o.MaxIterations = n }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithCallbacks appends lifecycle callbacks.
func WithCallbacks(cbs ...Callback) func(o *Options) {
	return func(o *Options) { o.Callbacks = append(o.Callbacks, cbs...) }
}

// Controller schedules turns between the agents of a registry.
//
// Defaults: round-robin selection honouring explicit directives, no
// termination strategy (the ceiling ends the conversation), a window of
// history.DefaultWindowSize messages and DefaultMaxIterations turns.
type Controller struct {
	registry      *agent.Registry
	participants  []string
	selection     strategy.SelectionStrategy
	termination   strategy.TerminationStrategy
	reducer       history.Reducer
	maxIterations int
	logger        logging.Logger
	callbacks     *CallbackManager
}

// New validates the configuration and freezes the registry.
func New(registry *agent.Registry, optFns ...func(o *Options)) (*Controller, error) {
	opts := Options{
		Selection:     &strategy.RoundRobinSelection{Router: strategy.DirectiveRouter{}},
		Termination:   strategy.NeverTerminate(),
		Reducer:       history.NewWindowReducer(history.DefaultWindowSize),
		MaxIterations: DefaultMaxIterations,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if registry == nil || registry.Len() == 0 {
		return nil, ErrNoParticipants
	}

	if opts.MaxIterations < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxIterations, opts.MaxIterations)
	}

	switch {
	case opts.Selection == nil:
		return nil, fmt.Errorf("%w: selection", ErrMissingStrategy)
	case opts.Termination == nil:
		return nil, fmt.Errorf("%w: termination", ErrMissingStrategy)
	case opts.Reducer == nil:
		return nil, fmt.Errorf("%w: reducer", ErrMissingStrategy)
	}

	registry.Freeze()

	return &Controller{
		registry:      registry,
		participants:  registry.Names(),
		selection:     opts.Selection,
		termination:   opts.Termination,
		reducer:       opts.Reducer,
		maxIterations: opts.MaxIterations,
		logger:        logging.OrNoOp(opts.Logger),
		callbacks:     NewCallbackManager(opts.Callbacks...),
	}, nil
}

// Participants returns participant names in round-robin order.
func (c *Controller) Participants() []string {
	return append([]string(nil), c.participants...)
}

// MaxIterations returns the iteration ceiling.
func (c *Controller) MaxIterations() int { return c.maxIterations }

// NewConversation creates a conversation with fresh state.
func (c *Controller) NewConversation() *Conversation {
	return newConversation(c)
}

// Run starts a fresh conversation on task. Use NewConversation to inspect
// the final State.
func (c *Controller) Run(ctx context.Context, task string) iter.Seq2[core.Message, error] {
	return c.NewConversation().Run(ctx, task)
}

// successor returns the participant after name in round-robin order, or the
// first participant when name is not one.
func (c *Controller) successor(name string) string {
	for i, p := range c.participants {
		if p == name {
			return c.participants[(i+1)%len(c.participants)]
		}
	}
	return c.participants[0]
}
