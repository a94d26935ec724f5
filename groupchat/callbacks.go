package groupchat

import (
	"context"
	"time"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/logging"
)

// CallbackType names a point in the conversation lifecycle.
type CallbackType string

const (
	// CallbackConversationStart fires after the task has been seeded.
	CallbackConversationStart CallbackType = "conversation_start"
	// CallbackBeforeTurn fires once the next speaker is known.
	CallbackBeforeTurn CallbackType = "before_turn"
	// CallbackAfterTurn fires after the message has been appended.
	CallbackAfterTurn CallbackType = "after_turn"
	// CallbackSelectionOverride fires when the controller corrects the
	// selection strategy.
	CallbackSelectionOverride CallbackType = "selection_override"
	// CallbackVerdict fires after every termination check.
	CallbackVerdict CallbackType = "verdict"
	// CallbackOnError fires when an agent or the context aborts the conversation.
	CallbackOnError CallbackType = "on_error"
	// CallbackConversationEnd fires exactly once with the final state.
	CallbackConversationEnd CallbackType = "conversation_end"
)

// CallbackContext describes the lifecycle point a callback runs at. Fields
// that do not apply to a callback type are zero.
type CallbackContext struct {
	Type           CallbackType
	ConversationID string
	// Agent is the selected speaker (turn callbacks) or the corrected pick
	// (selection override).
	Agent string
	// Requested is the speaker the selection strategy asked for.
	Requested string
	Iteration int
	Message   *core.Message
	Verdict   core.Verdict
	Duration  time.Duration
	State     State
	Err       error
	Metadata  map[string]any
}

// Callback hooks into the conversation lifecycle. Callbacks run
// synchronously on the conversation goroutine. An error returned from a
// start, before-turn or after-turn callback aborts the conversation; errors
// from other types are logged.
type Callback interface {
	Type() CallbackType
	Execute(ctx context.Context, cc *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, cc *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(callbackType CallbackType, fn func(ctx context.Context, cc *CallbackContext) error) *FunctionCallback {
	return &FunctionCallback{callbackType: callbackType, fn: fn}
}

// Type implements Callback.
func (c *FunctionCallback) Type() CallbackType { return c.callbackType }

// Execute implements Callback.
func (c *FunctionCallback) Execute(ctx context.Context, cc *CallbackContext) error {
	return c.fn(ctx, cc)
}

// CallbackManager routes lifecycle events to registered callbacks in
// registration order. Register everything before the first conversation
// starts; execution is then safe for concurrent conversations.
type CallbackManager struct {
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates an empty manager.
func NewCallbackManager(callbacks ...Callback) *CallbackManager {
	cm := &CallbackManager{callbacks: make(map[CallbackType][]Callback)}
	for _, cb := range callbacks {
		cm.Register(cb)
	}
	return cm
}

// Register adds a callback.
func (cm *CallbackManager) Register(cb Callback) {
	cm.callbacks[cb.Type()] = append(cm.callbacks[cb.Type()], cb)
}

// Len returns how many callbacks are registered for t.
func (cm *CallbackManager) Len(t CallbackType) int { return len(cm.callbacks[t]) }

// Execute runs the callbacks registered for cc.Type and stops at the first error.
func (cm *CallbackManager) Execute(ctx context.Context, cc *CallbackContext) error {
	for _, cb := range cm.callbacks[cc.Type] {
		if err := cb.Execute(ctx, cc); err != nil {
			return err
		}
	}
	return nil
}

// LoggingCallback writes lifecycle events to a logger as
// "groupchat.callback.<type>".
type LoggingCallback struct {
	callbackType CallbackType
	logger       logging.Logger
}

// NewLoggingCallback creates a logging callback for one lifecycle point.
func NewLoggingCallback(callbackType CallbackType, logger logging.Logger) *LoggingCallback {
	return &LoggingCallback{callbackType: callbackType, logger: logging.OrNoOp(logger)}
}

// Type implements Callback.
func (c *LoggingCallback) Type() CallbackType { return c.callbackType }

// Execute implements Callback.
func (c *LoggingCallback) Execute(_ context.Context, cc *CallbackContext) error {
	args := []any{"conversation_id", cc.ConversationID, "iteration", cc.Iteration}
	if cc.Agent != "" {
		args = append(args, "agent", cc.Agent)
	}
	if cc.Requested != "" {
		args = append(args, "requested", cc.Requested)
	}
	if cc.Message != nil {
		args = append(args, "sequence", cc.Message.Sequence)
	}
	if cc.Type == CallbackConversationEnd {
		args = append(args, "outcome", cc.State.Outcome.String(), "reason", cc.State.Reason)
	}
	if cc.Err != nil {
		args = append(args, "error", cc.Err.Error())
	}

	c.logger.Info("groupchat.callback."+string(cc.Type), args...)

	return nil
}
