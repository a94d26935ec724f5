package history

import "github.com/hupe1980/chatmesh/core"

// DefaultWindowSize is the message window used when none is configured.
const DefaultWindowSize = 5

// Reducer bounds the context handed to agents and strategies.
//
// Implementations must be deterministic and idempotent, return a suffix of
// the input in the same order, and keep the most recent message whenever the
// input is non-empty. The input slice must not be modified.
type Reducer interface {
	Reduce(messages []core.Message) []core.Message
}

// ReducerFunc adapts a function to the Reducer interface.
type ReducerFunc func(messages []core.Message) []core.Message

// Reduce implements Reducer.
func (f ReducerFunc) Reduce(messages []core.Message) []core.Message { return f(messages) }

// WindowReducer keeps the last Size messages.
type WindowReducer struct {
	Size int
}

// NewWindowReducer creates a count based reducer. Non-positive sizes fall
// back to DefaultWindowSize.
func NewWindowReducer(size int) *WindowReducer {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &WindowReducer{Size: size}
}

// Reduce implements Reducer.
func (r *WindowReducer) Reduce(messages []core.Message) []core.Message {
	size := r.Size
	if size <= 0 {
		size = DefaultWindowSize
	}

	start := 0
	if len(messages) > size {
		start = len(messages) - size
	}

	return clone(messages[start:])
}

// Identity returns the input unchanged (as a copy).
func Identity() Reducer {
	return ReducerFunc(clone)
}

func clone(messages []core.Message) []core.Message {
	out := make([]core.Message, len(messages))
	copy(out, messages)
	return out
}
