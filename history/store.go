package history

import (
	"sync"
	"time"

	"github.com/hupe1980/chatmesh/core"
)

// Store is an append-only, in-memory conversation log. It is safe for
// concurrent readers; there is no removal or edit API.
type Store struct {
	mu       sync.RWMutex
	messages []core.Message
	now      func() time.Time
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Append stamps msg with the next sequence number, a fresh ID (when unset)
// and the current time, stores it and returns the stored copy.
func (s *Store) Append(msg core.Message) core.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.Sequence = len(s.messages) + 1
	if msg.ID == "" {
		msg.ID = core.NewID()
	}
	msg.Timestamp = s.now()

	s.messages = append(s.messages, msg)

	return msg
}

// Messages returns a copy of the full log in sequence order.
func (s *Store) Messages() []core.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Message, len(s.messages))
	copy(out, s.messages)

	return out
}

// Len returns the number of stored messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.messages)
}

// Last returns the most recent message, or false when the store is empty.
func (s *Store) Last() (core.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.messages) == 0 {
		return core.Message{}, false
	}

	return s.messages[len(s.messages)-1], true
}
