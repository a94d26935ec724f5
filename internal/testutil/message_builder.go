package testutil

import (
	"time"

	"github.com/hupe1980/chatmesh/core"
)

// MessageBuilder provides a fluent helper for constructing messages in tests.
// Example:
//
//	m := NewMessageBuilder().Speaker("writer").Content("draft").Seq(2).Build()
type MessageBuilder struct {
	msg core.Message
}

// NewMessageBuilder creates a builder with speaker "agent" and role agent.
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{msg: core.Message{Speaker: "agent", Role: core.RoleAgent}}
}

// Speaker sets the speaker name (chainable).
func (b *MessageBuilder) Speaker(s string) *MessageBuilder { b.msg.Speaker = s; return b }

// Content sets the message body (chainable).
func (b *MessageBuilder) Content(c string) *MessageBuilder { b.msg.Content = c; return b }

// User marks the message as authored by the human side (chainable).
func (b *MessageBuilder) User() *MessageBuilder { b.msg.Role = core.RoleUser; return b }

// Seq sets the sequence number (chainable).
func (b *MessageBuilder) Seq(n int) *MessageBuilder { b.msg.Sequence = n; return b }

// TransferTo sets an explicit handoff action (chainable).
func (b *MessageBuilder) TransferTo(name string) *MessageBuilder {
	b.msg.Actions.TransferTo = name
	return b
}

// Escalate sets the escalate action (chainable).
func (b *MessageBuilder) Escalate() *MessageBuilder { b.msg.Actions.Escalate = true; return b }

// Build finalizes the message, filling ID and Timestamp when unset.
func (b *MessageBuilder) Build() core.Message {
	m := b.msg
	if m.ID == "" {
		m.ID = core.NewID()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	return m
}

// History builds a sequenced view from alternating speaker/content pairs,
// numbering messages from first.
//
//	view := History(1, "user", "task", "writer", "draft")
func History(first int, pairs ...string) []core.Message {
	view := make([]core.Message, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		b := NewMessageBuilder().Speaker(pairs[i]).Content(pairs[i+1]).Seq(first + i/2)
		if pairs[i] == core.UserSpeaker {
			b.User()
		}
		view = append(view, b.Build())
	}
	return view
}

// Speakers builds a sequenced view where each message is authored by the
// given speaker and carries content "<speaker> says".
func Speakers(first int, names ...string) []core.Message {
	pairs := make([]string, 0, len(names)*2)
	for _, n := range names {
		pairs = append(pairs, n, n+" says")
	}
	return History(first, pairs...)
}
