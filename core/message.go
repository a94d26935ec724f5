package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role classifies who produced a message.
type Role string

const (
	// RoleUser marks messages from the human side (the seeded task, a human participant).
	RoleUser Role = "user"
	// RoleAgent marks messages produced by an agent participant.
	RoleAgent Role = "agent"
	// RoleSystem marks controller or framework generated messages.
	RoleSystem Role = "system"
)

// UserSpeaker is the speaker name attached to the seeded task message.
const UserSpeaker = "user"

// MessageActions carries orchestration signals attached to a Message. Both
// fields are optional; the zero value means "no request".
type MessageActions struct {
	// TransferTo names the participant the speaker explicitly hands the floor to.
	TransferTo string `json:"transfer_to,omitempty"`
	// Escalate asks the controller to end the conversation after this message.
	Escalate bool `json:"escalate,omitempty"`
}

// Message is one entry in a group conversation. After it has been appended to
// a history store it must be treated as immutable: Sequence, ID and Timestamp
// are assigned by the store and never change.
type Message struct {
	ID        string         `json:"id"`
	Speaker   string         `json:"speaker"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Sequence  int            `json:"sequence"`
	Timestamp time.Time      `json:"timestamp"`
	Actions   MessageActions `json:"actions"`
}

// NewAgentMessage creates an unsequenced agent message.
func NewAgentMessage(speaker, content string) Message {
	return Message{Speaker: speaker, Role: RoleAgent, Content: content}
}

// NewUserMessage creates an unsequenced user message authored by speaker.
func NewUserMessage(speaker, content string) Message {
	return Message{Speaker: speaker, Role: RoleUser, Content: content}
}

// NewTaskMessage creates the seed message that opens a conversation.
func NewTaskMessage(task string) Message {
	return NewUserMessage(UserSpeaker, task)
}

// NewID generates a new unique identifier for messages and conversations.
func NewID() string { return uuid.NewString() }

// IsZero reports whether m is the zero Message.
func (m Message) IsZero() bool {
	return m.ID == "" && m.Speaker == "" && m.Content == "" && m.Sequence == 0
}

// String renders the message as "Speaker: content".
func (m Message) String() string {
	return fmt.Sprintf("%s: %s", m.Speaker, m.Content)
}

// LastSpeaker returns the speaker of the final message in view, or "" when
// view is empty.
func LastSpeaker(view []Message) string {
	if len(view) == 0 {
		return ""
	}
	return view[len(view)-1].Speaker
}

// FormatTranscript renders messages one per line as "Speaker: content",
// the shape judges and routers receive.
func FormatTranscript(view []Message) string {
	var b strings.Builder
	for i, m := range view {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.String())
	}
	return b.String()
}
