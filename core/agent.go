package core

import "context"

// Agent is a named participant in a group conversation.
//
// Respond receives the reduced view of the shared history and produces exactly
// one new message. The returned message is unsequenced; the controller stamps
// Speaker, Sequence, ID and Timestamp when it appends it to the history.
//
// Implementations must:
//   - Treat view as read-only (it is a copy owned by the controller)
//   - Respect ctx cancellation while waiting on external capabilities
//   - Return an error only for unrecoverable backend failures; degraded
//     conditions (for example a failing tool) belong in the message text
type Agent interface {
	Name() string
	Description() string
	Respond(ctx context.Context, view []Message) (Message, error)
}

// AgentInfo carries identifying details about an agent used in tool contexts
// and log records.
type AgentInfo struct{ Name, Description string }

// InfoOf extracts the AgentInfo of a.
func InfoOf(a Agent) AgentInfo {
	return AgentInfo{Name: a.Name(), Description: a.Description()}
}
