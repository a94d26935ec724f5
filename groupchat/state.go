package groupchat

// Outcome classifies how a conversation ended.
type Outcome int

const (
	// OutcomeRunning means the conversation has not ended yet.
	OutcomeRunning Outcome = iota
	// OutcomeCompleted means a termination strategy or an escalating
	// participant ended the conversation.
	OutcomeCompleted
	// OutcomeIterationLimit means the iteration ceiling was reached.
	OutcomeIterationLimit
	// OutcomeAborted means a fatal error (agent backend, context) ended the
	// conversation. State.Err holds the cause.
	OutcomeAborted
	// OutcomeCancelled means the consumer stopped pulling messages.
	OutcomeCancelled
)

// Reasons recorded for outcomes the controller decides itself.
const (
	ReasonIterationLimit = "iteration limit reached"
	ReasonStopped        = "stopped by caller"
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRunning:
		return "running"
	case OutcomeCompleted:
		return "completed"
	case OutcomeIterationLimit:
		return "iteration_limit"
	case OutcomeAborted:
		return "aborted"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// State is the controller-owned bookkeeping of one conversation.
type State struct {
	ConversationID string
	// Iterations counts agent turns; the seeded task is not a turn.
	Iterations int
	// Terminated is true when the conversation completed (termination
	// strategy or escalation).
	Terminated bool
	Outcome    Outcome
	Reason     string
	Err        error
}

// Done reports whether the conversation has ended.
func (s State) Done() bool { return s.Outcome != OutcomeRunning }
