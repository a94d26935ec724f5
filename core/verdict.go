package core

// Verdict is the closed result of a termination check. Concrete verdicts
// implement the unexported isVerdict marker so callers can switch on the type
// instead of parsing text.
type Verdict interface{ isVerdict() }

// Terminate ends the conversation.
type Terminate struct {
	Reason string
}

func (Terminate) isVerdict() {}

// Continue keeps the conversation going.
type Continue struct{}

func (Continue) isVerdict() {}

// IsTerminate reports whether v is a Terminate verdict and returns its reason.
func IsTerminate(v Verdict) (string, bool) {
	t, ok := v.(Terminate)
	if !ok {
		return "", false
	}
	return t.Reason, true
}

// RoutingDecision is the closed result of inspecting a message for an explicit
// next-speaker signal.
type RoutingDecision interface{ isRoutingDecision() }

// Explicit names the participant that should speak next.
type Explicit struct {
	Agent string
}

func (Explicit) isRoutingDecision() {}

// Fallback means no usable signal was found; the selection strategy falls
// back to its deterministic order.
type Fallback struct{}

func (Fallback) isRoutingDecision() {}
