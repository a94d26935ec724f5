package strategy

import (
	"context"
	"slices"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/logging"
)

// SelectionStrategy picks the next speaker. It must return a member of
// participants; the controller corrects anything else.
type SelectionStrategy interface {
	Select(ctx context.Context, view []core.Message, participants []string, lastSpeaker string) string
}

// SelectionFunc adapts an ordinary function to SelectionStrategy.
type SelectionFunc func(ctx context.Context, view []core.Message, participants []string, lastSpeaker string) string

// Select implements SelectionStrategy.
func (f SelectionFunc) Select(ctx context.Context, view []core.Message, participants []string, lastSpeaker string) string {
	return f(ctx, view, participants, lastSpeaker)
}

// RoundRobinSelection cycles through participants in registration order and
// honours explicit routing signals found by its Router.
//
// The zero value is usable: the first participant opens and no router is
// consulted.
type RoundRobinSelection struct {
	// InitialAgent speaks first when no participant has spoken yet.
	// Defaults to the first participant.
	InitialAgent string
	// Anchor is where the cycle starts when the last speaker is not a
	// participant. Defaults to the first participant.
	Anchor string
	// Terminal names the closing role. It is only selectable once every other
	// participant has spoken since its last message.
	Terminal string
	// Router reads explicit next-speaker signals. Optional.
	Router Router
	Logger logging.Logger
}

// Select implements SelectionStrategy.
func (s *RoundRobinSelection) Select(ctx context.Context, view []core.Message, participants []string, lastSpeaker string) string {
	if len(participants) == 0 {
		return ""
	}

	logger := logging.OrNoOp(s.Logger)

	if !anyParticipantSpoke(view, participants) {
		if slices.Contains(participants, s.InitialAgent) {
			return s.InitialAgent
		}
		return participants[0]
	}

	if s.Router != nil {
		if d, ok := s.Router.Route(ctx, view, participants).(core.Explicit); ok {
			switch {
			case !slices.Contains(participants, d.Agent):
				logger.Debug("strategy.selection.route_rejected", "agent", d.Agent, "reason", "unknown participant")
			case d.Agent == lastSpeaker:
				logger.Debug("strategy.selection.route_rejected", "agent", d.Agent, "reason", "last speaker")
			case d.Agent == s.Terminal && !TerminalEligible(view, participants, s.Terminal):
				logger.Debug("strategy.selection.route_rejected", "agent", d.Agent, "reason", "terminal not eligible")
			default:
				logger.Debug("strategy.selection.routed", "agent", d.Agent)
				return d.Agent
			}
		}
	}

	next := s.fallback(view, participants, lastSpeaker)
	logger.Debug("strategy.selection.fallback", "last_speaker", lastSpeaker, "next", next)

	return next
}

// fallback walks participant order after lastSpeaker (or from the anchor),
// skipping lastSpeaker and an ineligible terminal.
func (s *RoundRobinSelection) fallback(view []core.Message, participants []string, lastSpeaker string) string {
	n := len(participants)

	start := 0
	if i := slices.Index(participants, lastSpeaker); i >= 0 {
		start = i + 1
	} else if i := slices.Index(participants, s.Anchor); i >= 0 {
		start = i
	}

	terminalOK := s.Terminal == "" || TerminalEligible(view, participants, s.Terminal)

	var relaxed string

	for i := range n {
		cand := participants[(start+i)%n]
		if cand == lastSpeaker {
			continue
		}

		if cand == s.Terminal && !terminalOK {
			if relaxed == "" {
				relaxed = cand
			}
			continue
		}

		return cand
	}

	// Only the terminal (or nobody) differs from lastSpeaker.
	if relaxed != "" {
		return relaxed
	}

	return participants[start%n]
}

// TerminalEligible reports whether terminal may speak: every other
// participant must have spoken after the terminal's last message in view.
//
// When the terminal does not appear in view (it never spoke, or the view was
// truncated) the whole view is the segment and it must hold
// min(len(others), len(view)) distinct other speakers.
func TerminalEligible(view []core.Message, participants []string, terminal string) bool {
	others := make([]string, 0, len(participants))
	for _, p := range participants {
		if p != terminal {
			others = append(others, p)
		}
	}

	if len(others) == 0 {
		return true
	}

	last := -1
	for i := len(view) - 1; i >= 0; i-- {
		if view[i].Speaker == terminal {
			last = i
			break
		}
	}

	seen := make(map[string]struct{}, len(others))
	for _, m := range view[last+1:] {
		if slices.Contains(others, m.Speaker) {
			seen[m.Speaker] = struct{}{}
		}
	}

	if last >= 0 {
		return len(seen) == len(others)
	}

	return len(seen) >= min(len(others), len(view))
}

func anyParticipantSpoke(view []core.Message, participants []string) bool {
	for _, m := range view {
		if slices.Contains(participants, m.Speaker) {
			return true
		}
	}
	return false
}
