package strategy

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/internal/testutil"
)

var team = []string{"writer", "critic", "orchestrator"}

func TestRoundRobin_Initial(t *testing.T) {
	s := &RoundRobinSelection{}
	assert.Equal(t, "writer", s.Select(context.Background(), nil, team, ""))

	view := testutil.History(1, "user", "Write about tides.")
	assert.Equal(t, "writer", s.Select(context.Background(), view, team, "user"))

	s.InitialAgent = "orchestrator"
	assert.Equal(t, "orchestrator", s.Select(context.Background(), view, team, "user"))

	s.InitialAgent = "ghost"
	assert.Equal(t, "writer", s.Select(context.Background(), view, team, "user"))

	assert.Empty(t, s.Select(context.Background(), view, nil, "user"))
}

func TestRoundRobin_Cycle(t *testing.T) {
	s := &RoundRobinSelection{}
	view := testutil.Speakers(1, "user", "writer")

	assert.Equal(t, "critic", s.Select(context.Background(), view, team, "writer"))
	assert.Equal(t, "orchestrator", s.Select(context.Background(), view, team, "critic"))
	assert.Equal(t, "writer", s.Select(context.Background(), view, team, "orchestrator"))
}

func TestRoundRobin_Anchor(t *testing.T) {
	s := &RoundRobinSelection{Anchor: "critic"}
	view := testutil.Speakers(1, "writer", "user")

	assert.Equal(t, "critic", s.Select(context.Background(), view, team, "user"))
}

func TestRoundRobin_TerminalWaits(t *testing.T) {
	s := &RoundRobinSelection{Terminal: "orchestrator"}

	// orchestrator spoke, then only critic: writer must go before orchestrator.
	view := testutil.Speakers(1, "user", "orchestrator", "critic")
	assert.Equal(t, "writer", s.Select(context.Background(), view, team, "critic"))

	// everyone else has spoken since orchestrator's last turn.
	view = testutil.Speakers(1, "user", "orchestrator", "writer", "critic")
	assert.Equal(t, "orchestrator", s.Select(context.Background(), view, team, "critic"))
}

func TestRoundRobin_RouterHonoured(t *testing.T) {
	s := &RoundRobinSelection{Router: DirectiveRouter{}}

	view := testutil.History(1, "user", "task", "writer", "draft ready. NEXT: Orchestrator")
	assert.Equal(t, "orchestrator", s.Select(context.Background(), view, team, "writer"))
}

func TestRoundRobin_RouterRejected(t *testing.T) {
	tests := []struct {
		name    string
		view    []core.Message
		last    string
		want    string
		options func(s *RoundRobinSelection)
	}{
		{
			name: "unknown participant",
			view: testutil.History(1, "user", "task", "writer", "NEXT: ghost"),
			last: "writer",
			want: "critic",
		},
		{
			name: "last speaker",
			view: testutil.History(1, "user", "task", "writer", "@writer again"),
			last: "writer",
			want: "critic",
		},
		{
			name:    "terminal not eligible",
			view:    testutil.History(1, "user", "task", "orchestrator", "plan", "writer", "@orchestrator done"),
			last:    "writer",
			want:    "critic",
			options: func(s *RoundRobinSelection) { s.Terminal = "orchestrator" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &RoundRobinSelection{Router: DirectiveRouter{}}
			if tt.options != nil {
				tt.options(s)
			}
			assert.Equal(t, tt.want, s.Select(context.Background(), tt.view, team, tt.last))
		})
	}
}

func TestRoundRobin_SingleParticipant(t *testing.T) {
	s := &RoundRobinSelection{}
	view := testutil.Speakers(1, "user", "solo")
	assert.Equal(t, "solo", s.Select(context.Background(), view, []string{"solo"}, "solo"))
}

func TestTerminalEligible(t *testing.T) {
	tests := []struct {
		name string
		view []core.Message
		want bool
	}{
		{"never spoke, empty view", nil, true},
		{"never spoke, task only", testutil.Speakers(1, "user"), false},
		{"never spoke, both others", testutil.Speakers(1, "user", "writer", "critic"), true},
		{"spoke, one other since", testutil.Speakers(1, "orchestrator", "writer"), false},
		{"spoke, both others since", testutil.Speakers(1, "orchestrator", "critic", "writer"), true},
		{"spoke last", testutil.Speakers(1, "writer", "critic", "orchestrator"), false},
		{"truncated to one message", testutil.Speakers(9, "critic"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TerminalEligible(tt.view, team, "orchestrator"))
		})
	}
}

func TestRoundRobin_PropertyNeverRepeatsLastSpeaker(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 6).Draw(t, "n")
		participants := make([]string, n)
		for i := range participants {
			participants[i] = string(rune('a' + i))
		}

		names := rapid.SliceOfN(rapid.SampledFrom(append([]string{"user"}, participants...)), 0, 12).Draw(t, "speakers")
		view := testutil.Speakers(1, names...)
		last := core.LastSpeaker(view)

		s := &RoundRobinSelection{
			Terminal: rapid.SampledFrom(append([]string{""}, participants...)).Draw(t, "terminal"),
			Router:   DirectiveRouter{},
		}

		got := s.Select(context.Background(), view, participants, last)

		if !slices.Contains(participants, got) {
			t.Fatalf("selected %q which is not a participant", got)
		}
		if got == last {
			t.Fatalf("selected last speaker %q", got)
		}
	})
}

func TestRoundRobin_PropertyCyclesNonTerminalsFirst(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 6).Draw(t, "n")
		participants := make([]string, n)
		for i := range participants {
			participants[i] = string(rune('a' + i))
		}
		terminal := participants[rapid.IntRange(0, n-1).Draw(t, "terminal")]

		s := &RoundRobinSelection{Terminal: terminal}

		view := testutil.Speakers(1, "user")
		var picks []string
		for range 3 * n {
			next := s.Select(context.Background(), view, participants, core.LastSpeaker(view))
			view = append(view, testutil.Speakers(len(view)+1, next)...)
			if next != terminal {
				picks = append(picks, next)
			}
		}

		// every run of n-1 consecutive non-terminal turns names distinct participants
		width := n - 1
		for i := 0; i+width <= len(picks); i++ {
			window := slices.Clone(picks[i : i+width])
			slices.Sort(window)
			if len(slices.Compact(window)) != width {
				t.Fatalf("repeat within a cycle: %v", picks)
			}
		}
	})
}
