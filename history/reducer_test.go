package history

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/internal/testutil"
)

func TestWindowReducer(t *testing.T) {
	view := testutil.Speakers(1, "user", "a", "b", "c", "d", "e", "f")

	got := NewWindowReducer(3).Reduce(view)
	require.Len(t, got, 3)
	assert.Equal(t, []int{5, 6, 7}, sequences(got))

	assert.Len(t, NewWindowReducer(10).Reduce(view), 7)
	assert.Equal(t, DefaultWindowSize, NewWindowReducer(0).Size)
	assert.Empty(t, NewWindowReducer(3).Reduce(nil))
}

func TestWindowReducer_DoesNotAliasInput(t *testing.T) {
	view := testutil.Speakers(1, "a", "b")
	got := NewWindowReducer(5).Reduce(view)
	got[0].Content = "changed"
	assert.Equal(t, "a says", view[0].Content)
}

type wordCounter struct{}

func (wordCounter) CountTokens(text string) int { return len(strings.Fields(text)) }

func TestTokenReducer(t *testing.T) {
	view := []core.Message{
		{Speaker: "a", Content: "one two three", Sequence: 1},
		{Speaker: "b", Content: "four five", Sequence: 2},
		{Speaker: "c", Content: "six", Sequence: 3},
	}

	// per message: speaker(1) + words + overhead(4)
	r := &TokenReducer{Budget: 13, Counter: wordCounter{}}
	assert.Equal(t, []int{2, 3}, sequences(r.Reduce(view)))

	r.Budget = 1
	assert.Equal(t, []int{3}, sequences(r.Reduce(view)), "most recent message is always kept")

	r.Budget = 1000
	assert.Len(t, r.Reduce(view), 3)
}

func TestTokenReducer_NilCounterEstimates(t *testing.T) {
	r := &TokenReducer{Budget: 100}
	assert.Len(t, r.Reduce(testutil.Speakers(1, "a", "b")), 2)
	assert.Equal(t, 2, EstimateTokens("abcdefg"))
}

func TestTiktokenCounter_CountsOrFallsBack(t *testing.T) {
	c := NewTiktokenCounter("")
	n := c.CountTokens("hello group chat")
	assert.Positive(t, n)

	if c.Err() != nil {
		assert.Equal(t, EstimateTokens("hello group chat"), n)
	}
}

func genView(rt *rapid.T) []core.Message {
	speakers := []string{"user", "writer", "editor", "verifier"}
	n := rapid.IntRange(0, 40).Draw(rt, "n")
	view := make([]core.Message, n)
	for i := range view {
		view[i] = core.Message{
			Speaker:  rapid.SampledFrom(speakers).Draw(rt, "speaker"),
			Content:  rapid.StringN(0, 60, -1).Draw(rt, "content"),
			Sequence: i + 1,
		}
	}
	return view
}

func checkReducer(rt *rapid.T, r Reducer, view []core.Message, bound func([]core.Message) bool) {
	once := r.Reduce(view)
	twice := r.Reduce(once)

	if len(once) != len(twice) {
		rt.Fatalf("not idempotent: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].Sequence != twice[i].Sequence {
			rt.Fatalf("not idempotent at %d", i)
		}
	}

	if len(view) == 0 {
		if len(once) != 0 {
			rt.Fatalf("expected empty reduction")
		}
		return
	}

	if len(once) == 0 || once[len(once)-1].Sequence != view[len(view)-1].Sequence {
		rt.Fatalf("most recent message dropped")
	}

	offset := len(view) - len(once)
	for i := range once {
		if once[i].Sequence != view[offset+i].Sequence {
			rt.Fatalf("not a suffix at %d", i)
		}
	}

	if !bound(once) {
		rt.Fatalf("bound violated: %d messages", len(once))
	}
}

func TestWindowReducer_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		size := rapid.IntRange(1, 12).Draw(rt, "size")
		checkReducer(rt, NewWindowReducer(size), genView(rt), func(out []core.Message) bool {
			return len(out) <= size
		})
	})
}

func TestTokenReducer_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		budget := rapid.IntRange(1, 200).Draw(rt, "budget")
		r := &TokenReducer{Budget: budget, Counter: EstimateCounter{}}
		checkReducer(rt, r, genView(rt), func(out []core.Message) bool {
			if len(out) == 1 {
				return true
			}
			total := 0
			for _, m := range out {
				total += messageTokens(r.Counter, m)
			}
			return total <= budget
		})
	})
}

func sequences(view []core.Message) []int {
	out := make([]int, len(view))
	for i, m := range view {
		out[i] = m.Sequence
	}
	return out
}
