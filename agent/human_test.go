package agent

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chatmesh/core"
)

func newHuman(input io.Reader, out io.Writer) *HumanAgent {
	return NewHumanAgent("User", func(o *HumanAgentOptions) {
		o.Input = input
		o.Output = out
	})
}

func TestHumanAgent_ReadsLines(t *testing.T) {
	var out bytes.Buffer
	h := newHuman(strings.NewReader("Looks good, add a quote.\nEXIT\n"), &out)

	msg, err := h.Respond(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "User", msg.Speaker)
	assert.Equal(t, core.RoleUser, msg.Role)
	assert.Equal(t, "Looks good, add a quote.", msg.Content)
	assert.False(t, msg.Actions.Escalate)
	assert.Contains(t, out.String(), `User (type "exit" to finish): `)

	msg, err = h.Respond(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, msg.Actions.Escalate)
	assert.Equal(t, "exit", msg.Content)
}

func TestHumanAgent_EOFEscalates(t *testing.T) {
	h := newHuman(strings.NewReader(""), io.Discard)

	msg, err := h.Respond(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, msg.Actions.Escalate)

	msg, err = h.Respond(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, msg.Actions.Escalate)
}

func TestHumanAgent_LastLineWithoutNewline(t *testing.T) {
	h := newHuman(strings.NewReader("final words"), io.Discard)

	msg, err := h.Respond(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "final words", msg.Content)
	assert.False(t, msg.Actions.Escalate)
}

func TestHumanAgent_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	h := newHuman(pr, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.Respond(ctx, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type chunkReader struct {
	chunks []string
	reads  atomic.Int32
}

func (r *chunkReader) Read(p []byte) (int, error) {
	n := int(r.reads.Add(1)) - 1
	if n >= len(r.chunks) {
		return 0, io.EOF
	}
	return copy(p, r.chunks[n]), nil
}

func TestHumanAgent_ReadsOnlyWhenAsked(t *testing.T) {
	r := &chunkReader{chunks: []string{"first\n", "second\n"}}
	h := newHuman(r, io.Discard)

	msg, err := h.Respond(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "first", msg.Content)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), r.reads.Load())

	msg, err = h.Respond(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "second", msg.Content)
	assert.Equal(t, int32(2), r.reads.Load())
}

func TestHumanAgent_CustomKeyword(t *testing.T) {
	h := NewHumanAgent("User", func(o *HumanAgentOptions) {
		o.Input = strings.NewReader("approve\n")
		o.Output = io.Discard
		o.ExitKeyword = "APPROVE"
	})

	msg, err := h.Respond(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, msg.Actions.Escalate)
	assert.Equal(t, "APPROVE", msg.Content)
}
