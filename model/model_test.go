package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chatmesh/core"
)

func userReq(text string) Request {
	return Request{Contents: []core.Content{core.NewTextContent("user", text)}}
}

func TestCollect_Echo(t *testing.T) {
	m := NewMockModel("mock", "mock")

	resp, err := Collect(context.Background(), m, userReq("hello"))
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hello", resp.Content.Text())
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestCollect_StreamingSkipsPartials(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.AddResponse("hi", "there")

	req := userReq("hi")
	req.Stream = true

	resp, err := Collect(context.Background(), m, req)
	require.NoError(t, err)
	assert.False(t, resp.Partial)
	assert.Equal(t, "there", resp.Content.Text())
}

func TestCollect_QueuedToolCallsAndErrors(t *testing.T) {
	m := NewMockModel("mock", "mock")
	boom := errors.New("backend down")
	m.Enqueue(
		MockResponse{Calls: []core.FunctionCall{{ID: "c1", Name: "web_search", Arguments: `{"query":"go"}`}}},
		MockResponse{Err: boom},
	)

	resp, err := Collect(context.Background(), m, userReq("x"))
	require.NoError(t, err)
	assert.Equal(t, "tool_calls", resp.FinishReason)
	require.Len(t, resp.Content.FunctionCalls(), 1)

	_, err = Collect(context.Background(), m, userReq("x"))
	assert.ErrorIs(t, err, boom)

	assert.Len(t, m.Requests(), 2)
}

func TestCollect_NoContents(t *testing.T) {
	_, err := Collect(context.Background(), NewMockModel("mock", "mock"), Request{})
	assert.Error(t, err)
}

type silentModel struct{}

func (silentModel) Generate(context.Context, Request) (<-chan Response, <-chan error) {
	out := make(chan Response)
	errCh := make(chan error)
	close(out)
	close(errCh)
	return out, errCh
}

func (silentModel) Info() Info { return Info{Name: "silent"} }

func TestCollect_NoFinalResponse(t *testing.T) {
	_, err := Collect(context.Background(), silentModel{}, userReq("x"))
	assert.ErrorIs(t, err, ErrNoResponse)
}
