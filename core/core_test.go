package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testLogger struct{ infos int }

func (l *testLogger) Debug(string, ...any) {}
func (l *testLogger) Info(string, ...any)  { l.infos++ }
func (l *testLogger) Warn(string, ...any)  {}
func (l *testLogger) Error(string, ...any) {}

func TestToolContext_NilLoggerFallsBackToNoOp(t *testing.T) {
	tc := NewToolContext(context.Background(), AgentInfo{Name: "writer"}, "fc1", nil)
	assert.NotNil(t, tc.Logger())
	assert.NotPanics(t, func() { tc.Escalate() })
}

func TestToolContext_LogsActions(t *testing.T) {
	l := &testLogger{}
	tc := NewToolContext(context.Background(), AgentInfo{Name: "writer"}, "fc1", l)
	tc.TransferToAgent("editor")
	tc.Escalate()
	assert.Equal(t, 2, l.infos)
}

func TestMessage_String(t *testing.T) {
	m := NewAgentMessage("Writer", "draft ready")
	assert.Equal(t, "Writer: draft ready", m.String())
	assert.Equal(t, RoleAgent, m.Role)
}

func TestNewTaskMessage(t *testing.T) {
	m := NewTaskMessage("write an article")
	assert.Equal(t, UserSpeaker, m.Speaker)
	assert.Equal(t, RoleUser, m.Role)
}

func TestMessage_IsZero(t *testing.T) {
	assert.True(t, Message{}.IsZero())
	assert.False(t, NewAgentMessage("a", "").IsZero())
}

func TestLastSpeakerAndTranscript(t *testing.T) {
	assert.Equal(t, "", LastSpeaker(nil))

	view := []Message{NewTaskMessage("task"), NewAgentMessage("Editor", "ok")}
	assert.Equal(t, "Editor", LastSpeaker(view))
	assert.Equal(t, "user: task\nEditor: ok", FormatTranscript(view))
}

func TestVerdicts(t *testing.T) {
	reason, ok := IsTerminate(Terminate{Reason: "done"})
	assert.True(t, ok)
	assert.Equal(t, "done", reason)

	_, ok = IsTerminate(Continue{})
	assert.False(t, ok)
}

func TestContent_Accessors(t *testing.T) {
	c := Content{Role: "assistant", Parts: []Part{
		TextPart{Text: "a"},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "1", Name: "web_search"}},
		TextPart{Text: "b"},
		FunctionResponsePart{FunctionResponse: FunctionResponse{ID: "1", Name: "web_search"}},
	}}

	assert.Equal(t, "ab", c.Text())
	assert.Len(t, c.FunctionCalls(), 1)
	assert.Len(t, c.FunctionResponses(), 1)
	assert.Equal(t, "x", NewTextContent("user", "x").Text())
}
