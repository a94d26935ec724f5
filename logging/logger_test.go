package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		err  bool
	}{
		{"debug", LogLevelDebug, false},
		{"INFO", LogLevelInfo, false},
		{"", LogLevelInfo, false},
		{"warning", LogLevelWarn, false},
		{"error", LogLevelError, false},
		{"loud", LogLevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChatLogger_ContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf}).
		WithComponent("groupchat").
		WithConversation("conv-1").
		WithContext("team", "journalism")

	l.Warn("strategy.selection.override", "selected", "editor", "replacement", "writer")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "strategy.selection.override", lines[0]["msg"])
	assert.Equal(t, "groupchat", lines[0]["component"])
	assert.Equal(t, "conv-1", lines[0]["conversation_id"])
	assert.Equal(t, "journalism", lines[0]["team"])
	assert.Equal(t, "editor", lines[0]["selected"])
}

func TestChatLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "json", Output: &buf})

	l.Info("dropped")
	l.Error("kept")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
}

func TestChatLogger_DomainHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf})

	l.LogTurn(1, "writer", 2, time.Millisecond)
	l.LogToolCall("web_search", time.Millisecond, errors.New("boom"))
	l.LogModelCall("gpt-4o", time.Millisecond, nil)
	l.LogVerdict("orchestrator_agent", true, "done")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 4)
	assert.Equal(t, "groupchat.turn.complete", lines[0]["msg"])
	assert.Equal(t, "tool.call.error", lines[1]["msg"])
	assert.Equal(t, "WARN", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
	assert.Equal(t, "model.call.complete", lines[2]["msg"])
	assert.Equal(t, "strategy.termination.verdict", lines[3]["msg"])
	assert.Equal(t, true, lines[3]["terminate"])
}

func TestOrNoOp(t *testing.T) {
	assert.IsType(t, NoOpLogger{}, OrNoOp(nil))

	l := NewSlogLogger(LogLevelInfo, "text", false)
	assert.Same(t, l, OrNoOp(l))
}
