package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/logging"
)

func newToolContext(agent, callID string) *core.ToolContext {
	return core.NewToolContext(context.Background(), core.AgentInfo{Name: agent}, callID, logging.NoOpLogger{})
}

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	sumTool := NewFunctionTool("sum", "Add numbers", params, func(_ *core.ToolContext, args map[string]any) (any, error) {
		return args["a"].(float64) + args["b"].(float64), nil
	})

	result, err := sumTool.Call(newToolContext("budget_assistant", "fc1"), map[string]any{"a": 2.0, "b": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	params := map[string]any{
		"type":       "object",
		"properties": map[string]any{"a": map[string]any{"type": "number"}},
		"required":   []any{"a"},
	}
	tTool := NewFunctionTool("test", "Test", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return 0, nil
	})

	_, err := tTool.Call(newToolContext("a", "fc2"), map[string]any{})

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodeValidation, toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	execTool := NewFunctionTool("fail", "Fails", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, errors.New("boom")
	})

	_, err := execTool.Call(newToolContext("a", "fc3"), map[string]any{})

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.Equal(t, "boom", toolErr.Message)
}

func TestFunctionTool_ForwardsToolError(t *testing.T) {
	custom := NewToolError("x", "rate limited", "RATE_LIMIT")
	execTool := NewFunctionTool("x", "X", map[string]any{"type": "object"}, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, custom
	})

	_, err := execTool.Call(newToolContext("a", "fc4"), map[string]any{})
	assert.Same(t, custom, err)
}

func TestFunctionToolFromStruct(t *testing.T) {
	type args struct {
		Query string `json:"query" description:"terms"`
	}
	ft := NewFunctionToolFromStruct("q", "Q", args{}, func(_ *core.ToolContext, a map[string]any) (any, error) {
		return a["query"], nil
	})

	assert.Equal(t, []string{"query"}, ft.Parameters()["required"])
	_, err := ft.Call(newToolContext("a", "fc5"), map[string]any{})
	assert.Error(t, err)
}

func TestHandoffTool(t *testing.T) {
	handoff := NewHandoffTool("writer_assistant", "editor", "orchestrator_agent")
	assert.Equal(t, HandoffToolName, handoff.Name())

	t.Run("records transfer with canonical name", func(t *testing.T) {
		tc := newToolContext("orchestrator_agent", "fc1")
		_, err := handoff.Call(tc, map[string]any{"agent": "Editor"})
		require.NoError(t, err)
		assert.Equal(t, "editor", tc.Actions().TransferTo)
	})

	t.Run("rejects unknown participant", func(t *testing.T) {
		tc := newToolContext("orchestrator_agent", "fc2")
		_, err := handoff.Call(tc, map[string]any{"agent": "ghost"})
		var toolErr *ToolError
		require.True(t, errors.As(err, &toolErr))
		assert.Equal(t, CodeBadInput, toolErr.Code)
		assert.Empty(t, tc.Actions().TransferTo)
	})

	t.Run("rejects self handoff", func(t *testing.T) {
		tc := newToolContext("editor", "fc3")
		_, err := handoff.Call(tc, map[string]any{"agent": "editor"})
		assert.Error(t, err)
	})

	t.Run("missing argument", func(t *testing.T) {
		_, err := handoff.Call(newToolContext("editor", "fc4"), map[string]any{})
		assert.Error(t, err)
	})
}

func TestHandoffTool_Unrestricted(t *testing.T) {
	tc := newToolContext("a", "fc1")
	_, err := NewHandoffTool().Call(tc, map[string]any{"agent": "anyone"})
	require.NoError(t, err)
	assert.Equal(t, "anyone", tc.Actions().TransferTo)
}

func TestEscalateTool(t *testing.T) {
	tc := newToolContext("orchestrator_agent", "fc1")
	res, err := NewEscalateTool().Call(tc, map[string]any{"reason": "article approved"})
	require.NoError(t, err)
	assert.True(t, tc.Actions().Escalate)
	assert.Equal(t, "article approved", res.(map[string]any)["reason"])
}

func TestSet(t *testing.T) {
	a := NewEscalateTool()
	b := NewHandoffTool()
	s := NewSet(a, b, NewEscalateTool())

	assert.Equal(t, 2, s.Len())
	got, ok := s.Get(HandoffToolName)
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, EscalateToolName, s.All()[0].Name())

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestToolErrorFormatting(t *testing.T) {
	err := NewToolError("demo", "something failed", "E123")
	assert.Contains(t, err.Error(), "E123")
	assert.Contains(t, err.Error(), "demo")
	assert.Equal(t, "tool error in demo: x", (&ToolError{Tool: "demo", Message: "x"}).Error())
}
