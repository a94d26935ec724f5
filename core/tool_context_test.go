package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/chatmesh/logging"
)

func TestToolContext_Actions(t *testing.T) {
	tc := NewToolContext(context.Background(), AgentInfo{Name: "orchestrator_agent"}, "call-1", logging.NoOpLogger{})

	assert.Equal(t, "orchestrator_agent", tc.AgentName())
	assert.Equal(t, "call-1", tc.FunctionCallID())
	assert.Equal(t, MessageActions{}, tc.Actions())

	tc.TransferToAgent("editor")
	tc.Escalate()

	assert.Equal(t, MessageActions{TransferTo: "editor", Escalate: true}, tc.Actions())
}

func TestToolContext_NilLogger(t *testing.T) {
	tc := NewToolContext(context.Background(), AgentInfo{Name: "a"}, "", nil)
	assert.NotNil(t, tc.Logger())
	assert.NotNil(t, tc.Context())
}
