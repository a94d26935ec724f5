package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/internal/testutil"
	"github.com/hupe1980/chatmesh/model"
)

func TestRegistry_Order(t *testing.T) {
	reg, err := NewRegistry(
		testutil.NewScriptedAgent("writer"),
		testutil.NewScriptedAgent("editor"),
		testutil.NewScriptedAgent("verifier"),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"writer", "editor", "verifier"}, reg.Names())
	assert.Equal(t, 3, reg.Len())
	assert.True(t, reg.Has("editor"))
	assert.False(t, reg.Has("Editor"))

	a, err := reg.Get("verifier")
	require.NoError(t, err)
	assert.Equal(t, "verifier", a.Name())
}

func TestRegistry_Errors(t *testing.T) {
	reg, err := NewRegistry(testutil.NewScriptedAgent("writer"))
	require.NoError(t, err)

	assert.ErrorIs(t, reg.Register(testutil.NewScriptedAgent("writer")), ErrDuplicateAgent)
	assert.ErrorIs(t, reg.Register(testutil.NewScriptedAgent("  ")), ErrEmptyAgentName)
	assert.ErrorIs(t, reg.Register(nil), ErrEmptyAgentName)
	assert.ErrorIs(t, reg.Register(testutil.NewScriptedAgent(core.UserSpeaker)), ErrReservedAgentName)
	assert.NoError(t, reg.Register(testutil.NewScriptedAgent("User")))

	_, err = reg.Get("ghost")
	assert.ErrorIs(t, err, ErrAgentNotFound)

	_, err = NewRegistry(testutil.NewScriptedAgent("a"), testutil.NewScriptedAgent("a"))
	assert.ErrorIs(t, err, ErrDuplicateAgent)
}

func TestRegistry_Freeze(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	writer := NewModelAgent("writer", llm)
	editor := NewModelAgent("editor", llm)

	reg, err := NewRegistry(writer, editor)
	require.NoError(t, err)

	reg.Freeze()
	reg.Freeze()

	assert.True(t, reg.Frozen())
	assert.Equal(t, []string{"writer", "editor"}, writer.Participants())
	assert.Equal(t, []string{"writer", "editor"}, editor.Participants())
	assert.ErrorIs(t, reg.Register(testutil.NewScriptedAgent("late")), ErrRegistryFrozen)
}

func TestRegistry_Describe(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	reg, err := NewRegistry(
		NewModelAgent("writer", llm, func(o *ModelAgentOptions) { o.Description = "Writes drafts." }),
		NewModelAgent("editor", llm, func(o *ModelAgentOptions) { o.Description = "Edits drafts." }),
	)
	require.NoError(t, err)

	assert.Equal(t, "writer: Writes drafts.\neditor: Edits drafts.", reg.Describe())
}

func TestRegistry_AgentsIsCopy(t *testing.T) {
	reg, err := NewRegistry(testutil.NewScriptedAgent("writer"))
	require.NoError(t, err)

	agents := reg.Agents()
	agents[0] = nil

	assert.NotNil(t, reg.Agents()[0])
}
