package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamNames(t *testing.T) {
	assert.Equal(t, []string{"journalism", "shopping"}, TeamNames())
}

func TestLoadTeam_Journalism(t *testing.T) {
	team, err := LoadTeam("journalism")
	require.NoError(t, err)
	require.NoError(t, team.Validate())

	assert.Equal(t, []string{
		"writer_assistant", "web_search_agent", "editor", "verifier_agent", "User", "orchestrator_agent",
	}, team.Names())
	assert.Equal(t, "orchestrator_agent", team.Terminal)
	assert.Equal(t, []string{"orchestrator_agent"}, team.Termination.Sources)
	assert.Equal(t, "TERMINATE", team.Termination.Keyword)
	assert.True(t, team.UsesTool(ToolWebSearch))
	assert.Equal(t, KindHuman, team.Agents[4].Kind)
	assert.Contains(t, team.Agents[5].Instruction, "reply 'TERMINATE'")
}

func TestLoadTeam_Shopping(t *testing.T) {
	team, err := LoadTeam("shopping")
	require.NoError(t, err)
	require.NoError(t, team.Validate())

	assert.Equal(t, []string{
		"orchestrator_agent", "summarizer_agent", "budget_assistant", "User", "web_search_agent",
	}, team.Names())
}

func TestLoadTeam_Unknown(t *testing.T) {
	_, err := LoadTeam("cooking")
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "journalism, shopping")
}

func TestRenderTask(t *testing.T) {
	team, err := LoadTeam("journalism")
	require.NoError(t, err)

	task, err := team.RenderTask(time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, task, "Ask the user to describe the article")
	assert.Contains(t, task, "Today's date is 2026-10-18")
}

func TestTeamValidate(t *testing.T) {
	team, err := ParseTeam([]byte(`
name: broken
task: "{{.Date"
initial_agent: nobody
selector: random
termination:
  judge: oracle
  sources: [ghost]
agents:
  - name: a
    kind: robot
  - name: a
  - name: h
    kind: human
    tools: [web_search]
  - name: b
    tools: [teleport]
  - name: user
`))
	require.NoError(t, err)

	err = team.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)

	for _, want := range []string{
		`unknown kind "robot"`,
		`duplicate name "a"`,
		`name "user" is reserved`,
		"human participants cannot use tools",
		`unknown tool "teleport"`,
		`initial_agent "nobody"`,
		`termination source "ghost"`,
		`selector "random"`,
		`termination judge "oracle"`,
		"task:",
	} {
		assert.Contains(t, err.Error(), want)
	}

	empty := &TeamConfig{Name: "empty"}
	assert.ErrorContains(t, empty.Validate(), "team has no agents")
}

func TestParseTeam_Invalid(t *testing.T) {
	_, err := ParseTeam([]byte("agents: {"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
