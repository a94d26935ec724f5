package util

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	t.Run("no markers", func(t *testing.T) {
		out, err := RenderTemplate("You are a writer & editor <b>", nil)
		require.NoError(t, err)
		assert.Equal(t, "You are a writer & editor <b>", out)
	})

	t.Run("no html escaping", func(t *testing.T) {
		out, err := RenderTemplate("Today is {{.Date}}. Team: {{join \", \" .Participants}} & co", map[string]any{
			"Date":         "2026-01-02",
			"Participants": []string{"writer", "editor"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Today is 2026-01-02. Team: writer, editor & co", out)
	})

	t.Run("default helper", func(t *testing.T) {
		out, err := RenderTemplate(`{{default "nobody" .Agent | upper}}`, map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, "NOBODY", out)
	})

	t.Run("parse error", func(t *testing.T) {
		_, err := RenderTemplate("{{.Agent", nil)
		assert.Error(t, err)
	})
}

type searchArgs struct {
	Query string `json:"query" description:"search terms"`
	Count int    `json:"count,omitempty"`
}

func TestCreateSchemaAndValidate(t *testing.T) {
	schema := CreateSchema(searchArgs{})

	props := schema["properties"].(map[string]any)
	assert.Contains(t, props, "query")
	assert.Equal(t, []string{"query"}, schema["required"])

	require.NoError(t, ValidateParameters(map[string]any{"query": "go", "count": float64(3)}, schema))

	err := ValidateParameters(map[string]any{"count": float64(3)}, schema)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "query", ve.Field)

	err = ValidateParameters(map[string]any{"query": 42}, schema)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "query", ve.Field)
}

func TestValidateParameters_DecodedRequired(t *testing.T) {
	schema := map[string]any{
		"type":     "object",
		"required": []any{"agent_name"},
	}
	assert.Error(t, ValidateParameters(map[string]any{}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"agent_name": "editor"}, schema))
}
