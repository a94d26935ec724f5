package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/model"
)

func TestBuildMessages_ToolResponsesFollowCalls(t *testing.T) {
	req := model.Request{
		Instructions: "You are the editor.",
		Contents: []core.Content{
			core.NewTextContent("user", "writer: draft"),
			{Role: "assistant", Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "c1", Name: "web_search", Arguments: `{"query":"x"}`}}}},
			{Role: "tool", Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "c1", Name: "web_search", Response: "Title: a"}}}},
		},
	}

	msgs := buildMessages(req)
	require.Len(t, msgs, 4)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	require.NotNil(t, msgs[2].OfAssistant)
	assert.Len(t, msgs[2].OfAssistant.ToolCalls, 1)
	require.NotNil(t, msgs[3].OfTool)
	assert.Equal(t, "c1", msgs[3].OfTool.ToolCallID)
}

func TestResponseText(t *testing.T) {
	assert.Equal(t, "boom", responseText(core.FunctionResponse{Error: "boom"}))
	assert.Equal(t, "ok", responseText(core.FunctionResponse{Response: "ok"}))
	assert.Equal(t, "3", responseText(core.FunctionResponse{Response: 3}))
}

func TestModel_GenerateNonStreaming(t *testing.T) {
	var body map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "NEXT: editor"}}],
			"usage": {"prompt_tokens": 5, "completion_tokens": 2, "total_tokens": 7}
		}`)
	}))
	defer srv.Close()

	client := openai.NewClient(option.WithBaseURL(srv.URL), option.WithAPIKey("test"))
	m := NewModelFromClient(&client)

	resp, err := model.Collect(context.Background(), m, model.Request{
		Contents: []core.Content{core.NewTextContent("user", "hello")},
	})
	require.NoError(t, err)
	assert.Equal(t, "NEXT: editor", resp.Content.Text())
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 7, resp.Usage.TotalTokens)
	assert.Equal(t, "gpt-4o-mini", body["model"])
}

func TestInfo(t *testing.T) {
	m := NewAzureModel(AzureConfig{Endpoint: "https://example.openai.azure.com", APIKey: "k", Deployment: "gpt-4o"})
	assert.Equal(t, model.Info{Name: "gpt-4o", Provider: "azure", SupportsTools: true}, m.Info())
}
