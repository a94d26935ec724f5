// Package openai implements model.Model on top of the OpenAI Chat Completions
// API, for both api.openai.com and Azure OpenAI deployments. It adapts the
// normalized model.Request into SDK messages and folds the SDK's streamed or
// one-shot completions back into model.Response values.
package openai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/model"
)

// DefaultAzureAPIVersion is used when an Azure deployment does not name one.
const DefaultAzureAPIVersion = "2024-06-01"

// Options configure the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	BaseURL             string
	// Timeout bounds each request including retries; zero keeps the SDK default.
	Timeout time.Duration
}

// Model wraps the Chat Completions API behind the generic model.Model interface.
type Model struct {
	client   *openai.Client
	opts     Options
	provider string
}

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
}

// NewModel creates a model for api.openai.com. Without APIKey the SDK reads
// OPENAI_API_KEY from the environment.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(opts.Timeout))
	}

	client := openai.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts, provider: "openai"}
}

// AzureConfig identifies an Azure OpenAI deployment.
type AzureConfig struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	Deployment string
}

// NewAzureModel creates a model bound to an Azure OpenAI deployment. The
// deployment name is sent as the model identifier.
func NewAzureModel(cfg AzureConfig, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	opts.Model = cfg.Deployment
	for _, fn := range optFns {
		fn(&opts)
	}

	version := cfg.APIVersion
	if version == "" {
		version = DefaultAzureAPIVersion
	}

	clientOpts := []option.RequestOption{
		azure.WithEndpoint(cfg.Endpoint, version),
		azure.WithAPIKey(cfg.APIKey),
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(opts.Timeout))
	}

	client := openai.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts, provider: "azure"}
}

// NewModelFromClient creates a model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts, provider: "openai"}
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := m.buildParams(req, buildMessages(req))
		if req.Stream {
			m.stream(ctx, params, out, errCh)
			return
		}
		m.complete(ctx, params, out, errCh)
	}()

	return out, errCh
}

// buildMessages converts normalized contents into chat messages. Tool
// responses follow the assistant message that requested them.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	responses := map[string]string{}
	for _, c := range req.Contents {
		if c.Role != "tool" {
			continue
		}
		for _, fr := range c.FunctionResponses() {
			if fr.ID != "" {
				responses[fr.ID] = responseText(fr)
			}
		}
	}

	hasSystem := false
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Contents)+1)

	for _, c := range req.Contents {
		text := c.Text()

		switch c.Role {
		case "tool":
			continue
		case "system":
			hasSystem = true
			messages = append(messages, openai.SystemMessage(text))
		case "assistant":
			calls := c.FunctionCalls()
			if len(calls) == 0 {
				messages = append(messages, openai.AssistantMessage(text))
				continue
			}

			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(calls))
			for i, fc := range calls {
				toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID: fc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      fc.Name,
						Arguments: fc.Arguments,
					},
				}
			}

			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls},
			})

			for _, fc := range calls {
				if resp, ok := responses[fc.ID]; ok {
					messages = append(messages, openai.ToolMessage(resp, fc.ID))
				}
			}
		default:
			if text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}

	if !hasSystem && req.Instructions != "" {
		messages = append([]openai.ChatCompletionMessageParamUnion{openai.SystemMessage(req.Instructions)}, messages...)
	}

	return messages
}

func responseText(fr core.FunctionResponse) string {
	if fr.Error != "" {
		return fr.Error
	}
	if s, ok := fr.Response.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", fr.Response)
}

func (m *Model) buildParams(req model.Request, messages []openai.ChatCompletionMessageParamUnion) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}

	if len(req.Tools) == 0 {
		return params
	}

	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Function.Name,
				Description: openai.String(tdef.Function.Description),
				Parameters:  tdef.Function.Parameters,
			},
		}
	}
	params.Tools = tools

	return params
}

type callDelta struct{ id, name, args string }

// stream forwards text deltas as partial responses and emits one final
// response carrying the aggregated text and tool calls.
func (m *Model) stream(ctx context.Context, params openai.ChatCompletionNewParams, out chan<- model.Response, errCh chan<- error) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)

	var text strings.Builder
	calls := map[int64]*callDelta{}
	finish := ""

	for stream.Next() {
		chunk := stream.Current()
		for _, ch := range chunk.Choices {
			if ch.Delta.Content != "" {
				text.WriteString(ch.Delta.Content)
				out <- model.Response{Partial: true, Content: core.NewTextContent("assistant", ch.Delta.Content)}
			}

			for _, tc := range ch.Delta.ToolCalls {
				cd, ok := calls[tc.Index]
				if !ok {
					cd = &callDelta{}
					calls[tc.Index] = cd
				}
				if tc.ID != "" {
					cd.id = tc.ID
				}
				if tc.Function.Name != "" {
					cd.name = tc.Function.Name
				}
				cd.args += tc.Function.Arguments
			}

			if ch.FinishReason != "" {
				finish = ch.FinishReason
			}
		}
	}

	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("openai streaming error: %w", err)
		return
	}

	indexes := make([]int64, 0, len(calls))
	for idx := range calls {
		indexes = append(indexes, idx)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	parts := make([]core.Part, 0, len(calls)+1)
	if text.Len() > 0 {
		parts = append(parts, core.TextPart{Text: text.String()})
	}
	for _, idx := range indexes {
		cd := calls[idx]
		parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: cd.id, Name: cd.name, Arguments: cd.args}})
	}

	out <- model.Response{Content: core.Content{Role: "assistant", Parts: parts}, FinishReason: finish}
}

func (m *Model) complete(ctx context.Context, params openai.ChatCompletionNewParams, out chan<- model.Response, errCh chan<- error) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("%s api error: %w", m.provider, err)
		return
	}

	if len(resp.Choices) == 0 {
		errCh <- fmt.Errorf("%s: no choices returned", m.provider)
		return
	}

	choice := resp.Choices[0]

	parts := make([]core.Part, 0, len(choice.Message.ToolCalls)+1)
	if choice.Message.Content != "" {
		parts = append(parts, core.TextPart{Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}})
	}

	out <- model.Response{
		ID:           resp.ID,
		Content:      core.Content{Role: "assistant", Parts: parts},
		FinishReason: choice.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
}

// Info returns metadata describing this model.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: m.provider, SupportsTools: true}
}
