// Package chatmesh assembles a group conversation from configuration. It is
// the façade over the lower level packages: it builds the language model, the
// participants of the configured team with their tools, the selection and
// termination strategies and the history reducer, and hands them to a
// groupchat.Controller.
//
// Most applications need three steps:
//  1. Load a config.Config (config.NewLoader().Load()).
//  2. Create a ChatMesh via New.
//  3. Range over Run, or call RunSync to collect the whole transcript.
//
// Options override individual parts (model, search backend, human I/O) which
// keeps tests and embedding applications free of network access.
package chatmesh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/chatmesh/agent"
	"github.com/hupe1980/chatmesh/config"
	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/evaluation"
	"github.com/hupe1980/chatmesh/groupchat"
	"github.com/hupe1980/chatmesh/history"
	"github.com/hupe1980/chatmesh/logging"
	"github.com/hupe1980/chatmesh/model"
	"github.com/hupe1980/chatmesh/model/anthropic"
	"github.com/hupe1980/chatmesh/model/openai"
	"github.com/hupe1980/chatmesh/strategy"
	"github.com/hupe1980/chatmesh/tool"
	"github.com/hupe1980/chatmesh/tool/search"
)

// ErrUnknownProvider is returned for a model provider New cannot build.
var ErrUnknownProvider = errors.New("unknown model provider")

// Options overrides parts New would otherwise build from configuration.
type Options struct {
	// Model replaces the configured model backend.
	Model model.Model
	// Searcher replaces the configured web search client.
	Searcher search.Searcher
	// Input and Output connect human participants. Default to stdin/stdout.
	Input  io.Reader
	Output io.Writer
	// Callbacks are registered on the controller, e.g. metrics.Collector.Callbacks().
	Callbacks []groupchat.Callback
	// Now dates the task prompt. Defaults to time.Now.
	Now    func() time.Time
	Logger logging.Logger
}

// ChatMesh is a configured, ready to run group conversation.
type ChatMesh struct {
	cfg        *config.Config
	team       *config.TeamConfig
	task       string
	registry   *agent.Registry
	controller *groupchat.Controller
	logger     logging.Logger
}

// New builds a ChatMesh from cfg. The configuration is validated first.
func New(cfg *config.Config, optFns ...func(o *Options)) (*ChatMesh, error) {
	opts := Options{Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	team, err := cfg.ResolveTeam()
	if err != nil {
		return nil, err
	}

	llm := opts.Model
	if llm == nil {
		if llm, err = NewModel(cfg.Model); err != nil {
			return nil, err
		}
	}

	searcher := opts.Searcher
	if searcher == nil && team.UsesTool(config.ToolWebSearch) {
		if searcher, err = NewSearcher(cfg.Search, logger); err != nil {
			return nil, fmt.Errorf("team %s uses %s: %w", team.Name, config.ToolWebSearch, err)
		}
	}

	registry, err := buildRegistry(cfg, team, llm, searcher, opts, logger)
	if err != nil {
		return nil, err
	}

	task := cfg.Task
	if task == "" {
		if task, err = team.RenderTask(opts.Now()); err != nil {
			return nil, fmt.Errorf("render task: %w", err)
		}
	}

	ctrl, err := groupchat.New(registry, func(o *groupchat.Options) {
		o.Selection = buildSelection(cfg, team, registry, llm, logger)
		o.Termination = buildTermination(team, llm, logger)
		o.Reducer = buildReducer(cfg.Chat)
		o.MaxIterations = cfg.Chat.MaxIterations
		o.Logger = logger
		o.Callbacks = opts.Callbacks
	})
	if err != nil {
		return nil, err
	}

	logger.Info("chatmesh.build.complete",
		"team", team.Name,
		"participants", registry.Names(),
		"provider", llm.Info().Provider,
		"max_iterations", cfg.Chat.MaxIterations,
	)

	return &ChatMesh{
		cfg:        cfg,
		team:       team,
		task:       task,
		registry:   registry,
		controller: ctrl,
		logger:     logger,
	}, nil
}

// Team returns the resolved team.
func (m *ChatMesh) Team() *config.TeamConfig { return m.team }

// Task returns the rendered task prompt that seeds each conversation.
func (m *ChatMesh) Task() string { return m.task }

// Participants returns the participant names in registration order.
func (m *ChatMesh) Participants() []string { return m.registry.Names() }

// Controller returns the underlying controller.
func (m *ChatMesh) Controller() *groupchat.Controller { return m.controller }

// NewConversation creates a conversation whose State and History remain
// readable after its Run finished.
func (m *ChatMesh) NewConversation() *groupchat.Conversation {
	return m.controller.NewConversation()
}

// Run starts a fresh conversation on the configured task.
func (m *ChatMesh) Run(ctx context.Context) iter.Seq2[core.Message, error] {
	return m.controller.Run(ctx, m.task)
}

// RunSync drains a fresh conversation and returns its transcript (task
// message included) with the final state. The error is the conversation's
// fatal error, if any.
func (m *ChatMesh) RunSync(ctx context.Context) ([]core.Message, groupchat.State, error) {
	conv := m.controller.NewConversation()

	var runErr error
	for _, err := range conv.Run(ctx, m.task) {
		if err != nil {
			runErr = err
		}
	}

	return conv.History(), conv.State(), runErr
}

// NewModel builds the model backend named by cfg.Provider.
func NewModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderAzure:
		return openai.NewAzureModel(openai.AzureConfig{
			Endpoint:   cfg.Endpoint,
			APIKey:     cfg.APIKey,
			APIVersion: cfg.APIVersion,
			Deployment: cfg.Deployment,
		}, func(o *openai.Options) {
			applyOpenAI(o, cfg)
		}), nil
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.Endpoint
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			applyOpenAI(o, cfg)
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = cfg.APIKey
			o.Timeout = cfg.Timeout
			if cfg.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Name)
			}
			if cfg.Temperature > 0 {
				o.Temperature = cfg.Temperature
			}
			if cfg.MaxTokens > 0 {
				o.MaxTokens = int64(cfg.MaxTokens)
			}
		}), nil
	case config.ProviderMock:
		name := cfg.Name
		if name == "" {
			name = "mock"
		}
		return model.NewMockModel(name, config.ProviderMock), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// applyOpenAI copies the tuning shared by the OpenAI and Azure backends.
// A zero temperature keeps the adapter default.
func applyOpenAI(o *openai.Options, cfg config.ModelConfig) {
	o.Timeout = cfg.Timeout
	if cfg.Temperature > 0 {
		o.Temperature = cfg.Temperature
	}
	if cfg.MaxTokens > 0 {
		o.MaxCompletionTokens = int64(cfg.MaxTokens)
	}
}

// NewSearcher builds the rate limited web search client.
func NewSearcher(cfg config.SearchConfig, logger logging.Logger) (*search.Client, error) {
	return search.NewClient(func(o *search.Options) {
		o.Endpoint = cfg.Endpoint
		o.APIKey = cfg.APIKey
		o.RequestsPerSecond = cfg.RequestsPerSecond
		o.Logger = logger
		if cfg.Timeout > 0 {
			o.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		}
	})
}

func buildRegistry(cfg *config.Config, team *config.TeamConfig, llm model.Model, searcher search.Searcher, opts Options, logger logging.Logger) (*agent.Registry, error) {
	registry, err := agent.NewRegistry()
	if err != nil {
		return nil, err
	}

	for _, ac := range team.Agents {
		var a core.Agent

		switch ac.Kind {
		case config.KindHuman:
			a = agent.NewHumanAgent(ac.Name, func(o *agent.HumanAgentOptions) {
				if ac.Description != "" {
					o.Description = ac.Description
				}
				if opts.Input != nil {
					o.Input = opts.Input
				}
				if opts.Output != nil {
					o.Output = opts.Output
				}
			})
		default:
			tools, err := buildTools(ac, team, searcher, cfg.Search.Count)
			if err != nil {
				return nil, err
			}

			a = agent.NewModelAgent(ac.Name, llm, func(o *agent.ModelAgentOptions) {
				o.Description = ac.Description
				if ac.Instruction != "" {
					o.Instruction = agent.NewInstructionFromText(ac.Instruction)
				}
				o.Tools = tools
				o.EnableStreaming = cfg.Model.Streaming
				o.Logger = logger
			})
		}

		if err := registry.Register(a); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

func buildTools(ac config.AgentConfig, team *config.TeamConfig, searcher search.Searcher, count int) ([]tool.Tool, error) {
	tools := make([]tool.Tool, 0, len(ac.Tools))

	for _, name := range ac.Tools {
		switch name {
		case config.ToolWebSearch:
			if searcher == nil {
				return nil, fmt.Errorf("agent %s: %w", ac.Name, search.ErrMissingCredentials)
			}
			tools = append(tools, search.NewTool(searcher, func(o *search.ToolOptions) { o.Count = count }))
		case config.ToolHandoff:
			tools = append(tools, tool.NewHandoffTool(team.Names()...))
		default:
			return nil, fmt.Errorf("agent %s: unknown tool %q", ac.Name, name)
		}
	}

	return tools, nil
}

func buildSelection(cfg *config.Config, team *config.TeamConfig, registry *agent.Registry, llm model.Model, logger logging.Logger) strategy.SelectionStrategy {
	selector := team.Selector
	if cfg.Chat.Selector != "" {
		selector = cfg.Chat.Selector
	}

	var router strategy.Router = strategy.DirectiveRouter{}
	if selector == config.SelectorModel {
		router = strategy.ChainRouter{
			strategy.DirectiveRouter{},
			&strategy.JudgeRouter{
				Judge:  evaluation.NewModelJudge(llm, func(o *evaluation.ModelJudgeOptions) { o.Logger = logger }),
				Roles:  registry.Describe(),
				Logger: logger,
			},
		}
	}

	return &strategy.RoundRobinSelection{
		InitialAgent: team.InitialAgent,
		Anchor:       team.Anchor,
		Terminal:     team.Terminal,
		Router:       router,
		Logger:       logger,
	}
}

func buildTermination(team *config.TeamConfig, llm model.Model, logger logging.Logger) strategy.TerminationStrategy {
	tc := team.Termination

	var judge evaluation.Judge = evaluation.MentionJudge{}
	if tc.Judge == config.JudgeModel {
		judge = evaluation.NewModelJudge(llm, func(o *evaluation.ModelJudgeOptions) { o.Logger = logger })
	}

	return &strategy.JudgeTermination{
		Judge:    judge,
		Rubric:   tc.Rubric,
		Keyword:  tc.Keyword,
		Sources:  tc.Sources,
		Lookback: tc.Lookback,
		Logger:   logger,
	}
}

func buildReducer(cfg config.ChatConfig) history.Reducer {
	if cfg.Reducer == config.ReducerToken {
		return history.NewTokenReducer(cfg.TokenBudget)
	}
	return history.NewWindowReducer(cfg.WindowSize)
}
