// Package config holds the explicit configuration of a chatmesh run:
// controller knobs, model backend, search credentials, logging and the team
// (participants, personas, termination rules).
//
// Values are resolved defaults → YAML file → environment. Teams are data:
// the journalism and shopping presets ship embedded, and a config file may
// define its own team inline.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Model providers.
const (
	ProviderAzure     = "azure"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Reducers.
const (
	ReducerWindow = "window"
	ReducerToken  = "token"
)

// Config is the complete configuration of one chatmesh process.
type Config struct {
	// Team names an embedded preset.
	Team string `yaml:"team" env:"TEAM"`
	// CustomTeam, when set, replaces the preset.
	CustomTeam *TeamConfig `yaml:"custom_team" env:"-"`
	// Task overrides the team's task prompt.
	Task    string        `yaml:"task" env:"TASK"`
	Chat    ChatConfig    `yaml:"chat" env:"CHAT"`
	Model   ModelConfig   `yaml:"model" env:"MODEL"`
	Search  SearchConfig  `yaml:"search" env:"SEARCH"`
	Log     LogConfig     `yaml:"log" env:"LOG"`
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// ChatConfig tunes the controller.
type ChatConfig struct {
	MaxIterations int `yaml:"max_iterations" env:"MAX_ITERATIONS"`
	// Reducer is "window" (message count) or "token" (token budget).
	Reducer     string `yaml:"reducer" env:"REDUCER"`
	WindowSize  int    `yaml:"window_size" env:"WINDOW_SIZE"`
	TokenBudget int    `yaml:"token_budget" env:"TOKEN_BUDGET"`
	// Selector overrides the team's selector when set.
	Selector string `yaml:"selector" env:"SELECTOR"`
}

// ModelConfig selects and configures the language model backend.
type ModelConfig struct {
	Provider string `yaml:"provider" env:"PROVIDER"`
	// Name is the model id (OpenAI, Anthropic).
	Name        string        `yaml:"name" env:"NAME"`
	APIKey      string        `yaml:"api_key" env:"API_KEY"`
	Endpoint    string        `yaml:"endpoint" env:"ENDPOINT"`
	APIVersion  string        `yaml:"api_version" env:"API_VERSION"`
	Deployment  string        `yaml:"deployment" env:"DEPLOYMENT"`
	Temperature float64       `yaml:"temperature" env:"TEMPERATURE"`
	MaxTokens   int           `yaml:"max_tokens" env:"MAX_TOKENS"`
	Timeout     time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Streaming   bool          `yaml:"streaming" env:"STREAMING"`
}

// SearchConfig configures the web search tool.
type SearchConfig struct {
	Endpoint          string        `yaml:"endpoint" env:"ENDPOINT"`
	APIKey            string        `yaml:"api_key" env:"API_KEY"`
	Count             int           `yaml:"count" env:"COUNT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	Timeout           time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
	// Format is "json", "text" or empty to pick by terminal.
	Format    string `yaml:"format" env:"FORMAT"`
	AddSource bool   `yaml:"add_source" env:"ADD_SOURCE"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address of /metrics; empty disables the endpoint.
	Addr string `yaml:"addr" env:"ADDR"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Team: "journalism",
		Chat: ChatConfig{
			MaxIterations: 10,
			Reducer:       ReducerWindow,
			WindowSize:    5,
			TokenBudget:   4000,
		},
		Model: ModelConfig{
			Provider:   ProviderAzure,
			APIVersion: "2024-06-01",
			Timeout:    60 * time.Second,
		},
		Search: SearchConfig{
			Endpoint:          "https://api.bing.microsoft.com/v7.0/search",
			Count:             3,
			RequestsPerSecond: 3,
			Timeout:           10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// ResolveTeam returns the custom team or the named preset.
func (c *Config) ResolveTeam() (*TeamConfig, error) {
	if c.CustomTeam != nil {
		return c.CustomTeam, nil
	}
	return LoadTeam(c.Team)
}

// Validate reports every problem at once, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error

	if c.Chat.MaxIterations <= 0 {
		errs = append(errs, errors.New("chat.max_iterations must be positive"))
	}

	switch c.Chat.Reducer {
	case ReducerWindow:
		if c.Chat.WindowSize <= 0 {
			errs = append(errs, errors.New("chat.window_size must be positive"))
		}
	case ReducerToken:
		if c.Chat.TokenBudget <= 0 {
			errs = append(errs, errors.New("chat.token_budget must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("chat.reducer %q is not one of window, token", c.Chat.Reducer))
	}

	if c.Chat.Selector != "" && !slices.Contains(selectors, c.Chat.Selector) {
		errs = append(errs, fmt.Errorf("chat.selector %q is not one of %v", c.Chat.Selector, selectors))
	}

	errs = append(errs, c.Model.validate()...)

	if c.Search.Count <= 0 {
		errs = append(errs, errors.New("search.count must be positive"))
	}

	team, err := c.ResolveTeam()
	if err != nil {
		errs = append(errs, err)
	} else if err := team.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func (m ModelConfig) validate() []error {
	var errs []error

	switch m.Provider {
	case ProviderAzure:
		if m.Endpoint == "" {
			errs = append(errs, errors.New("model.endpoint is required for azure"))
		}
		if m.Deployment == "" {
			errs = append(errs, errors.New("model.deployment is required for azure"))
		}
		if m.APIKey == "" {
			errs = append(errs, errors.New("model.api_key is required for azure"))
		}
	case ProviderOpenAI, ProviderAnthropic:
		if m.APIKey == "" {
			errs = append(errs, fmt.Errorf("model.api_key is required for %s", m.Provider))
		}
	case ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("model.provider %q is not one of azure, openai, anthropic, mock", m.Provider))
	}

	if m.Temperature < 0 || m.Temperature > 2 {
		errs = append(errs, errors.New("model.temperature must be within [0, 2]"))
	}

	return errs
}
