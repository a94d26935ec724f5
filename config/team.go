package config

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/internal/util"
)

//go:embed teams/*.yaml
var teamFS embed.FS

// Agent kinds.
const (
	KindModel = "model"
	KindHuman = "human"
)

// Tool names an agent may list.
const (
	ToolWebSearch = "web_search"
	ToolHandoff   = "handoff"
)

// Selectors.
const (
	SelectorRoundRobin = "round_robin"
	SelectorModel      = "model"
)

// Judges.
const (
	JudgeMention = "mention"
	JudgeModel   = "model"
)

var (
	selectors = []string{SelectorRoundRobin, SelectorModel}
	judges    = []string{JudgeMention, JudgeModel}
	tools     = []string{ToolWebSearch, ToolHandoff}
)

// TaskDateLayout formats {{.Date}} in task prompts.
const TaskDateLayout = "2006-01-02"

// TeamConfig describes the participants of a conversation and its rules.
type TeamConfig struct {
	Name string `yaml:"name"`
	// Task is a template; {{.Date}} expands to today's date.
	Task         string            `yaml:"task"`
	InitialAgent string            `yaml:"initial_agent"`
	Anchor       string            `yaml:"anchor"`
	Terminal     string            `yaml:"terminal"`
	Selector     string            `yaml:"selector"`
	Termination  TerminationConfig `yaml:"termination"`
	Agents       []AgentConfig     `yaml:"agents"`
}

// TerminationConfig describes when a conversation is complete.
type TerminationConfig struct {
	// Judge is "mention" (keyword in the message) or "model" (model verdict).
	Judge    string   `yaml:"judge"`
	Keyword  string   `yaml:"keyword"`
	Sources  []string `yaml:"sources"`
	Rubric   string   `yaml:"rubric"`
	Lookback int      `yaml:"lookback"`
}

// AgentConfig describes one participant.
type AgentConfig struct {
	Name        string   `yaml:"name"`
	Kind        string   `yaml:"kind"`
	Description string   `yaml:"description"`
	Instruction string   `yaml:"instruction"`
	Tools       []string `yaml:"tools"`
}

// LoadTeam returns an embedded team preset by name.
func LoadTeam(name string) (*TeamConfig, error) {
	data, err := teamFS.ReadFile(path.Join("teams", name+".yaml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: unknown team %q (available: %s)", ErrInvalidConfig, name, strings.Join(TeamNames(), ", "))
		}
		return nil, err
	}

	return ParseTeam(data)
}

// ParseTeam decodes a team from YAML.
func ParseTeam(data []byte) (*TeamConfig, error) {
	var team TeamConfig
	if err := yaml.Unmarshal(data, &team); err != nil {
		return nil, fmt.Errorf("%w: parse team: %w", ErrInvalidConfig, err)
	}
	return &team, nil
}

// TeamNames lists the embedded presets.
func TeamNames() []string {
	entries, err := fs.ReadDir(teamFS, "teams")
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)

	return names
}

// Names returns the participant names in order.
func (t *TeamConfig) Names() []string {
	names := make([]string, len(t.Agents))
	for i, a := range t.Agents {
		names[i] = a.Name
	}
	return names
}

// UsesTool reports whether any model agent lists tool.
func (t *TeamConfig) UsesTool(tool string) bool {
	for _, a := range t.Agents {
		if slices.Contains(a.Tools, tool) {
			return true
		}
	}
	return false
}

// RenderTask expands the task template for now.
func (t *TeamConfig) RenderTask(now time.Time) (string, error) {
	return util.RenderTemplate(t.Task, map[string]any{
		"Date": now.Format(TaskDateLayout),
		"Team": t.Name,
	})
}

// Validate checks participants and the references between them.
func (t *TeamConfig) Validate() error {
	var errs []error

	if len(t.Agents) == 0 {
		errs = append(errs, errors.New("team has no agents"))
	}

	seen := make(map[string]bool, len(t.Agents))
	for i, a := range t.Agents {
		switch {
		case strings.TrimSpace(a.Name) == "":
			errs = append(errs, fmt.Errorf("agents[%d]: name is required", i))
		case seen[a.Name]:
			errs = append(errs, fmt.Errorf("agents[%d]: duplicate name %q", i, a.Name))
		case a.Name == core.UserSpeaker:
			errs = append(errs, fmt.Errorf("agents[%d]: name %q is reserved for the task message", i, a.Name))
		}
		seen[a.Name] = true

		switch a.Kind {
		case "", KindModel:
		case KindHuman:
			if len(a.Tools) > 0 {
				errs = append(errs, fmt.Errorf("agent %q: human participants cannot use tools", a.Name))
			}
		default:
			errs = append(errs, fmt.Errorf("agent %q: unknown kind %q", a.Name, a.Kind))
		}

		for _, tool := range a.Tools {
			if !slices.Contains(tools, tool) {
				errs = append(errs, fmt.Errorf("agent %q: unknown tool %q", a.Name, tool))
			}
		}
	}

	for field, name := range map[string]string{
		"initial_agent": t.InitialAgent,
		"anchor":        t.Anchor,
		"terminal":      t.Terminal,
	} {
		if name != "" && !seen[name] {
			errs = append(errs, fmt.Errorf("%s %q is not an agent", field, name))
		}
	}

	for _, s := range t.Termination.Sources {
		if !seen[s] {
			errs = append(errs, fmt.Errorf("termination source %q is not an agent", s))
		}
	}

	if t.Selector != "" && !slices.Contains(selectors, t.Selector) {
		errs = append(errs, fmt.Errorf("selector %q is not one of %v", t.Selector, selectors))
	}

	if t.Termination.Judge != "" && !slices.Contains(judges, t.Termination.Judge) {
		errs = append(errs, fmt.Errorf("termination judge %q is not one of %v", t.Termination.Judge, judges))
	}

	if _, err := t.RenderTask(time.Now()); err != nil {
		errs = append(errs, fmt.Errorf("task: %w", err))
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: team %q: %w", ErrInvalidConfig, t.Name, errors.Join(errs...))
}
