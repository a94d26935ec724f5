package strategy

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/evaluation"
	"github.com/hupe1980/chatmesh/internal/util"
	"github.com/hupe1980/chatmesh/logging"
)

// Router inspects the view for an explicit next-speaker signal.
type Router interface {
	Route(ctx context.Context, view []core.Message, participants []string) core.RoutingDecision
}

// RouterFunc adapts an ordinary function to Router.
type RouterFunc func(ctx context.Context, view []core.Message, participants []string) core.RoutingDecision

// Route implements Router.
func (f RouterFunc) Route(ctx context.Context, view []core.Message, participants []string) core.RoutingDecision {
	return f(ctx, view, participants)
}

var directivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bnext\s*:\s*@?([\w.-]+)`),
	regexp.MustCompile(`(?i)\bnext\s+speaker\s*:\s*@?([\w.-]+)`),
	regexp.MustCompile(`(?i)\bhand\s*off\s+to\s+@?([\w.-]+)`),
	regexp.MustCompile(`(?:^|\s)@([\w.-]+)`),
}

// DirectiveRouter reads the last message of the view. An explicit handoff
// (Actions.TransferTo, set by the handoff tool) wins; otherwise the content
// is scanned for "NEXT: name", "next speaker: name", "handoff to name" and
// "@name" in that order. Names match participants case-insensitively.
type DirectiveRouter struct{}

// Route implements Router.
func (DirectiveRouter) Route(_ context.Context, view []core.Message, participants []string) core.RoutingDecision {
	if len(view) == 0 {
		return core.Fallback{}
	}

	last := view[len(view)-1]

	if last.Actions.TransferTo != "" {
		if name, ok := matchParticipant(last.Actions.TransferTo, participants); ok {
			return core.Explicit{Agent: name}
		}
	}

	for _, re := range directivePatterns {
		for _, m := range re.FindAllStringSubmatch(last.Content, -1) {
			if name, ok := matchParticipant(m[1], participants); ok {
				return core.Explicit{Agent: name}
			}
		}
	}

	return core.Fallback{}
}

// DefaultRouterPrompt asks a judge to name the next speaker.
const DefaultRouterPrompt = `You are in a role play game. The following roles are available:
{{.Roles}}

Read the conversation, then select the next role from [{{join ", " .Participants}}] to play.
Only return the role name.`

// JudgeRouter asks a judge (typically a model) to pick the next speaker.
// A judge error or an answer naming no participant yields Fallback.
type JudgeRouter struct {
	Judge evaluation.Judge
	// Prompt is a template over .Roles and .Participants.
	// Defaults to DefaultRouterPrompt.
	Prompt string
	// Roles describes the participants, one "name: description" per line.
	Roles string
	// Lookback limits the transcript to the last n messages; 0 sends the whole view.
	Lookback int
	Logger   logging.Logger
}

// Route implements Router.
func (r *JudgeRouter) Route(ctx context.Context, view []core.Message, participants []string) core.RoutingDecision {
	logger := logging.OrNoOp(r.Logger)

	if r.Judge == nil || len(view) == 0 {
		return core.Fallback{}
	}

	tmpl := r.Prompt
	if tmpl == "" {
		tmpl = DefaultRouterPrompt
	}

	roles := r.Roles
	if roles == "" {
		roles = strings.Join(participants, "\n")
	}

	prompt, err := util.RenderTemplate(tmpl, map[string]any{
		"Roles":        roles,
		"Participants": participants,
	})
	if err != nil {
		logger.Warn("strategy.router.prompt_error", "error", err.Error())
		return core.Fallback{}
	}

	answer, err := r.Judge.Evaluate(ctx, prompt, core.FormatTranscript(tail(view, r.Lookback)))
	if err != nil {
		logger.Warn("strategy.router.judge_error", "error", err.Error())
		return core.Fallback{}
	}

	name, ok := pickName(answer, participants)
	if !ok {
		logger.Warn("strategy.router.unknown_answer", "answer", answer)
		return core.Fallback{}
	}

	return core.Explicit{Agent: name}
}

// ChainRouter consults routers in order; the first Explicit decision wins.
type ChainRouter []Router

// Route implements Router.
func (c ChainRouter) Route(ctx context.Context, view []core.Message, participants []string) core.RoutingDecision {
	for _, r := range c {
		if d, ok := r.Route(ctx, view, participants).(core.Explicit); ok {
			return d
		}
	}
	return core.Fallback{}
}

// matchParticipant resolves a loosely written name to its canonical form.
func matchParticipant(name string, participants []string) (string, bool) {
	name = strings.Trim(strings.TrimSpace(name), `.,;:!?"'-`)
	for _, p := range participants {
		if strings.EqualFold(p, name) {
			return p, true
		}
	}
	return "", false
}

// pickName accepts an exact answer or one that mentions exactly one participant.
func pickName(answer string, participants []string) (string, bool) {
	if name, ok := matchParticipant(answer, participants); ok {
		return name, true
	}

	lower := strings.ToLower(answer)

	var found []string
	for _, p := range participants {
		re := regexp.MustCompile(fmt.Sprintf(`(?:^|[^\w])%s(?:$|[^\w])`, regexp.QuoteMeta(strings.ToLower(p))))
		if re.MatchString(lower) {
			found = append(found, p)
		}
	}

	if len(found) == 1 {
		return found[0], true
	}

	return "", false
}

// tail returns the last n messages of view, or all of them when n <= 0.
func tail(view []core.Message, n int) []core.Message {
	if n <= 0 || n >= len(view) {
		return view
	}
	return view[len(view)-n:]
}
