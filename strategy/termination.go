package strategy

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/evaluation"
	"github.com/hupe1980/chatmesh/logging"
)

// DefaultKeyword is the completion keyword judges are asked to emit.
const DefaultKeyword = "TERMINATE"

const maxReasonVerdict = 120

// TerminationStrategy decides whether the conversation is complete.
type TerminationStrategy interface {
	ShouldTerminate(ctx context.Context, view []core.Message) core.Verdict
}

// TerminationFunc adapts an ordinary function to TerminationStrategy.
type TerminationFunc func(ctx context.Context, view []core.Message) core.Verdict

// ShouldTerminate implements TerminationStrategy.
func (f TerminationFunc) ShouldTerminate(ctx context.Context, view []core.Message) core.Verdict {
	return f(ctx, view)
}

// JudgeTermination asks a judge about the latest messages and terminates
// when the verdict contains Keyword (case-insensitive). Judge failures and
// blank verdicts continue the conversation. Every call reaches the judge;
// nothing is cached.
type JudgeTermination struct {
	Judge evaluation.Judge
	// Rubric is the question put to the judge.
	Rubric string
	// Keyword defaults to DefaultKeyword.
	Keyword string
	// Sources restricts evaluation to messages from these speakers. Empty
	// means every speaker may end the conversation.
	Sources []string
	// Lookback is how many trailing messages the judge sees. Defaults to 1.
	Lookback int
	Logger   logging.Logger
}

// NewMentionTermination ends the conversation when a message from one of
// sources mentions keyword.
func NewMentionTermination(keyword string, sources ...string) *JudgeTermination {
	return &JudgeTermination{
		Judge:   evaluation.MentionJudge{},
		Keyword: keyword,
		Sources: sources,
	}
}

// ShouldTerminate implements TerminationStrategy.
func (t *JudgeTermination) ShouldTerminate(ctx context.Context, view []core.Message) core.Verdict {
	if len(view) == 0 || t.Judge == nil {
		return core.Continue{}
	}

	logger := logging.OrNoOp(t.Logger)
	last := view[len(view)-1]

	if len(t.Sources) > 0 && !slices.Contains(t.Sources, last.Speaker) {
		return core.Continue{}
	}

	lookback := t.Lookback
	if lookback <= 0 {
		lookback = 1
	}

	keyword := t.Keyword
	if keyword == "" {
		keyword = DefaultKeyword
	}

	verdict, err := t.Judge.Evaluate(ctx, t.Rubric, core.FormatTranscript(tail(view, lookback)))
	if err != nil {
		logger.Warn("strategy.termination.judge_error", "speaker", last.Speaker, "error", err.Error())
		return core.Continue{}
	}

	verdict = strings.TrimSpace(verdict)
	if verdict == "" {
		logger.Warn("strategy.termination.blank_verdict", "speaker", last.Speaker)
		return core.Continue{}
	}

	if !strings.Contains(strings.ToLower(verdict), strings.ToLower(keyword)) {
		logger.Debug("strategy.termination.continue", "speaker", last.Speaker)
		return core.Continue{}
	}

	return core.Terminate{
		Reason: fmt.Sprintf("terminated: judge verdict %q on message from %s", truncate(verdict, maxReasonVerdict), last.Speaker),
	}
}

// AnyTermination terminates when any of strategies does; the first
// Terminate verdict (in order) supplies the reason.
func AnyTermination(strategies ...TerminationStrategy) TerminationStrategy {
	return TerminationFunc(func(ctx context.Context, view []core.Message) core.Verdict {
		for _, s := range strategies {
			if v := s.ShouldTerminate(ctx, view); v != nil {
				if _, ok := v.(core.Terminate); ok {
					return v
				}
			}
		}
		return core.Continue{}
	})
}

// NeverTerminate leaves termination to the iteration ceiling.
func NeverTerminate() TerminationStrategy {
	return TerminationFunc(func(context.Context, []core.Message) core.Verdict { return core.Continue{} })
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
