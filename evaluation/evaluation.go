// Package evaluation provides judges: components that read a slice of the
// conversation and answer a question about it in free text. Termination and
// routing strategies interpret the answers.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/internal/util"
	"github.com/hupe1980/chatmesh/logging"
	"github.com/hupe1980/chatmesh/model"
)

// ErrEmptyTranscript is returned by judges asked to evaluate nothing.
var ErrEmptyTranscript = errors.New("evaluation: empty transcript")

// Judge evaluates a transcript against a prompt and returns its verdict text.
type Judge interface {
	Evaluate(ctx context.Context, prompt, transcript string) (string, error)
}

// JudgeFunc adapts an ordinary function to Judge.
type JudgeFunc func(ctx context.Context, prompt, transcript string) (string, error)

// Evaluate implements Judge.
func (f JudgeFunc) Evaluate(ctx context.Context, prompt, transcript string) (string, error) {
	return f(ctx, prompt, transcript)
}

// MentionJudge echoes the transcript as its verdict. Paired with a keyword
// check it ends a conversation when a message mentions the keyword.
type MentionJudge struct{}

// Evaluate implements Judge.
func (MentionJudge) Evaluate(_ context.Context, _ string, transcript string) (string, error) {
	return transcript, nil
}

// DefaultJudgeTemplate frames the transcript for a model judge.
const DefaultJudgeTemplate = `{{.Prompt}}

Conversation:
{{.Transcript}}`

// ModelJudgeOptions configures a ModelJudge.
type ModelJudgeOptions struct {
	// Instructions is sent as the system prompt.
	Instructions string
	// Template renders the user turn from .Prompt and .Transcript.
	Template string
	Logger   logging.Logger
}

// ModelJudge asks a language model for its verdict.
type ModelJudge struct {
	llm          model.Model
	instructions string
	template     string
	logger       logging.Logger
}

// NewModelJudge creates a judge backed by llm.
func NewModelJudge(llm model.Model, optFns ...func(o *ModelJudgeOptions)) *ModelJudge {
	opts := ModelJudgeOptions{
		Instructions: "You evaluate multi-agent conversations. Answer briefly and precisely.",
		Template:     DefaultJudgeTemplate,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ModelJudge{
		llm:          llm,
		instructions: opts.Instructions,
		template:     opts.Template,
		logger:       logging.OrNoOp(opts.Logger),
	}
}

// Evaluate implements Judge. The returned verdict is trimmed.
func (j *ModelJudge) Evaluate(ctx context.Context, prompt, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", ErrEmptyTranscript
	}

	text, err := util.RenderTemplate(j.template, map[string]any{
		"Prompt":     prompt,
		"Transcript": transcript,
	})
	if err != nil {
		return "", fmt.Errorf("render judge prompt: %w", err)
	}

	start := time.Now()

	resp, err := model.Collect(ctx, j.llm, model.Request{
		Instructions: j.instructions,
		Contents:     []core.Content{core.NewTextContent("user", text)},
	})
	if err != nil {
		j.logger.Warn("evaluation.judge.error", "model", j.llm.Info().Name, "error", err.Error())
		return "", fmt.Errorf("judge model: %w", err)
	}

	verdict := strings.TrimSpace(resp.Content.Text())

	j.logger.Debug("evaluation.judge.complete",
		"model", j.llm.Info().Name,
		"verdict", verdict,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return verdict, nil
}
