package flow

import (
	"fmt"
	"strings"

	"github.com/hupe1980/chatmesh/core"
	internalutil "github.com/hupe1980/chatmesh/internal/util"
	"github.com/hupe1980/chatmesh/model"
)

// DateLayout formats the {{.Date}} template value.
const DateLayout = "January 2, 2006"

// InstructionsProcessor resolves the agent persona and renders it as a template.
//
// Available template data: {{.Agent}}, {{.Participants}} ([]string) and {{.Date}}.
type InstructionsProcessor struct{}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor() *InstructionsProcessor { return &InstructionsProcessor{} }

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest sets req.Instructions.
func (p *InstructionsProcessor) ProcessRequest(turn *Turn, req *model.Request, agent FlowAgent) error {
	instructions, err := agent.ResolveInstructions(turn)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	rendered, err := internalutil.RenderTemplate(instructions, TemplateData(turn, agent.Name()))
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	turn.Logger.Debug("agent.instruction.resolved", "agent", agent.Name(), "length", len(rendered))

	req.Instructions = rendered

	return nil
}

// TemplateData returns the data persona and task templates are rendered with.
func TemplateData(turn *Turn, agentName string) map[string]any {
	return map[string]any{
		"Agent":        agentName,
		"Participants": turn.Participants,
		"Date":         turn.Now.Format(DateLayout),
	}
}

// ContentsProcessor converts the conversation view into model contents.
//
// The agent's own messages become assistant turns; everyone else's become
// user turns prefixed with "<Speaker>: " so the model can tell participants
// apart. Instructions are prepended as a system content.
type ContentsProcessor struct{}

// NewContentsProcessor creates a new contents processor.
func NewContentsProcessor() *ContentsProcessor { return &ContentsProcessor{} }

// Name returns the processor's identifier.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest fills req.Contents.
func (p *ContentsProcessor) ProcessRequest(turn *Turn, req *model.Request, agent FlowAgent) error {
	contents := make([]core.Content, 0, len(turn.View)+2)

	if req.Instructions != "" {
		contents = append(contents, core.NewTextContent("system", req.Instructions))
	}

	hasUser := false

	for _, m := range turn.View {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}

		if m.Speaker == agent.Name() {
			contents = append(contents, core.NewTextContent("assistant", m.Content))
			continue
		}

		hasUser = true
		contents = append(contents, core.NewTextContent("user", m.String()))
	}

	if !hasUser || contents[len(contents)-1].Role == "assistant" {
		contents = append(contents, core.NewTextContent("user", "Continue the conversation as "+agent.Name()+"."))
	}

	req.Contents = contents

	return nil
}

// ToolsProcessor exposes the agent's tools as function definitions.
type ToolsProcessor struct{}

// NewToolsProcessor creates a new tools processor.
func NewToolsProcessor() *ToolsProcessor { return &ToolsProcessor{} }

// Name returns the processor's identifier.
func (p *ToolsProcessor) Name() string { return "tools" }

// ProcessRequest fills req.Tools.
func (p *ToolsProcessor) ProcessRequest(_ *Turn, req *model.Request, agent FlowAgent) error {
	tools := agent.Tools()
	if tools == nil || tools.Len() == 0 {
		return nil
	}

	defs := make([]model.ToolDefinition, 0, tools.Len())
	for _, t := range tools.All() {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	req.Tools = defs

	return nil
}

// SpeakerPrefixProcessor strips a leading "<Agent>:" the model may echo from
// the prefixed transcript format, so stored messages hold only the body.
type SpeakerPrefixProcessor struct{}

// NewSpeakerPrefixProcessor creates a new speaker prefix processor.
func NewSpeakerPrefixProcessor() *SpeakerPrefixProcessor { return &SpeakerPrefixProcessor{} }

// Name returns the processor's identifier.
func (p *SpeakerPrefixProcessor) Name() string { return "speaker_prefix" }

// ProcessResponse rewrites the leading text part in place.
func (p *SpeakerPrefixProcessor) ProcessResponse(_ *Turn, resp *model.Response, agent FlowAgent) error {
	prefix := strings.ToLower(agent.Name() + ":")

	for i, part := range resp.Content.Parts {
		tp, ok := part.(core.TextPart)
		if !ok {
			continue
		}

		trimmed := strings.TrimLeft(tp.Text, " \t\n")
		if strings.HasPrefix(strings.ToLower(trimmed), prefix) {
			resp.Content.Parts[i] = core.TextPart{Text: strings.TrimLeft(trimmed[len(prefix):], " \t")}
		}

		break
	}

	return nil
}
