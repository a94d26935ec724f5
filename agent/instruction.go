package agent

import "github.com/hupe1980/chatmesh/flow"

// Provider supplies dynamic instruction text at turn time.
type Provider interface {
	Instruction(turn *flow.Turn) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(turn *flow.Turn) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(turn *flow.Turn) (string, error) { return f(turn) }

// Instruction is the persona of a model agent: either a static string or a
// dynamic provider. Static text may use {{.Agent}}, {{.Participants}} and
// {{.Date}} template fields.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(turn *flow.Turn) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(turn *flow.Turn) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(turn)
	}
	return i.text, nil
}
