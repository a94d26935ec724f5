package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hupe1980/chatmesh/core"
)

// DefaultExitKeyword ends the conversation when typed by the human participant.
const DefaultExitKeyword = "exit"

// HumanAgentOptions configures a HumanAgent.
type HumanAgentOptions struct {
	Description string
	Input       io.Reader
	Output      io.Writer
	Prompt      string
	ExitKeyword string
}

// HumanAgent is a participant backed by a person at a terminal. Respond
// blocks until a line is read. Typing the exit keyword (case-insensitive) or
// closing the input produces a message that asks the controller to stop.
type HumanAgent struct {
	BaseAgent
	pending     chan lineResult
	out         io.Writer
	prompt      string
	exitKeyword string
	reader      *bufio.Reader
	readErr     error
}

type lineResult struct {
	text string
	err  error
}

// NewHumanAgent creates a human participant reading from stdin by default.
func NewHumanAgent(name string, optFns ...func(o *HumanAgentOptions)) *HumanAgent {
	opts := HumanAgentOptions{
		Description: "A human participant who can provide feedback and approve the final result.",
		Input:       os.Stdin,
		Output:      os.Stdout,
		ExitKeyword: DefaultExitKeyword,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Prompt == "" {
		opts.Prompt = fmt.Sprintf("%s (type %q to finish): ", name, opts.ExitKeyword)
	}

	base := NewBaseAgent(name)
	base.description = opts.Description

	return &HumanAgent{
		BaseAgent:   base,
		out:         opts.Output,
		prompt:      opts.Prompt,
		exitKeyword: opts.ExitKeyword,
		reader:      bufio.NewReader(opts.Input),
	}
}

// Respond implements core.Agent.
func (h *HumanAgent) Respond(ctx context.Context, _ []core.Message) (core.Message, error) {
	if h.out != nil {
		if _, err := io.WriteString(h.out, h.prompt); err != nil {
			return core.Message{}, fmt.Errorf("human %s: write prompt: %w", h.Name(), err)
		}
	}

	line, err := h.readLine(ctx)
	if err != nil && !errors.Is(err, io.EOF) {
		return core.Message{}, fmt.Errorf("human %s: %w", h.Name(), err)
	}

	text := strings.TrimSpace(line)

	msg := core.NewUserMessage(h.Name(), text)
	if (errors.Is(err, io.EOF) && text == "") || strings.EqualFold(text, h.exitKeyword) {
		msg.Content = h.exitKeyword
		msg.Actions.Escalate = true
	}

	return msg, nil
}

// readLine reads one line without outliving ctx. The read starts only when a
// line is wanted; one abandoned by ctx stays pending and is delivered to the
// next call.
func (h *HumanAgent) readLine(ctx context.Context) (string, error) {
	if h.readErr != nil {
		return "", h.readErr
	}

	if h.pending == nil {
		h.pending = make(chan lineResult, 1)
		go h.read(h.pending)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-h.pending:
		h.pending = nil
		if r.err != nil {
			h.readErr = r.err
		}
		return r.text, r.err
	}
}

func (h *HumanAgent) read(out chan<- lineResult) {
	text, err := h.reader.ReadString('\n')
	if err != nil && text != "" && errors.Is(err, io.EOF) {
		err = nil
	}
	out <- lineResult{text: text, err: err}
}
