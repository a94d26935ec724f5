package flow

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/model"
)

// BaseFlow runs request processors, calls the model and loops over tool
// calls with pluggable pre/post processors.
type BaseFlow struct {
	agent              FlowAgent
	requestProcessors  []RequestProcessor
	responseProcessors []ResponseProcessor
	executor           FunctionExecutor
}

// NewBaseFlow creates a flow without processors.
func NewBaseFlow(agent FlowAgent) *BaseFlow {
	return &BaseFlow{
		agent:    agent,
		executor: NewParallelFunctionExecutor(FunctionExecutorConfig{MaxParallel: 1}),
	}
}

// AddRequestProcessor appends a request processor; registration order is execution order.
func (f *BaseFlow) AddRequestProcessor(processor RequestProcessor) {
	f.requestProcessors = append(f.requestProcessors, processor)
}

// AddResponseProcessor appends a response processor.
func (f *BaseFlow) AddResponseProcessor(processor ResponseProcessor) {
	f.responseProcessors = append(f.responseProcessors, processor)
}

// SetFunctionExecutor replaces the tool call executor.
func (f *BaseFlow) SetFunctionExecutor(e FunctionExecutor) { f.executor = e }

// Run executes the turn. Model errors are returned; tool errors are folded
// into function responses and the result's ToolFailures.
func (f *BaseFlow) Run(turn *Turn) (Result, error) {
	var (
		res     Result
		spliced []core.Content
	)

	maxRounds := f.agent.MaxToolRounds()
	if maxRounds < 0 {
		maxRounds = 0
	}

	for round := 0; ; round++ {
		if err := turn.Context.Err(); err != nil {
			return res, err
		}

		req := new(model.Request)
		for _, processor := range f.requestProcessors {
			if err := processor.ProcessRequest(turn, req, f.agent); err != nil {
				return res, fmt.Errorf("request processor %s failed: %w", processor.Name(), err)
			}
		}

		req.Contents = append(req.Contents, spliced...)
		req.Stream = f.agent.IsStreamingEnabled()

		lastRound := round >= maxRounds
		if lastRound {
			req.Tools = nil
		}

		resp, err := f.generate(turn, *req)
		res.ModelCalls++
		if err != nil {
			return res, err
		}

		for _, processor := range f.responseProcessors {
			if err := processor.ProcessResponse(turn, &resp, f.agent); err != nil {
				return res, fmt.Errorf("response processor %s failed: %w", processor.Name(), err)
			}
		}

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 || lastRound {
			res.Content = withFailureNotes(strings.TrimSpace(resp.Content.Text()), res.ToolFailures)
			return res, nil
		}

		outcomes := f.executor.Execute(turn, f.agent, calls)

		responses := make([]core.Part, 0, len(outcomes))
		for _, o := range outcomes {
			res.ToolCalls++
			mergeActions(&res.Actions, o.Actions)
			if o.Failure != "" {
				res.ToolFailures = append(res.ToolFailures, o.Failure)
			}
			responses = append(responses, core.FunctionResponsePart{FunctionResponse: o.Response})
		}

		spliced = append(spliced,
			core.Content{Role: "assistant", Parts: resp.Content.Parts},
			core.Content{Role: "tool", Parts: responses},
		)
	}
}

func (f *BaseFlow) generate(turn *Turn, req model.Request) (model.Response, error) {
	m := f.agent.Model()
	if m == nil {
		return model.Response{}, fmt.Errorf("agent %s has no model", f.agent.Name())
	}

	start := time.Now()
	resp, err := model.Collect(turn.Context, m, req)

	info := m.Info()
	if err != nil {
		turn.Logger.Error("model.call.error", "agent", f.agent.Name(), "model", info.Name, "provider", info.Provider, "error", err.Error())
		return model.Response{}, fmt.Errorf("model %s: %w", info.Name, err)
	}

	turn.Logger.Debug("model.call.complete", "agent", f.agent.Name(), "model", info.Name, "duration_ms", time.Since(start).Milliseconds(), "finish_reason", resp.FinishReason)

	return resp, nil
}

func mergeActions(dst *core.MessageActions, src core.MessageActions) {
	if src.TransferTo != "" {
		dst.TransferTo = src.TransferTo
	}
	if src.Escalate {
		dst.Escalate = true
	}
}

func withFailureNotes(content string, failures []string) string {
	if len(failures) == 0 {
		return content
	}

	var b strings.Builder
	b.WriteString(content)
	for _, f := range failures {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Note: ")
		b.WriteString(f)
	}
	return b.String()
}
