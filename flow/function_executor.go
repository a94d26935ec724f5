package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/tool"
)

// CallOutcome is the result of one tool call.
type CallOutcome struct {
	Response core.FunctionResponse
	Actions  core.MessageActions
	// Failure is "<tool> failed: <err>" when the call failed.
	Failure string
}

// FunctionExecutor executes a batch of tool calls. Implementations must:
//   - Respect turn.Context cancellation
//   - Never panic (recover internally and report a failure)
//   - Return exactly one outcome per call, in call order
type FunctionExecutor interface {
	Execute(turn *Turn, agent FlowAgent, calls []core.FunctionCall) []CallOutcome
}

// FunctionExecutorConfig configures the default executor.
type FunctionExecutorConfig struct {
	MaxParallel    int  // 0 or <1 => len(calls)
	LogStartEvents bool // log a start line per call
}

type parallelFunctionExecutor struct {
	cfg FunctionExecutorConfig
}

// NewParallelFunctionExecutor constructs an executor running up to
// MaxParallel calls at once.
func NewParallelFunctionExecutor(cfg FunctionExecutorConfig) FunctionExecutor {
	return &parallelFunctionExecutor{cfg: cfg}
}

func (e *parallelFunctionExecutor) Execute(turn *Turn, agent FlowAgent, calls []core.FunctionCall) []CallOutcome {
	n := len(calls)
	out := make([]CallOutcome, n)

	if n == 0 {
		return out
	}

	maxPar := e.cfg.MaxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	start := time.Now()

	if maxPar == 1 {
		for i, fc := range calls {
			out[i] = e.executeOne(turn, agent, fc)
		}
	} else {
		var wg sync.WaitGroup
		sem := make(chan struct{}, maxPar)

		for i, fc := range calls {
			wg.Add(1)
			sem <- struct{}{}
			go func(idx int, fc core.FunctionCall) {
				defer wg.Done()
				defer func() { <-sem }()
				out[idx] = e.executeOne(turn, agent, fc)
			}(i, fc)
		}

		wg.Wait()
	}

	turn.Logger.Debug("agent.functions.batch.complete",
		"agent", agent.Name(),
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return out
}

func (e *parallelFunctionExecutor) executeOne(turn *Turn, agent FlowAgent, fc core.FunctionCall) CallOutcome {
	toolCtx := core.NewToolContext(turn.Context, core.AgentInfo{Name: agent.Name()}, fc.ID, turn.Logger)

	if e.cfg.LogStartEvents {
		turn.Logger.Info("agent.function.start", "agent", agent.Name(), "function", fc.Name, "function_call_id", fc.ID)
	}

	start := time.Now()

	var (
		result any
		err    error
	)

	if ctxErr := turn.Context.Err(); ctxErr != nil {
		err = ctxErr
	} else {
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = panicError(r)
					turn.Logger.Error("agent.function.panic", "agent", agent.Name(), "function", fc.Name, "recover", r)
				}
			}()
			result, err = executeTool(agent.Tools(), toolCtx, fc.Name, fc.Arguments)
		}()
	}

	turn.Logger.Info("agent.function.executed",
		"agent", agent.Name(),
		"function", fc.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	outcome := CallOutcome{
		Response: core.FunctionResponse{ID: fc.ID, Name: fc.Name, Response: result},
		Actions:  toolCtx.Actions(),
	}

	if err != nil {
		outcome.Failure = fmt.Sprintf("%s failed: %s", fc.Name, failureMessage(err))
		outcome.Response.Response = outcome.Failure
		outcome.Response.Error = outcome.Failure
		turn.Logger.Warn("tool.call.error", "agent", agent.Name(), "tool", fc.Name, "error", err.Error())
	}

	return outcome
}

// failureMessage prefers the bare ToolError message over its decorated form.
func failureMessage(err error) string {
	var toolErr *tool.ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Message
	}
	return err.Error()
}

// panicError converts a recovered panic value to an error.
func panicError(r any) error { return &panicErr{val: r, stack: debug.Stack()} }

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic recovered: %v", p.val) }

// executeTool centralizes tool lookup and argument decoding.
func executeTool(tools *tool.Set, toolCtx *core.ToolContext, toolName, args string) (any, error) {
	if tools == nil {
		return nil, tool.NewToolError(toolName, "tool not found", tool.CodeNotFound)
	}

	impl, ok := tools.Get(toolName)
	if !ok {
		return nil, tool.NewToolError(toolName, "tool not found", tool.CodeNotFound)
	}

	argMap := map[string]any{}
	if args != "" {
		if err := json.Unmarshal([]byte(args), &argMap); err != nil {
			return nil, tool.NewToolError(toolName, fmt.Sprintf("invalid arguments: %v", err), tool.CodeBadInput)
		}
	}

	return impl.Call(toolCtx, argMap)
}
