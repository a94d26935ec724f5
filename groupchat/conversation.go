package groupchat

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/history"
	"github.com/hupe1980/chatmesh/logging"
)

// turnLogger is implemented by loggers with domain helpers (logging.ChatLogger).
type turnLogger interface {
	LogTurn(iteration int, speaker string, sequence int, dur time.Duration)
	LogVerdict(speaker string, terminate bool, reason string)
}

// Conversation is one run of a Controller. It is single use: Run may be
// consumed once.
type Conversation struct {
	ctrl   *Controller
	store  *history.Store
	logger logging.Logger

	mu      sync.Mutex
	state   State
	started bool
}

func newConversation(c *Controller) *Conversation {
	id := core.NewID()

	logger := c.logger
	if cl, ok := logger.(*logging.ChatLogger); ok {
		logger = cl.WithConversation(id)
	}

	return &Conversation{
		ctrl:   c,
		store:  history.NewStore(),
		logger: logger,
		state:  State{ConversationID: id},
	}
}

// ID returns the conversation identifier.
func (cv *Conversation) ID() string { return cv.state.ConversationID }

// State returns a snapshot of the conversation state.
func (cv *Conversation) State() State {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	return cv.state
}

// History returns a copy of the full message log, including the task.
func (cv *Conversation) History() []core.Message {
	return cv.store.Messages()
}

// Run seeds the history with task and yields each agent message as soon as
// it has been appended. The sequence ends when the conversation completes,
// hits the iteration ceiling or the consumer stops. A fatal error is yielded
// once as the last element.
func (cv *Conversation) Run(ctx context.Context, task string) iter.Seq2[core.Message, error] {
	return func(yield func(core.Message, error) bool) {
		cv.mu.Lock()
		started := cv.started
		cv.started = true
		cv.mu.Unlock()

		if started {
			yield(core.Message{}, ErrConversationStarted)
			return
		}

		cv.run(ctx, task, yield)
	}
}

// run checks termination on the seeded history and then after every
// appended message, before the ceiling is consulted. A message that satisfies
// the termination strategy on the last allowed turn therefore completes the
// conversation instead of reporting the iteration limit.
func (cv *Conversation) run(ctx context.Context, task string, yield func(core.Message, error) bool) {
	c := cv.ctrl

	defer cv.end(ctx)

	seed := cv.store.Append(core.NewTaskMessage(task))
	cv.logger.Info("groupchat.conversation.start",
		"participants", c.participants,
		"max_iterations", c.maxIterations,
		"task_sequence", seed.Sequence,
	)

	if err := cv.fire(ctx, &CallbackContext{Type: CallbackConversationStart}); err != nil {
		cv.abort(ctx, fmt.Errorf("conversation start callback: %w", err), yield)
		return
	}

	if cv.checkTermination(ctx) {
		return
	}

	for {
		if err := ctx.Err(); err != nil {
			cv.abort(ctx, err, yield)
			return
		}

		iteration := cv.State().Iterations
		if iteration >= c.maxIterations {
			cv.finish(OutcomeIterationLimit, ReasonIterationLimit)
			return
		}

		view := c.reducer.Reduce(cv.store.Messages())
		last := core.LastSpeaker(view)
		speaker := cv.selectSpeaker(ctx, view, last, iteration)

		a, err := c.registry.Get(speaker)
		if err != nil {
			cv.abort(ctx, err, yield)
			return
		}

		if err := cv.fire(ctx, &CallbackContext{Type: CallbackBeforeTurn, Agent: speaker, Iteration: iteration + 1}); err != nil {
			cv.abort(ctx, fmt.Errorf("before turn callback: %w", err), yield)
			return
		}

		start := time.Now()

		msg, err := a.Respond(ctx, view)
		if err != nil {
			cv.abort(ctx, fmt.Errorf("turn %d (%s): %w", iteration+1, speaker, err), yield)
			return
		}

		msg.Speaker = speaker
		if msg.Role == "" {
			msg.Role = core.RoleAgent
		}

		stored := cv.store.Append(msg)
		dur := time.Since(start)

		cv.mu.Lock()
		cv.state.Iterations++
		iteration = cv.state.Iterations
		cv.mu.Unlock()

		if tl, ok := cv.logger.(turnLogger); ok {
			tl.LogTurn(iteration, speaker, stored.Sequence, dur)
		} else {
			cv.logger.Info("groupchat.turn.complete", "iteration", iteration, "speaker", speaker, "sequence", stored.Sequence)
		}

		if err := cv.fire(ctx, &CallbackContext{
			Type:      CallbackAfterTurn,
			Agent:     speaker,
			Iteration: iteration,
			Message:   &stored,
			Duration:  dur,
		}); err != nil {
			cv.abort(ctx, fmt.Errorf("after turn callback: %w", err), yield)
			return
		}

		if !yield(stored, nil) {
			cv.finish(OutcomeCancelled, ReasonStopped)
			return
		}

		if stored.Actions.Escalate {
			cv.finish(OutcomeCompleted, fmt.Sprintf("escalated by %s", speaker))
			return
		}

		if cv.checkTermination(ctx) {
			return
		}
	}
}

// selectSpeaker asks the selection strategy and corrects picks that repeat
// the last speaker or name no participant.
func (cv *Conversation) selectSpeaker(ctx context.Context, view []core.Message, last string, iteration int) string {
	c := cv.ctrl

	picked := c.selection.Select(ctx, view, c.Participants(), last)

	valid := c.registry.Has(picked) && (len(view) == 0 || picked != last)
	if valid {
		return picked
	}

	next := c.successor(last)

	cv.logger.Warn("strategy.selection.override",
		"requested", picked,
		"last_speaker", last,
		"selected", next,
	)

	if err := cv.fire(ctx, &CallbackContext{
		Type:      CallbackSelectionOverride,
		Agent:     next,
		Requested: picked,
		Iteration: iteration + 1,
	}); err != nil {
		cv.logger.Warn("groupchat.callback.error", "type", string(CallbackSelectionOverride), "error", err.Error())
	}

	return next
}

// checkTermination consults the termination strategy once on the current
// view and finishes the conversation on Terminate.
func (cv *Conversation) checkTermination(ctx context.Context) bool {
	c := cv.ctrl

	view := c.reducer.Reduce(cv.store.Messages())

	verdict := c.termination.ShouldTerminate(ctx, view)
	reason, terminate := core.IsTerminate(verdict)

	if tl, ok := cv.logger.(turnLogger); ok {
		tl.LogVerdict(core.LastSpeaker(view), terminate, reason)
	} else {
		cv.logger.Debug("strategy.termination.verdict", "speaker", core.LastSpeaker(view), "terminate", terminate, "reason", reason)
	}

	if err := cv.fire(ctx, &CallbackContext{
		Type:      CallbackVerdict,
		Agent:     core.LastSpeaker(view),
		Iteration: cv.State().Iterations,
		Verdict:   verdict,
	}); err != nil {
		cv.logger.Warn("groupchat.callback.error", "type", string(CallbackVerdict), "error", err.Error())
	}

	if terminate {
		cv.finish(OutcomeCompleted, reason)
	}

	return terminate
}

func (cv *Conversation) finish(outcome Outcome, reason string) {
	cv.mu.Lock()
	defer cv.mu.Unlock()

	if cv.state.Done() {
		return
	}

	cv.state.Outcome = outcome
	cv.state.Reason = reason
	cv.state.Terminated = outcome == OutcomeCompleted
}

func (cv *Conversation) abort(ctx context.Context, err error, yield func(core.Message, error) bool) {
	cv.mu.Lock()
	cv.state.Outcome = OutcomeAborted
	cv.state.Reason = err.Error()
	cv.state.Err = err
	iteration := cv.state.Iterations
	cv.mu.Unlock()

	cv.logger.Error("groupchat.conversation.aborted", "iteration", iteration, "error", err.Error())

	if cbErr := cv.fire(ctx, &CallbackContext{Type: CallbackOnError, Iteration: iteration, Err: err}); cbErr != nil {
		cv.logger.Warn("groupchat.callback.error", "type", string(CallbackOnError), "error", cbErr.Error())
	}

	yield(core.Message{}, err)
}

// end fires the end callback with the final state.
func (cv *Conversation) end(ctx context.Context) {
	st := cv.State()

	cv.logger.Info("groupchat.conversation.end",
		"outcome", st.Outcome.String(),
		"reason", st.Reason,
		"iterations", st.Iterations,
	)

	if err := cv.fire(context.WithoutCancel(ctx), &CallbackContext{Type: CallbackConversationEnd, Iteration: st.Iterations, State: st}); err != nil {
		cv.logger.Warn("groupchat.callback.error", "type", string(CallbackConversationEnd), "error", err.Error())
	}
}

func (cv *Conversation) fire(ctx context.Context, cc *CallbackContext) error {
	cc.ConversationID = cv.state.ConversationID
	return cv.ctrl.callbacks.Execute(ctx, cc)
}
