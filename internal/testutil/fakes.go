package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/chatmesh/core"
)

// Reply is one scripted agent response.
type Reply struct {
	Content string
	Actions core.MessageActions
	Err     error
}

// ScriptedAgent replays a fixed list of replies, repeating the last one once
// exhausted. It records every view it was given.
type ScriptedAgent struct {
	AgentName string
	Replies   []Reply
	// Speaker overrides the speaker on returned messages, to exercise the
	// controller's speaker correction.
	Speaker string

	mu    sync.Mutex
	calls int
	views [][]core.Message
}

// NewScriptedAgent creates an agent answering with the given contents in order.
func NewScriptedAgent(name string, contents ...string) *ScriptedAgent {
	replies := make([]Reply, len(contents))
	for i, c := range contents {
		replies[i] = Reply{Content: c}
	}
	return &ScriptedAgent{AgentName: name, Replies: replies}
}

// Name implements core.Agent.
func (a *ScriptedAgent) Name() string { return a.AgentName }

// Description implements core.Agent.
func (a *ScriptedAgent) Description() string { return "scripted " + a.AgentName }

// Respond implements core.Agent.
func (a *ScriptedAgent) Respond(ctx context.Context, view []core.Message) (core.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.views = append(a.views, append([]core.Message(nil), view...))
	idx := a.calls
	a.calls++

	if err := ctx.Err(); err != nil {
		return core.Message{}, err
	}

	reply := Reply{Content: a.AgentName + " turn"}
	if len(a.Replies) > 0 {
		if idx >= len(a.Replies) {
			idx = len(a.Replies) - 1
		}
		reply = a.Replies[idx]
	}

	if reply.Err != nil {
		return core.Message{}, reply.Err
	}

	speaker := a.AgentName
	if a.Speaker != "" {
		speaker = a.Speaker
	}

	msg := core.NewAgentMessage(speaker, reply.Content)
	msg.Actions = reply.Actions
	return msg, nil
}

// Calls returns how many times Respond was invoked.
func (a *ScriptedAgent) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Views returns copies of every view passed to Respond.
func (a *ScriptedAgent) Views() [][]core.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([][]core.Message(nil), a.views...)
}

// ScriptedJudge returns verdicts in order, repeating the last one. It
// satisfies evaluation.Judge.
type ScriptedJudge struct {
	Verdicts []string
	Err      error

	mu          sync.Mutex
	calls       int
	transcripts []string
}

// Evaluate returns the next scripted verdict.
func (j *ScriptedJudge) Evaluate(_ context.Context, _ string, transcript string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.transcripts = append(j.transcripts, transcript)
	idx := j.calls
	j.calls++

	if j.Err != nil {
		return "", j.Err
	}
	if len(j.Verdicts) == 0 {
		return "", nil
	}
	if idx >= len(j.Verdicts) {
		idx = len(j.Verdicts) - 1
	}
	return j.Verdicts[idx], nil
}

// Calls returns how many times Evaluate was invoked.
func (j *ScriptedJudge) Calls() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.calls
}

// Transcripts returns every transcript the judge was shown.
func (j *ScriptedJudge) Transcripts() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.transcripts...)
}
