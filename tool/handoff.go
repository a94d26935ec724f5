package tool

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/chatmesh/core"
)

// HandoffToolName is the name under which the handoff tool is exposed.
const HandoffToolName = "transfer_to_agent"

// EscalateToolName is the name under which the escalate tool is exposed.
const EscalateToolName = "end_conversation"

// NewHandoffTool returns a tool that lets an agent name the next speaker
// explicitly. The choice is recorded on the message as Actions.TransferTo and
// honoured by the selection strategy when the target is a valid participant.
//
// When participants is non-empty, unknown targets are rejected so the model
// receives an actionable error instead of a silently ignored handoff.
func NewHandoffTool(participants ...string) Tool {
	desc := "Hand the floor to another participant of the group conversation by name. " +
		"Use when another participant is better suited to continue."
	if len(participants) > 0 {
		desc += " Participants: " + strings.Join(participants, ", ") + "."
	}

	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"agent": map[string]any{"type": "string", "description": "Name of the participant who should speak next"},
		},
		"required": []string{"agent"},
	}

	if len(participants) > 0 {
		params["properties"].(map[string]any)["agent"].(map[string]any)["enum"] = participants
	}

	return NewFunctionTool(HandoffToolName, desc, params, func(tc *core.ToolContext, args map[string]any) (any, error) {
		name, _ := args["agent"].(string)
		name = strings.TrimSpace(name)

		if name == "" {
			return nil, NewToolError(HandoffToolName, "field 'agent' must be a non-empty string", CodeBadInput)
		}

		if len(participants) > 0 {
			idx := slices.IndexFunc(participants, func(p string) bool { return strings.EqualFold(p, name) })
			if idx < 0 {
				return nil, NewToolError(HandoffToolName, fmt.Sprintf("unknown participant %q", name), CodeBadInput)
			}
			name = participants[idx]
		}

		if name == tc.AgentName() {
			return nil, NewToolError(HandoffToolName, "cannot hand the floor to yourself", CodeBadInput)
		}

		tc.TransferToAgent(name)

		return map[string]any{"transferred": true, "agent": name}, nil
	})
}

// NewEscalateTool returns a tool that ends the conversation after the
// calling agent's message has been appended.
func NewEscalateTool() Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reason": map[string]any{"type": "string", "description": "Why the conversation is finished"},
		},
	}

	return NewFunctionTool(EscalateToolName, "End the group conversation once the task is complete.", params,
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			tc.Escalate()
			reason, _ := args["reason"].(string)
			return map[string]any{"ended": true, "reason": reason}, nil
		})
}
