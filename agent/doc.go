// Package agent contains the participants of a group conversation and the
// registry that orders them.
//
//  1. Registry: ordered, uniquely named set of participants
//  2. BaseAgent: identity (name, description, known participants)
//  3. ModelAgent: persona + language model, optionally tool-using, driven by
//     the flow pipeline
//  4. HumanAgent: a person typing at a terminal
//
// Every agent implements core.Agent: it receives the reduced view of the
// shared history and returns exactly one message. Agents never write the
// history themselves.
package agent
