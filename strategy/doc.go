// Package strategy holds the pluggable policies of a group conversation:
// who speaks next (SelectionStrategy, with Routers that read explicit
// handoff signals) and when the conversation is done (TerminationStrategy).
//
// Strategies are pure with respect to the conversation: they receive a
// reduced copy of the history and return a decision. They never fail; a
// broken judge or an unusable signal degrades to the deterministic default.
package strategy
