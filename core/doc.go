// Package core provides the foundational domain types shared by every other
// chatmesh package:
//
//   - Message (immutable conversation record) and MessageActions
//   - Agent, the participant contract driven by the group chat controller
//   - Verdict and RoutingDecision, closed result types returned by strategies
//   - Content / Part, the provider-neutral shape of model requests
//   - ToolContext, the surface tools see while an agent produces its turn
//
// The package holds no orchestration logic; see groupchat for the turn loop.
package core
