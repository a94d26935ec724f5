// Package model defines the provider-agnostic abstractions for talking to
// language models from chatmesh agents and judges.
//
// Providers (OpenAI, Azure OpenAI, Anthropic) implement the Model interface in
// sub-packages so higher layers stay decoupled from vendor SDKs. Collect turns
// the channel based Generate call into a single final Response, which is what
// the turn-based group chat needs. MockModel scripts replies for tests.
package model
