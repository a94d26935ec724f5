// Package logging provides a minimal logging interface and adapters for chatmesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the controller, strategies, agents and tools use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping an existing *slog.Logger
//   - ChatLogger with conversation context and turn/tool/model/verdict helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	ctrl, err := groupchat.New(registry, groupchat.WithLogger(logger))
package logging
