// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the orchestrator, session handler and gateway adapters use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - With / WithComponent / WithSession for contextual attributes
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	handler := session.NewHandler(catalog, providers, func(o *session.Options) {
//		o.Logger = logger
//	})
package logging
