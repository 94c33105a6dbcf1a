// Package observability provides structured logging, Prometheus metrics and
// health probes for the evaluator daemon.
//
// Logging is a thin wrapper over stdlib slog with JSON output and
// WithField/WithError chaining; a logger and request ID travel through
// context. Metrics cover authorization checks (outcome and deciding source),
// mask and rule mutations, and storage operations.
package observability
