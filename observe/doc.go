// Package observe provides observability primitives for outbound provider
// calls: tracing, metrics, and structured logging with credential and
// user-content redaction.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. Consumers wrap their provider calls in the
// Middleware and record resilience events through Metrics.
package observe
