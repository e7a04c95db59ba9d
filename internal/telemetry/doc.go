// Package telemetry provides structured logging for the orchestrator and
// its supporting components.
//
//   - logging.go — structured logging via slog
//   - metrics.go — Prometheus metrics
//
// Every component uses the same logging shape and exports metrics on
// /metrics.
package telemetry
