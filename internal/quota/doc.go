// Package quota tracks provider rate-limit headers, rolling and daily
// usage counters, and decides when the orchestrator should pause
// submissions.
package quota
