// Package orchestrator owns the bounded worker pool: it submits work in
// input order behind the Pause Controller gate, consumes completions in
// arrival order, drives the Progress Tracker, and arms auto-resume timers
// when the Quota Monitor reports it should pause.
package orchestrator
