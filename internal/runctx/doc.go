// Package runctx implements the Resource Context: a scoped acquisition
// of the result log, quota monitor, pause controller, and database pool,
// with guaranteed reverse-order teardown and the run's top-level state
// machine (INIT -> ACQUIRING -> RUNNING <-> PAUSED -> DRAINING -> DONE |
// ABORTED).
package runctx
