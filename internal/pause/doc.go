// Package pause implements the Pause Controller: a gate blocking new
// submissions, supporting both manual and scheduled (auto) resume.
package pause
