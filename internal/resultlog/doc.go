// Package resultlog implements the append-only, crash-safe JSON-lines
// result log, including the "already-processed" set extraction used for
// resume.
package resultlog
