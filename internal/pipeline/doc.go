// Package pipeline implements the Processing Pipeline: an ordered,
// per-stage-isolated transform from a raw remote response into a
// persisted and streamed domain.ResponseRecord.
package pipeline
