package domain

import "github.com/google/uuid"

// ResponseRecord is the canonical outcome of processing one WorkItem,
// produced exactly once per item by the pipeline and streamed to the
// result log. On error, Text and RemoteID are empty and PersistenceStatus
// is PersistenceNone.
type ResponseRecord struct {
	WorkID              uuid.UUID
	Name                string
	Extra               string
	Text                string
	RemoteID            string
	CreatedEpochSeconds int64
	PersistenceStatus   PersistenceStatus
	ErrorMessage        string
}

// Failed reports whether this record represents a terminal failure.
func (r ResponseRecord) Failed() bool {
	return r.ErrorMessage != ""
}
