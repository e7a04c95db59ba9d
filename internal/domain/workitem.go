package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// WorkItem is one input record to be processed by the orchestrator.
// Immutable after construction.
type WorkItem struct {
	ID    uuid.UUID
	Name  string
	Extra string
}

// NewWorkItem validates and constructs a WorkItem. id must already be a
// canonical UUID string; name must be non-empty.
func NewWorkItem(id, name, extra string) (WorkItem, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return WorkItem{}, fmt.Errorf("work item id: %w", err)
	}
	if name == "" {
		return WorkItem{}, fmt.Errorf("work item name must not be empty")
	}
	return WorkItem{ID: parsed, Name: name, Extra: extra}, nil
}

// WorkerTag derives the "W01".."WNN" correlation tag for an item by its
// submission index, per the orchestrator's round-robin labelling scheme.
// It is purely cosmetic and never used for routing.
func WorkerTag(index, poolSize int) string {
	if poolSize <= 0 {
		poolSize = 1
	}
	n := index%poolSize + 1
	return fmt.Sprintf("W%02d", n)
}
