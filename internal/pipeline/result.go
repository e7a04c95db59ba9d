package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/xdjs/artist-bio-gen/internal/domain"
	"github.com/xdjs/artist-bio-gen/internal/pause"
	"github.com/xdjs/artist-bio-gen/internal/quota"
	"github.com/xdjs/artist-bio-gen/internal/remote"
	"github.com/xdjs/artist-bio-gen/internal/resultlog"
)

// ArtistUpdater is the narrow interface the Database Update stage needs;
// internal/db.ArtistRepo satisfies it.
type ArtistUpdater interface {
	UpdateBio(ctx context.Context, logger *slog.Logger, workerTag string, testMode, skipExisting bool, id uuid.UUID, bio string) (domain.PersistenceStatus, error)
}

// RequestContext carries the state a pipeline stage may observe but must
// not mutate: the worker tag, prompt identity, mode flags, and handles to
// the shared components (including the result log) owned by the Resource
// Context.
type RequestContext struct {
	WorkerTag    string
	PromptID     string
	Version      string
	SkipExisting bool
	TestMode     bool

	QuotaMonitor    *quota.Monitor
	PauseController *pause.Controller
	ResultLog       *resultlog.Log
	Updater         ArtistUpdater // nil disables database persistence

	// Abort, when set, is invoked with the triggering error on a
	// systemic database error, signalling the Resource Context to move
	// the run to ABORTED.
	Abort func(error)

	Logger *slog.Logger
}

// ProcessingResult accumulates one work item's journey through the
// pipeline. Stages mutate it in place; once all stages have run it is
// converted into a domain.ResponseRecord.
type ProcessingResult struct {
	Item domain.WorkItem

	Raw     *remote.Response
	Headers http.Header
	Usage   *quota.UsageStats

	ResponseText        string
	ResponseID          string
	CreatedEpochSeconds int64

	DBStatus domain.PersistenceStatus
	Error    string

	StartedAt  time.Time
	FinishedAt time.Time
}

// NewProcessingResult seeds a result for a successful raw response.
func NewProcessingResult(item domain.WorkItem, raw *remote.Response, startedAt time.Time) *ProcessingResult {
	return &ProcessingResult{
		Item:      item,
		Raw:       raw,
		DBStatus:  domain.PersistenceNone,
		StartedAt: startedAt,
	}
}

// NewFailedResult seeds a result for a work item whose remote call failed
// after all retries.
func NewFailedResult(item domain.WorkItem, startedAt time.Time, err error) *ProcessingResult {
	return &ProcessingResult{
		Item:      item,
		DBStatus:  domain.PersistenceNone,
		Error:     err.Error(),
		StartedAt: startedAt,
	}
}

// Duration returns the elapsed processing time, or zero if not yet
// finished.
func (r *ProcessingResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ToResponseRecord converts the accumulated result into the canonical
// on-disk/streamed shape.
func (r *ProcessingResult) ToResponseRecord() domain.ResponseRecord {
	return domain.ResponseRecord{
		WorkID:              r.Item.ID,
		Name:                r.Item.Name,
		Extra:               r.Item.Extra,
		Text:                r.ResponseText,
		RemoteID:            r.ResponseID,
		CreatedEpochSeconds: r.CreatedEpochSeconds,
		PersistenceStatus:   r.DBStatus,
		ErrorMessage:        r.Error,
	}
}
