package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xdjs/artist-bio-gen/internal/db"
	"github.com/xdjs/artist-bio-gen/internal/domain"
	"github.com/xdjs/artist-bio-gen/internal/quota"
)

// Stage is a pure-ish transform over a ProcessingResult; stages run in a
// fixed order and are isolated from one another's failures (spec Design
// Notes: pipeline over inheritance — a list of small values implementing
// one method, not a class hierarchy).
type Stage interface {
	Name() string
	Process(ctx context.Context, result *ProcessingResult, rc *RequestContext) error
}

// DefaultStages returns the six stages in their required order.
func DefaultStages() []Stage {
	return []Stage{
		headerExtractionStage{},
		responseParsingStage{},
		quotaUpdateStage{},
		databaseUpdateStage{},
		transactionLoggingStage{},
		outputStreamingStage{},
	}
}

// Processor runs an ordered stage list over one ProcessingResult,
// isolating each stage's failure into result.Error without stopping the
// remaining stages (spec §4.4, Design Note (b)).
type Processor struct {
	Stages []Stage
}

// NewProcessor builds a Processor over the default stage list.
func NewProcessor() *Processor {
	return &Processor{Stages: DefaultStages()}
}

// Process runs every stage, regardless of earlier failures; each stage is
// individually responsible for behaving safely once result.Error is set.
func (p *Processor) Process(ctx context.Context, result *ProcessingResult, rc *RequestContext) {
	for _, stage := range p.Stages {
		if err := stage.Process(ctx, result, rc); err != nil && result.Error == "" {
			result.Error = fmt.Sprintf("%s failed: %v", stage.Name(), err)
		}
	}
}

// ProcessError runs only the stages relevant to a total remote-call
// failure: transaction logging and output streaming, matching the
// source's process_error path for calls that never produced a response.
func (p *Processor) ProcessError(ctx context.Context, result *ProcessingResult, rc *RequestContext) {
	for _, stage := range p.Stages {
		switch stage.(type) {
		case transactionLoggingStage, outputStreamingStage:
			_ = stage.Process(ctx, result, rc)
		}
	}
}

// --- 1. Header Extraction ---------------------------------------------

type headerExtractionStage struct{}

func (headerExtractionStage) Name() string { return "header_extraction" }

func (headerExtractionStage) Process(_ context.Context, result *ProcessingResult, _ *RequestContext) error {
	if result.Raw == nil {
		return nil
	}
	result.Headers = result.Raw.Headers
	result.Usage = nil
	if result.Raw.Usage != nil {
		result.Usage = &quota.UsageStats{TotalTokens: result.Raw.Usage.TotalTokens}
	}
	return nil
}

// --- 2. Response Parsing ----------------------------------------------

type responseParsingStage struct{}

func (responseParsingStage) Name() string { return "response_parsing" }

func (responseParsingStage) Process(_ context.Context, result *ProcessingResult, rc *RequestContext) error {
	if result.Raw == nil {
		return nil
	}
	cleaned := StripTrailingCitations(result.Raw.OutputText)
	if cleaned != result.Raw.OutputText && rc.Logger != nil {
		rc.Logger.Info("stripped trailing citations", "worker", rc.WorkerTag, "work_id", result.Item.ID)
	}
	result.ResponseText = cleaned
	result.ResponseID = result.Raw.ID
	result.CreatedEpochSeconds = result.Raw.CreatedEpochSecs
	return nil
}

// --- 3. Quota Update -----------------------------------------------------

type quotaUpdateStage struct{}

func (quotaUpdateStage) Name() string { return "quota_update" }

func (quotaUpdateStage) Process(_ context.Context, result *ProcessingResult, rc *RequestContext) error {
	if rc.QuotaMonitor == nil || result.Headers == nil {
		return nil
	}
	metrics := rc.QuotaMonitor.UpdateFromResponse(result.Headers, result.Usage)
	if rc.Logger != nil {
		tag, level := quotaLogTag(metrics.UsagePercentage)
		rc.Logger.Log(context.Background(), level, "quota metrics", "tag", tag,
			"worker", rc.WorkerTag, "usage_percentage", metrics.UsagePercentage, "should_pause", metrics.ShouldPause)
	}
	return nil
}

// quotaLogTag buckets usage_percentage into the structured log tags/
// levels described in the external interfaces section.
func quotaLogTag(pct float64) (string, slog.Level) {
	switch {
	case pct >= 95:
		return "QUOTA_EMERGENCY", slog.LevelError
	case pct >= 80:
		return "QUOTA_CRITICAL", slog.LevelWarn
	case pct >= 60:
		return "QUOTA_WARNING", slog.LevelWarn
	default:
		return "QUOTA_METRICS", slog.LevelInfo
	}
}

// --- 4. Database Update --------------------------------------------------

type databaseUpdateStage struct{}

func (databaseUpdateStage) Name() string { return "database_update" }

func (databaseUpdateStage) Process(ctx context.Context, result *ProcessingResult, rc *RequestContext) error {
	if result.Error != "" {
		result.DBStatus = domain.PersistenceNone
		return nil
	}
	if rc.Updater == nil {
		result.DBStatus = domain.PersistenceNone
		return nil
	}
	status, err := rc.Updater.UpdateBio(ctx, rc.Logger, rc.WorkerTag, rc.TestMode, rc.SkipExisting, result.Item.ID, result.ResponseText)
	result.DBStatus = status
	if err != nil {
		if errors.Is(err, db.ErrSystemicDatabase) && rc.Abort != nil {
			rc.Abort(err)
			return nil
		}
		// A non-systemic database failure does not fail the item: the
		// remote text was already obtained, so this counts as remote
		// success with db_status=error (see failure semantics).
		if rc.Logger != nil {
			rc.Logger.Warn("database update failed, item remains a remote success", "worker", rc.WorkerTag, "work_id", result.Item.ID, "error", err)
		}
	}
	return nil
}

// --- 5. Transaction Logging -----------------------------------------------

type transactionLoggingStage struct{}

func (transactionLoggingStage) Name() string { return "transaction_logging" }

func (transactionLoggingStage) Process(_ context.Context, result *ProcessingResult, rc *RequestContext) error {
	if result.FinishedAt.IsZero() {
		result.FinishedAt = time.Now()
	}
	if rc.Updater == nil || rc.Logger == nil {
		return nil
	}
	if result.Error == "" && result.DBStatus != domain.PersistenceError {
		rc.Logger.Info("db update committed", "tag", "TRANSACTION", "worker", rc.WorkerTag,
			"work_id", result.Item.ID, "status", result.DBStatus, "duration", result.Duration())
	} else {
		rc.Logger.Warn("db update failed", "tag", "TRANSACTION_FAILURE", "worker", rc.WorkerTag,
			"work_id", result.Item.ID, "status", result.DBStatus, "error", result.Error)
	}
	return nil
}

// --- 6. Output Streaming --------------------------------------------------

type outputStreamingStage struct{}

func (outputStreamingStage) Name() string { return "output_streaming" }

func (outputStreamingStage) Process(_ context.Context, result *ProcessingResult, rc *RequestContext) error {
	if rc.ResultLog == nil {
		return nil
	}
	if err := rc.ResultLog.Append(result.ToResponseRecord()); err != nil {
		if rc.Logger != nil {
			rc.Logger.Error("failed to append result log entry", "worker", rc.WorkerTag, "work_id", result.Item.ID, "error", err)
		}
	}
	return nil
}
