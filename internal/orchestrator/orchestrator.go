package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xdjs/artist-bio-gen/internal/domain"
	"github.com/xdjs/artist-bio-gen/internal/pause"
	"github.com/xdjs/artist-bio-gen/internal/pipeline"
	"github.com/xdjs/artist-bio-gen/internal/quota"
	"github.com/xdjs/artist-bio-gen/internal/remote"
	"github.com/xdjs/artist-bio-gen/internal/resultlog"
	"github.com/xdjs/artist-bio-gen/internal/retry"
	"github.com/xdjs/artist-bio-gen/internal/telemetry"
)

const (
	defaultWorkerCount = 4
	// defaultMaxAttempts allows 5 retries after the first try, matching
	// the remote call's retry budget in the backoff design.
	defaultMaxAttempts = 6
)

// Config parameterises one Orchestrator run.
type Config struct {
	WorkerCount int
	MaxAttempts int

	PromptID     string
	Version      string
	TestMode     bool
	SkipExisting bool

	// DailyLimitConfigured feeds the resume-time estimation fallback
	// (next local midnight) when the provider gives no reset hint.
	DailyLimitConfigured bool

	Client          remote.Client
	Processor       *pipeline.Processor
	QuotaMonitor    *quota.Monitor
	PauseController *pause.Controller
	ResultLog       *resultlog.Log
	Updater         pipeline.ArtistUpdater
	Metrics         *telemetry.Metrics
	Logger          *slog.Logger

	// Abort is invoked when a systemic database error forces the run to
	// ABORTED, in addition to the orchestrator's own internal
	// cancellation.
	Abort func(error)

	// Jitter overrides the retry executor's randomness source; nil uses
	// the production default.
	Jitter retry.JitterSource

	// StateSink, when set, is notified of pause/resume transitions so an
	// owning Resource Context can keep its reported top-level state in
	// sync with the Pause Controller.
	StateSink StateSink
}

// StateSink receives pause/resume transition notifications.
// internal/runctx.Context satisfies this.
type StateSink interface {
	MarkPaused()
	MarkRunning()
}

// Orchestrator owns the bounded worker pool for one run.
type Orchestrator struct {
	cfg    Config
	timers *TimerManager
}

// New constructs an Orchestrator, filling unset Config fields with
// defaults.
func New(cfg Config) *Orchestrator {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkerCount
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Processor == nil {
		cfg.Processor = pipeline.NewProcessor()
	}
	return &Orchestrator{cfg: cfg, timers: NewTimerManager()}
}

// Run dispatches every item in input order behind the Pause Controller
// gate, processes completions as they arrive, and returns the
// (successful, failed) counts. It returns ErrAborted if a systemic
// database error stopped submission, or ctx.Err() if the caller cancelled
// (e.g. SIGINT).
func (o *Orchestrator) Run(ctx context.Context, items []domain.WorkItem) (successful, failed int, err error) {
	total := len(items)
	logger := o.cfg.Logger

	LogRunStart(logger, o.cfg.PromptID, o.cfg.WorkerCount, total, o.cfg.TestMode, o.cfg.Updater != nil, o.cfg.QuotaMonitor != nil)
	start := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var abortOnce sync.Once
	var abortErr error
	abort := func(cause error) {
		abortOnce.Do(func() {
			abortErr = cause
			if o.cfg.Abort != nil {
				o.cfg.Abort(cause)
			}
			if logger != nil {
				logger.Error("aborting run due to systemic error", "error", cause)
			}
			cancel()
		})
	}

	progress := NewProgressTracker(total, logger)
	if o.cfg.QuotaMonitor != nil {
		progress.AttachQuotaMonitor(o.cfg.QuotaMonitor)
	}
	sem := make(chan struct{}, o.cfg.WorkerCount)
	var wg sync.WaitGroup

	submitErr := error(nil)
	for i, item := range items {
		if o.cfg.PauseController != nil {
			if werr := o.cfg.PauseController.WaitIfPaused(runCtx, nil); werr != nil {
				submitErr = werr
				break
			}
		}
		select {
		case sem <- struct{}{}:
		case <-runCtx.Done():
			submitErr = runCtx.Err()
		}
		if submitErr != nil {
			break
		}

		workerTag := domain.WorkerTag(i, o.cfg.WorkerCount)
		wg.Add(1)
		go func(item domain.WorkItem, workerTag string) {
			defer wg.Done()
			defer func() { <-sem }()
			o.processOne(runCtx, item, workerTag, progress, abort)
		}(item, workerTag)
	}

	wg.Wait()
	o.timers.CancelAll()

	successful, failed = progress.Totals()
	LogRunSummary(logger, successful, failed, total, time.Since(start))

	if submitErr != nil {
		if ctx.Err() != nil {
			return successful, failed, ctx.Err()
		}
		if abortErr != nil {
			return successful, failed, ErrAborted
		}
	}
	return successful, failed, nil
}

func (o *Orchestrator) processOne(ctx context.Context, item domain.WorkItem, workerTag string, progress *ProgressTracker, abort func(error)) {
	logger := o.cfg.Logger
	if o.cfg.Metrics != nil {
		o.cfg.Metrics.ActiveWorkers.Inc()
		defer o.cfg.Metrics.ActiveWorkers.Dec()
	}

	if logger != nil {
		itemLogger := telemetry.WithWorkID(telemetry.WithWorkerTag(logger, workerTag), item.ID.String())
		ctx = telemetry.WithLogger(ctx, itemLogger)
	}

	started := time.Now()
	rc := &pipeline.RequestContext{
		WorkerTag:       workerTag,
		PromptID:        o.cfg.PromptID,
		Version:         o.cfg.Version,
		SkipExisting:    o.cfg.SkipExisting,
		TestMode:        o.cfg.TestMode,
		QuotaMonitor:    o.cfg.QuotaMonitor,
		PauseController: o.cfg.PauseController,
		ResultLog:       o.cfg.ResultLog,
		Updater:         o.cfg.Updater,
		Abort:           abort,
		Logger:          logger,
	}

	retryCfg := retry.Config{
		MaxAttempts: o.cfg.MaxAttempts,
		Classify:    remote.ClassifyError,
		Jitter:      o.cfg.Jitter,
	}

	raw, err := retry.Execute(ctx, retryCfg, workerTag, logger, func() (*remote.Response, error) {
		return o.cfg.Client.CreateResponse(ctx, remote.Request{
			PromptID: o.cfg.PromptID,
			Version:  o.cfg.Version,
			Variables: map[string]string{
				"artist_name": item.Name,
				"artist_data": item.Extra,
			},
		})
	})

	var result *pipeline.ProcessingResult
	if err != nil {
		result = pipeline.NewFailedResult(item, started, err)
		o.cfg.Processor.ProcessError(ctx, result, rc)
	} else {
		result = pipeline.NewProcessingResult(item, raw, started)
		o.cfg.Processor.Process(ctx, result, rc)
	}
	result.FinishedAt = time.Now()

	success := result.Error == ""
	progress.Update(item.ID, success, result.Duration(), result.Error)
	if o.cfg.Metrics != nil {
		if success {
			o.cfg.Metrics.ItemsSucceeded.Inc()
		} else {
			o.cfg.Metrics.ItemsFailed.Inc()
		}
		if o.cfg.QuotaMonitor != nil {
			o.cfg.Metrics.QuotaUsagePct.Set(o.cfg.QuotaMonitor.LatestMetrics().UsagePercentage)
		}
	}

	o.checkQuotaPause(started)
}

// checkQuotaPause implements step 4 of the Orchestrator's per-completion
// duties: if the Quota Monitor currently says to pause, arm the gate and
// an auto-resume timer derived from the provider's reset hints (or next
// local midnight, or manual-only).
func (o *Orchestrator) checkQuotaPause(now time.Time) {
	if o.cfg.QuotaMonitor == nil || o.cfg.PauseController == nil {
		return
	}
	shouldPause, reason := o.cfg.QuotaMonitor.ShouldPause()
	if !shouldPause {
		return
	}

	snap := o.cfg.QuotaMonitor.LatestSnapshot()
	resumeAt, err := EstimateResumeTime(snap, o.cfg.DailyLimitConfigured, now)
	if err != nil && o.cfg.Logger != nil {
		o.cfg.Logger.Warn("failed to estimate auto-resume time", "error", err)
	}

	if !o.cfg.PauseController.Pause(reason, resumeAt) {
		// Already paused; a later response may have sharpened the
		// reset-hint estimate, so refine the visible scheduled time
		// for anyone joining WaitIfPaused. The already-armed timer
		// keeps firing at its original schedule.
		if resumeAt != nil {
			o.cfg.PauseController.ScheduleResume(*resumeAt)
		}
		return
	}
	if o.cfg.StateSink != nil {
		o.cfg.StateSink.MarkPaused()
	}
	if o.cfg.Metrics != nil {
		o.cfg.Metrics.PauseEvents.Inc()
	}
	if o.cfg.Logger != nil {
		o.cfg.Logger.Warn("pausing submissions", "tag", "QUOTA_PAUSE", "reason", reason, "resume_at", resumeAt)
	}
	if resumeAt == nil {
		return // manual resume only
	}

	delay := time.Until(*resumeAt)
	if delay < 0 {
		delay = 0
	}
	logger := o.cfg.Logger
	pauseController := o.cfg.PauseController
	sink := o.cfg.StateSink
	o.timers.Schedule(delay, func() {
		pauseController.Resume("auto-resume")
		if sink != nil {
			sink.MarkRunning()
		}
		if logger != nil {
			logger.Info("resuming submissions", "tag", "QUOTA_RESUME")
		}
	})
}
