package orchestrator

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xdjs/artist-bio-gen/internal/quota"
)

const minTimeBetweenLogs = 5 * time.Second

// ProgressTracker maintains (successful, failed, total) and emits a
// summary line when a 10% boundary is crossed, at least 5s has elapsed
// since the last summary, or every item has been processed.
type ProgressTracker struct {
	mu sync.Mutex

	total           int
	successful      int
	failed          int
	logInterval     int
	lastLoggedCount int
	lastLogTime     time.Time
	startTime       time.Time

	logger       *slog.Logger
	quotaMonitor *quota.Monitor
}

// AttachQuotaMonitor arms the tracker to include the monitor's latest
// usage metrics in each summary line.
func (p *ProgressTracker) AttachQuotaMonitor(m *quota.Monitor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quotaMonitor = m
}

// NewProgressTracker builds a tracker for a run of total items.
func NewProgressTracker(total int, logger *slog.Logger) *ProgressTracker {
	interval := total / 10
	if interval < 1 {
		interval = 1
	}
	now := time.Now()
	return &ProgressTracker{
		total:       total,
		logInterval: interval,
		startTime:   now,
		lastLogTime: now,
		logger:      logger,
	}
}

// Update records one item's outcome, logging a per-item line immediately
// and a summary line when due.
func (p *ProgressTracker) Update(workID uuid.UUID, success bool, duration time.Duration, failureDetail string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if success {
		p.successful++
	} else {
		p.failed++
	}
	processed := p.successful + p.failed

	if p.logger != nil {
		if success {
			p.logger.Info("item processed", "work_id", workID, "duration", duration,
				"progress", fmt.Sprintf("%d/%d", processed, p.total))
		} else {
			p.logger.Warn("item failed", "work_id", workID, "duration", duration,
				"progress", fmt.Sprintf("%d/%d", processed, p.total), "error", failureDetail)
		}
	}

	if p.shouldLogSummaryLocked(processed) {
		p.logSummaryLocked(processed)
	}
}

func (p *ProgressTracker) shouldLogSummaryLocked(processed int) bool {
	if processed == p.total {
		return true
	}
	if processed-p.lastLoggedCount >= p.logInterval {
		return true
	}
	return time.Since(p.lastLogTime) >= minTimeBetweenLogs
}

func (p *ProgressTracker) logSummaryLocked(processed int) {
	elapsed := time.Since(p.startTime)
	var rate float64
	if elapsed.Seconds() > 0 {
		rate = float64(processed) / elapsed.Seconds()
	}
	var eta time.Duration
	if rate > 0 {
		eta = time.Duration(float64(p.total-processed) / rate * float64(time.Second))
	}
	if p.logger != nil {
		args := []any{
			"processed", processed, "total", p.total,
			"successful", p.successful, "failed", p.failed,
			"items_per_sec", rate, "eta", eta,
		}
		if p.quotaMonitor != nil {
			m := p.quotaMonitor.LatestMetrics()
			args = append(args, "quota_requests_used_today", m.RequestsUsedToday, "quota_usage_pct", m.UsagePercentage)
		}
		p.logger.Info("progress summary", args...)
	}
	p.lastLoggedCount = processed
	p.lastLogTime = time.Now()
}

// Totals returns the current (successful, failed) counts.
func (p *ProgressTracker) Totals() (successful, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.successful, p.failed
}

// LogRunStart emits the start-of-batch banner (supplemented from the
// original's BatchProgressReporter.log_start).
func LogRunStart(logger *slog.Logger, promptID string, workerCount, total int, testMode, dbEnabled, quotaEnabled bool) {
	if logger == nil {
		return
	}
	logger.Info("batch run starting",
		"prompt_id", promptID, "workers", workerCount, "total_items", total,
		"test_mode", testMode, "db_enabled", dbEnabled, "quota_monitoring", quotaEnabled)
}

// LogRunSummary emits the end-of-batch banner (supplemented from the
// original's BatchProgressReporter.log_completion).
func LogRunSummary(logger *slog.Logger, successful, failed, total int, elapsed time.Duration) {
	if logger == nil {
		return
	}
	var successRate float64
	if total > 0 {
		successRate = 100 * float64(successful) / float64(total)
	}
	var rate float64
	if elapsed.Seconds() > 0 {
		rate = float64(successful+failed) / elapsed.Seconds()
	}
	logger.Info("batch run completed",
		"successful", successful, "failed", failed, "total", total,
		"success_rate_pct", successRate, "elapsed", elapsed, "items_per_sec", rate)
}
