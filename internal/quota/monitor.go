package quota

import (
	"net/http"
	"sync"
	"time"
)

// Monitor is the thread-safe Quota Monitor component: it parses response
// metadata, maintains rolling and daily usage counters, and decides when
// the orchestrator should throttle. One mutex covers all mutable fields.
type Monitor struct {
	mu sync.Mutex

	dailyLimitRequests *int
	pauseThreshold     float64

	requestsUsedToday int
	lastResetDay      time.Time // midnight, local time

	latestSnapshot Snapshot
	latestMetrics  Metrics

	now func() time.Time
}

// NewMonitor constructs a Monitor. pauseThreshold defaults to 0.8 when
// non-positive.
func NewMonitor(dailyLimitRequests *int, pauseThreshold float64) *Monitor {
	if pauseThreshold <= 0 {
		pauseThreshold = 0.8
	}
	now := time.Now()
	return &Monitor{
		dailyLimitRequests: dailyLimitRequests,
		pauseThreshold:     pauseThreshold,
		lastResetDay:       startOfLocalDay(now),
		now:                time.Now,
	}
}

func startOfLocalDay(t time.Time) time.Time {
	t = t.Local()
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// UpdateFromResponse feeds one response's headers and optional usage
// block into the monitor and returns the recomputed Metrics.
func (m *Monitor) UpdateFromResponse(headers http.Header, usage *UsageStats) Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	snap := ParseRateLimitHeaders(headers, now)
	if usage != nil && usage.TotalTokens > 0 && usage.TotalTokens <= snap.TokensRemaining {
		snap.TokensRemaining -= usage.TotalTokens
	}

	if startOfLocalDay(now).After(m.lastResetDay) {
		m.requestsUsedToday = 0
		m.lastResetDay = startOfLocalDay(now)
	}
	m.requestsUsedToday++

	metrics := CalculateUsageMetrics(snap, m.requestsUsedToday, m.dailyLimitRequests)
	m.latestSnapshot = snap
	m.latestMetrics = metrics
	return metrics
}

// ShouldPause returns the current cached decision, additionally tripping
// on the configurable pause threshold even if the stricter internal rules
// did not fire.
func (m *Monitor) ShouldPause() (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ShouldPauseProcessing(m.latestMetrics, m.pauseThreshold)
}

// LatestSnapshot returns the most recently parsed Snapshot.
func (m *Monitor) LatestSnapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latestSnapshot
}

// LatestMetrics returns the most recently computed Metrics.
func (m *Monitor) LatestMetrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latestMetrics
}

// RequestsUsedToday returns the current daily counter value.
func (m *Monitor) RequestsUsedToday() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestsUsedToday
}
