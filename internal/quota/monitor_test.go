package quota

import (
	"net/http"
	"testing"
	"time"
)

func TestMonitor_DailyCounterResetsAcrossDayBoundary(t *testing.T) {
	m := NewMonitor(nil, 0.8)
	day1 := time.Date(2026, 7, 30, 10, 0, 0, 0, time.Local)
	m.now = func() time.Time { return day1 }
	// Start the counter's day at day1 rather than at the real current date.
	m.lastResetDay = startOfLocalDay(day1)
	m.UpdateFromResponse(http.Header{}, nil)
	m.UpdateFromResponse(http.Header{}, nil)
	if got := m.RequestsUsedToday(); got != 2 {
		t.Fatalf("RequestsUsedToday = %d, want 2", got)
	}

	day2 := day1.Add(24 * time.Hour)
	m.now = func() time.Time { return day2 }
	m.UpdateFromResponse(http.Header{}, nil)
	if got := m.RequestsUsedToday(); got != 1 {
		t.Errorf("RequestsUsedToday after day rollover = %d, want 1", got)
	}
}

func TestMonitor_DailyCounterDoesNotResetWithinSameDay(t *testing.T) {
	m := NewMonitor(nil, 0.8)
	morning := time.Date(2026, 7, 30, 1, 0, 0, 0, time.Local)
	evening := time.Date(2026, 7, 30, 23, 0, 0, 0, time.Local)

	m.now = func() time.Time { return morning }
	m.UpdateFromResponse(http.Header{}, nil)
	m.now = func() time.Time { return evening }
	m.UpdateFromResponse(http.Header{}, nil)

	if got := m.RequestsUsedToday(); got != 2 {
		t.Errorf("RequestsUsedToday = %d, want 2 (same local day)", got)
	}
}

func TestMonitor_UsageDeductsFromResponseTokenUsage(t *testing.T) {
	m := NewMonitor(nil, 0.8)
	m.now = func() time.Time { return time.Now() }
	h := http.Header{}
	h.Set("x-ratelimit-remaining-tokens", "1000")
	h.Set("x-ratelimit-limit-tokens", "1000")

	metrics := m.UpdateFromResponse(h, &UsageStats{TotalTokens: 200})
	snap := m.LatestSnapshot()
	if snap.TokensRemaining != 800 {
		t.Errorf("TokensRemaining = %d, want 800 after deducting usage", snap.TokensRemaining)
	}
	_ = metrics
}
