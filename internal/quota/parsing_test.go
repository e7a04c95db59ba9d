package quota

import (
	"net/http"
	"testing"
	"time"
)

func TestParseRateLimitHeaders_UsesDefaultsWhenAbsent(t *testing.T) {
	snap := ParseRateLimitHeaders(http.Header{}, time.Now())
	if snap.RequestsLimit != defaultRequestsLimit {
		t.Errorf("RequestsLimit = %d, want %d", snap.RequestsLimit, defaultRequestsLimit)
	}
	if snap.TokensLimit != defaultTokensLimit {
		t.Errorf("TokensLimit = %d, want %d", snap.TokensLimit, defaultTokensLimit)
	}
	if snap.ResetRequestsHint != "unknown" {
		t.Errorf("ResetRequestsHint = %q, want unknown", snap.ResetRequestsHint)
	}
}

func TestParseRateLimitHeaders_ParsesPresentValues(t *testing.T) {
	h := http.Header{}
	h.Set("x-ratelimit-remaining-requests", "100")
	h.Set("x-ratelimit-limit-requests", "5000")
	h.Set("x-ratelimit-remaining-tokens", "900000")
	h.Set("x-ratelimit-limit-tokens", "1000000")
	h.Set("x-ratelimit-reset-requests", "30s")
	h.Set("x-ratelimit-reset-tokens", "6m")

	snap := ParseRateLimitHeaders(h, time.Now())
	if snap.RequestsRemaining != 100 || snap.RequestsLimit != 5000 {
		t.Errorf("unexpected request counters: %+v", snap)
	}
	if snap.TokensRemaining != 900000 || snap.TokensLimit != 1000000 {
		t.Errorf("unexpected token counters: %+v", snap)
	}
	if snap.ResetRequestsHint != "30s" || snap.ResetTokensHint != "6m" {
		t.Errorf("unexpected reset hints: %+v", snap)
	}
}

func TestParseResetHint_AcceptedShapes(t *testing.T) {
	tests := []string{"30s", "500ms", "2m", "1h", "12.5", "2026-07-30T00:00:00Z"}
	for _, raw := range tests {
		if got := parseResetHint(raw); got != raw {
			t.Errorf("parseResetHint(%q) = %q, want unchanged", raw, got)
		}
	}
}

func TestParseResetHint_RejectsGarbage(t *testing.T) {
	if got := parseResetHint("not-a-duration"); got != "unknown" {
		t.Errorf("parseResetHint(garbage) = %q, want unknown", got)
	}
	if got := parseResetHint(""); got != "unknown" {
		t.Errorf("parseResetHint(empty) = %q, want unknown", got)
	}
}

func TestCalculateUsageMetrics_DailyLimitTakesPrecedence(t *testing.T) {
	limit := 100
	snap := Snapshot{RequestsRemaining: 4999, RequestsLimit: 5000, TokensRemaining: 3_999_999, TokensLimit: 4_000_000}
	m := CalculateUsageMetrics(snap, 85, &limit)
	if !m.ShouldPause {
		t.Fatalf("expected ShouldPause at 85/100 daily usage")
	}
	if m.UsagePercentage != 85 {
		t.Errorf("UsagePercentage = %v, want 85", m.UsagePercentage)
	}
}

func TestCalculateUsageMetrics_ImmediateWindowTripsWithoutDailyLimit(t *testing.T) {
	snap := Snapshot{RequestsRemaining: 100, RequestsLimit: 5000, TokensRemaining: 3_999_999, TokensLimit: 4_000_000}
	m := CalculateUsageMetrics(snap, 0, nil)
	if !m.ShouldPause {
		t.Fatalf("expected ShouldPause when immediate requests window is at 98%%")
	}
}

func TestCalculateUsageMetrics_ClampsUsagePercentageAt110(t *testing.T) {
	limit := 100
	snap := Snapshot{RequestsRemaining: 4999, RequestsLimit: 5000, TokensRemaining: 3_999_999, TokensLimit: 4_000_000}
	m := CalculateUsageMetrics(snap, 250, &limit)
	if m.UsagePercentage != 110 {
		t.Errorf("UsagePercentage = %v, want clamped to 110", m.UsagePercentage)
	}
	if !m.ShouldPause {
		t.Errorf("expected ShouldPause still true past the daily limit")
	}
}

func TestShouldPauseProcessing_ConfigurableThresholdOverride(t *testing.T) {
	m := Metrics{UsagePercentage: 82, ShouldPause: false}
	pause, reason := ShouldPauseProcessing(m, 0.8)
	if !pause || reason == "" {
		t.Errorf("expected threshold override to trip pause, got pause=%v reason=%q", pause, reason)
	}
}
