package quota

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"
)

// Default limits used when the provider omits a rate-limit header
// entirely (documented defaults, not guesses).
const (
	defaultRequestsLimit = 5000
	defaultTokensLimit   = 4_000_000
)

// Snapshot is the parsed state of one response's rate-limit headers.
type Snapshot struct {
	RequestsRemaining int
	RequestsLimit     int
	TokensRemaining   int
	TokensLimit       int
	ResetRequestsHint string
	ResetTokensHint   string
	CapturedAt        time.Time
}

// UsageStats carries the optional usage block from a response body.
type UsageStats struct {
	TotalTokens int
}

var (
	durationHintRe = regexp.MustCompile(`^\d+(ms|s|m|h)$`)
	decimalHintRe  = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// ParseRateLimitHeaders parses the x-ratelimit-* headers into a Snapshot
// (Retry-After is read by internal/remote, not here). Missing or malformed values degrade to safe defaults.
func ParseRateLimitHeaders(headers http.Header, now time.Time) Snapshot {
	return Snapshot{
		RequestsRemaining: parseHeaderInt(headers, "x-ratelimit-remaining-requests", 0),
		RequestsLimit:     parseHeaderInt(headers, "x-ratelimit-limit-requests", defaultRequestsLimit),
		TokensRemaining:   parseHeaderInt(headers, "x-ratelimit-remaining-tokens", defaultTokensLimit),
		TokensLimit:       parseHeaderInt(headers, "x-ratelimit-limit-tokens", defaultTokensLimit),
		ResetRequestsHint: parseResetHint(headers.Get("x-ratelimit-reset-requests")),
		ResetTokensHint:   parseResetHint(headers.Get("x-ratelimit-reset-tokens")),
		CapturedAt:        now,
	}
}

func parseHeaderInt(headers http.Header, name string, fallback int) int {
	v := headers.Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// parseResetHint normalises a raw reset-header value into one of the four
// accepted shapes, or the literal "unknown" when it matches none.
func parseResetHint(raw string) string {
	if raw == "" {
		return "unknown"
	}
	if durationHintRe.MatchString(raw) || decimalHintRe.MatchString(raw) {
		return raw
	}
	if _, err := time.Parse(time.RFC3339, raw); err == nil {
		return raw
	}
	return "unknown"
}

// Metrics is the derived pause decision computed from the latest Snapshot
// and the daily counter.
type Metrics struct {
	RequestsUsedToday int
	DailyLimit        *int
	UsagePercentage   float64 // clamped to [0, 110]
	ShouldPause       bool
	PauseReason       string
}

// CalculateUsageMetrics implements the pause-decision rules from the
// Quota Monitor design: daily percentage (when a daily limit is
// configured) or the immediate per-window percentage otherwise, tripping
// at 80% daily / 95% immediate requests / 95% immediate tokens.
func CalculateUsageMetrics(snap Snapshot, requestsUsedToday int, dailyLimit *int) Metrics {
	m := Metrics{RequestsUsedToday: requestsUsedToday, DailyLimit: dailyLimit}

	immediateRequestsPct := percentage(snap.RequestsLimit-snap.RequestsRemaining, snap.RequestsLimit)
	immediateTokensPct := percentage(snap.TokensLimit-snap.TokensRemaining, snap.TokensLimit)

	if dailyLimit != nil {
		m.UsagePercentage = percentage(requestsUsedToday, *dailyLimit)
	} else {
		m.UsagePercentage = immediateRequestsPct
	}
	if m.UsagePercentage > 110 {
		m.UsagePercentage = 110
	} else if m.UsagePercentage < 0 {
		m.UsagePercentage = 0
	}

	switch {
	case dailyLimit != nil && m.UsagePercentage >= 80:
		m.ShouldPause = true
		m.PauseReason = fmt.Sprintf("daily usage at %.1f%% of limit", m.UsagePercentage)
	case immediateRequestsPct >= 95:
		m.ShouldPause = true
		m.PauseReason = fmt.Sprintf("request window at %.1f%% of limit", immediateRequestsPct)
	case immediateTokensPct >= 95:
		m.ShouldPause = true
		m.PauseReason = fmt.Sprintf("token window at %.1f%% of limit", immediateTokensPct)
	}
	return m
}

// ShouldPauseProcessing re-checks Metrics against an externally
// configurable threshold, tripping even when the stricter internal
// thresholds did not.
func ShouldPauseProcessing(m Metrics, threshold float64) (bool, string) {
	if m.ShouldPause {
		return true, m.PauseReason
	}
	if m.UsagePercentage >= 100*threshold {
		return true, fmt.Sprintf("usage at %.1f%% crossed configured threshold", m.UsagePercentage)
	}
	return false, ""
}

func percentage(used, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	return 100 * float64(used) / float64(limit)
}
