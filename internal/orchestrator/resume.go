package orchestrator

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/xdjs/artist-bio-gen/internal/quota"
	"github.com/xdjs/artist-bio-gen/internal/scheduler"
)

var durationHintRe = regexp.MustCompile(`^(\d+)(ms|s|m|h)$`)

var durationMultiplier = map[string]time.Duration{
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
}

// EstimateResumeTime implements the §4.6.1 consultation order: the
// requests reset hint, then the tokens reset hint, then (if a daily
// limit is configured) the next local midnight. Returns nil when none of
// these apply, meaning the controller requires a manual resume.
func EstimateResumeTime(snap quota.Snapshot, dailyLimitConfigured bool, now time.Time) (*time.Time, error) {
	if t, ok := parseResetHint(snap.ResetRequestsHint, now); ok {
		return &t, nil
	}
	if t, ok := parseResetHint(snap.ResetTokensHint, now); ok {
		return &t, nil
	}
	if dailyLimitConfigured {
		midnight, err := scheduler.NextLocalMidnight(now)
		if err != nil {
			return nil, fmt.Errorf("estimate resume time: %w", err)
		}
		return &midnight, nil
	}
	return nil, nil
}

func parseResetHint(hint string, now time.Time) (time.Time, bool) {
	if hint == "" || hint == "unknown" {
		return time.Time{}, false
	}
	if m := durationHintRe.FindStringSubmatch(hint); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		return now.Add(time.Duration(n) * durationMultiplier[m[2]]), true
	}
	if seconds, err := strconv.ParseFloat(hint, 64); err == nil {
		return now.Add(time.Duration(seconds * float64(time.Second))), true
	}
	if t, err := time.Parse(time.RFC3339, hint); err == nil {
		return t, true
	}
	return time.Time{}, false
}
