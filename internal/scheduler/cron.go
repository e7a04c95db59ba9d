// Package scheduler computes the next local-midnight instant used as the
// auto-resume fallback when a daily quota limit is configured but the
// provider gave no reset hint. It reuses the cron expression parser for
// this single recurring calculation rather than for recurring flow
// schedules.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// midnightExpr fires once per day at 00:00 in whatever location Next is
// evaluated against.
const midnightExpr = "0 0 * * *"

// NextLocalMidnight returns the next local-midnight instant strictly
// after from, in from's own location (the Daily Counter's reset is
// defined in local wallclock, not UTC — see the Quota Monitor's
// documented timezone ambiguity).
func NextLocalMidnight(from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(midnightExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse midnight cron expression: %w", err)
	}
	return schedule.Next(from), nil
}
