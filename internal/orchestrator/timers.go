package orchestrator

import (
	"sync"
	"time"
)

// TimerManager tracks one-shot auto-resume timers in a guarded list and
// cancels all of them on shutdown, so no dangling wake-up can fire after
// the run has torn down (spec Design Notes: timer lifecycle).
type TimerManager struct {
	mu     sync.Mutex
	timers []*time.Timer
}

// NewTimerManager returns an empty TimerManager.
func NewTimerManager() *TimerManager {
	return &TimerManager{}
}

// Schedule arms a one-shot timer calling fn after d and tracks it for
// cancellation.
func (t *TimerManager) Schedule(d time.Duration, fn func()) *time.Timer {
	timer := time.AfterFunc(d, fn)
	t.mu.Lock()
	t.timers = append(t.timers, timer)
	t.mu.Unlock()
	return timer
}

// CancelAll stops every tracked timer.
func (t *TimerManager) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, timer := range t.timers {
		timer.Stop()
	}
	t.timers = nil
}
