package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xdjs/artist-bio-gen/internal/retry"
)

// TestDBRetryBudget_AllowsThreeRetriesOnTopOfTheFirstTry pins
// dbMaxAttempts to the original's max_retries=3 over range(max_retries+1)
// schedule: 4 total tries (1 first try + 3 retries) for a
// transient error, not 3.
func TestDBRetryBudget_AllowsThreeRetriesOnTopOfTheFirstTry(t *testing.T) {
	if dbMaxAttempts != 4 {
		t.Fatalf("dbMaxAttempts = %d, want 4 (first try + 3 retries)", dbMaxAttempts)
	}

	attempts := 0
	cfg := retry.Config{
		MaxAttempts: dbMaxAttempts,
		Classify:    classifyForRetry,
		Backoff:     func(int, retry.Classification, retry.JitterSource) time.Duration { return 0 },
	}
	transientErr := errors.New("read: connection reset by peer")

	_, err := retry.Execute(context.Background(), cfg, "W01", nil, func() (int64, error) {
		attempts++
		return 0, transientErr
	})
	if err == nil {
		t.Fatalf("expected an error once retries are exhausted")
	}
	if attempts != 4 {
		t.Errorf("attempts = %d, want 4", attempts)
	}
}
