package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// ErrMaxAttemptsExceeded wraps the last error when Execute gives up:
// every attempt is spent, or the classification says not to retry.
var ErrMaxAttemptsExceeded = errors.New("retry: max attempts exceeded")

// BackoffFunc computes the delay before the next attempt, given the
// zero-based attempt index that just failed.
type BackoffFunc func(attempt int, c Classification, jitter JitterSource) time.Duration

// Config parameterises one Execute call. The single generic Execute
// serves both the remote-call and database-update call sites (Design Note
// in spec §9(d)): each supplies its own Classify and Backoff.
type Config struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// Classify turns a returned error into a Classification.
	Classify func(error) Classification
	// Backoff computes the delay for a retryable failure. Defaults to
	// ComputeBackoff when nil.
	Backoff BackoffFunc
	// Jitter supplies the uniform randomness used by Backoff. Defaults to
	// math/rand/v2 when nil.
	Jitter JitterSource
}

func defaultJitter() float64 {
	return rand.Float64()
}

// Execute runs fn, retrying on classified-retryable errors until
// cfg.MaxAttempts is exhausted, the classification says do-not-retry, or
// ctx is cancelled. Only the error path is retried; a returned value with
// a nil error is never retried and quota accounting is the caller's
// responsibility (the executor itself makes no side-channel calls).
func Execute[T any](ctx context.Context, cfg Config, workerTag string, logger *slog.Logger, fn func() (T, error)) (T, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	jitter := cfg.Jitter
	if jitter == nil {
		jitter = defaultJitter
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = ComputeBackoff
	}

	var lastErr error
	var zero T
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		class := cfg.Classify(err)
		if !class.ShouldRetry || attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := backoff(attempt, class, jitter)
		if logger != nil {
			logger.Warn("retrying after classified failure",
				"worker", workerTag, "attempt", attempt, "kind", class.Kind, "delay", delay)
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
	return zero, fmt.Errorf("%w: %w", ErrMaxAttemptsExceeded, lastErr)
}
