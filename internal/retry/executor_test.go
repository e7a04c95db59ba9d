package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noBackoff(int, Classification, JitterSource) time.Duration { return 0 }

func TestExecute_SucceedsWithoutRetry(t *testing.T) {
	calls := 0
	cfg := Config{
		MaxAttempts: 3,
		Classify:    func(error) Classification { return Classification{ShouldRetry: true} },
		Backoff:     noBackoff,
	}
	got, err := Execute(context.Background(), cfg, "W01", nil, func() (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestExecute_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	cfg := Config{
		MaxAttempts: 5,
		Classify:    func(error) Classification { return Classification{Kind: KindServer, ShouldRetry: true} },
		Backoff:     noBackoff,
	}
	got, err := Execute(context.Background(), cfg, "W01", nil, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Errorf("got=%q calls=%d, want ok/3", got, calls)
	}
}

func TestExecute_StopsOnNonRetryableClassification(t *testing.T) {
	calls := 0
	cfg := Config{
		MaxAttempts: 5,
		Classify:    func(error) Classification { return Classification{Kind: KindPermanent, ShouldRetry: false} },
		Backoff:     noBackoff,
	}
	_, err := Execute(context.Background(), cfg, "W01", nil, func() (int, error) {
		calls++
		return 0, errors.New("permanent failure")
	})
	if !errors.Is(err, ErrMaxAttemptsExceeded) {
		t.Fatalf("expected ErrMaxAttemptsExceeded, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry after non-retryable classification)", calls)
	}
}

func TestExecute_ExhaustsMaxAttempts(t *testing.T) {
	calls := 0
	cfg := Config{
		MaxAttempts: 3,
		Classify:    func(error) Classification { return Classification{Kind: KindServer, ShouldRetry: true} },
		Backoff:     noBackoff,
	}
	_, err := Execute(context.Background(), cfg, "W01", nil, func() (int, error) {
		calls++
		return 0, errors.New("always fails")
	})
	if !errors.Is(err, ErrMaxAttemptsExceeded) {
		t.Fatalf("expected ErrMaxAttemptsExceeded, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestExecute_CancelledContextStopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{
		MaxAttempts: 5,
		Classify:    func(error) Classification { return Classification{Kind: KindServer, ShouldRetry: true} },
		Backoff:     func(int, Classification, JitterSource) time.Duration { return 50 * time.Millisecond },
	}
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := Execute(ctx, cfg, "W01", nil, func() (int, error) {
		calls++
		return 0, errors.New("always fails")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls >= 5 {
		t.Errorf("calls = %d, expected cancellation to cut retries short", calls)
	}
}
