package remote

import (
	"errors"
	"fmt"
	"net"

	"github.com/xdjs/artist-bio-gen/internal/retry"
)

// APIError represents a non-2xx HTTP response from the remote service,
// carrying enough detail for retry.ClassifyHTTP.
type APIError struct {
	Status     int
	ErrorCode  string
	RetryAfter *int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote service returned HTTP %d: %s", e.Status, truncate(e.Body, 200))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// ClassifyError maps a remote-call error into a retry Classification,
// implementing the rules in spec §4.1.
func ClassifyError(err error) retry.Classification {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return retry.ClassifyHTTP(apiErr.Status, apiErr.ErrorCode, apiErr.RetryAfter)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return retry.ClassifyNetworkError()
	}
	if errors.Is(err, ErrConnectionFailed) {
		return retry.ClassifyNetworkError()
	}
	// Unrecognised errors are treated as non-retryable to avoid masking
	// programming errors as transient network noise.
	return retry.Classification{Kind: retry.KindPermanent, ShouldRetry: false}
}

// ErrConnectionFailed is a sentinel for lower-level transport failures
// that are not represented as net.Error (e.g. connection refused wrapped
// by the HTTP client).
var ErrConnectionFailed = errors.New("remote: connection failed")
