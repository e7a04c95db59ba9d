// Package remote defines the narrow contract the core depends on for the
// third-party text-generation service: a callable that accepts a prompt
// reference plus variables and returns generated text, optionally
// exposing rate-limit response headers and a usage block. The wire
// format of the service itself is out of scope (see spec §1).
package remote

import (
	"context"
	"net/http"
)

// Request is one prompt invocation.
type Request struct {
	PromptID  string
	Version   string
	Variables map[string]string
}

// Usage mirrors the optional usage block on a response.
type Usage struct {
	TotalTokens int
}

// Response is the strict, defaulted shape the port defines in place of
// the source's loose attribute access (see Design Notes: dynamic
// response parsing). Missing optional fields are zero values, never
// errors.
type Response struct {
	OutputText        string
	ID                string
	CreatedEpochSecs  int64
	Usage             *Usage
	Headers           http.Header
}

// Client issues one remote call. Implementations wrap timeouts,
// authentication, and transport; retry is the caller's responsibility via
// internal/retry.
type Client interface {
	CreateResponse(ctx context.Context, req Request) (*Response, error)
}
