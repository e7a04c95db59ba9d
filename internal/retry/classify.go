// Package retry wraps a remote or database call with classify-and-backoff
// retry logic, unifying what the original source implemented as two
// separate decorators into one parameterised mechanism.
package retry

// Kind identifies the category of a failure for backoff purposes.
type Kind string

const (
	KindRateLimit Kind = "rate_limit"
	KindQuota     Kind = "quota"
	KindServer    Kind = "server"
	KindNetwork   Kind = "network"
	KindPermanent Kind = "permanent"
)

// Classification is the result of inspecting a failed call.
type Classification struct {
	Kind           Kind
	RetryAfterSecs *int
	ShouldRetry    bool
}

// ClassifyHTTP implements the remote-call classification rules: first
// match wins.
//
//  1. 429 with a quota-exhaustion error code -> quota
//  2. 429 otherwise -> rate_limit
//  3. 500/502/503/504 -> server
//  4. (caller should use ClassifyNetworkError for transport failures)
//  5. other 4xx -> permanent, not retried
func ClassifyHTTP(status int, errorCode string, retryAfterSecs *int) Classification {
	switch {
	case status == 429 && isQuotaExhaustedCode(errorCode):
		return Classification{Kind: KindQuota, RetryAfterSecs: retryAfterSecs, ShouldRetry: true}
	case status == 429:
		return Classification{Kind: KindRateLimit, RetryAfterSecs: retryAfterSecs, ShouldRetry: true}
	case status == 500 || status == 502 || status == 503 || status == 504:
		return Classification{Kind: KindServer, RetryAfterSecs: retryAfterSecs, ShouldRetry: true}
	case status >= 400 && status < 500:
		return Classification{Kind: KindPermanent, ShouldRetry: false}
	default:
		return Classification{Kind: KindServer, RetryAfterSecs: retryAfterSecs, ShouldRetry: true}
	}
}

func isQuotaExhaustedCode(code string) bool {
	switch code {
	case "insufficient_quota", "quota_exceeded":
		return true
	default:
		return false
	}
}

// ClassifyNetworkError classifies transport-layer failures: timeouts,
// connection failures, DNS errors. These always retry and never carry a
// retry-after hint.
func ClassifyNetworkError() Classification {
	return Classification{Kind: KindNetwork, ShouldRetry: true}
}
