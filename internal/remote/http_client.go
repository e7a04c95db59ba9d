package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/xdjs/artist-bio-gen/internal/telemetry"
)

const defaultRemoteTimeout = 60 * time.Second

// HTTPClient is the default Client implementation: it POSTs a prompt
// invocation to the text-generation service and maps the response (or
// error) into the port's strict Response/APIError shapes.
type HTTPClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewHTTPClient constructs an HTTPClient with the default 60s timeout.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{},
		Timeout:    defaultRemoteTimeout,
	}
}

type promptConfig struct {
	ID        string            `json:"id"`
	Version   string            `json:"version,omitempty"`
	Variables map[string]string `json:"variables"`
}

type requestBody struct {
	Prompt promptConfig `json:"prompt"`
}

type responseBody struct {
	OutputText string `json:"output_text"`
	ID         string `json:"id"`
	CreatedAt  int64  `json:"created_at"`
	Usage      *struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateResponse implements Client.
func (c *HTTPClient) CreateResponse(ctx context.Context, req Request) (*Response, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger := telemetry.FromContext(ctx)
	logger.Debug("calling text-generation prompt", "prompt_id", req.PromptID)

	body := requestBody{Prompt: promptConfig{
		ID:        req.PromptID,
		Version:   req.Version,
		Variables: req.Variables,
	}}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/responses", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var parsed responseBody
		code := ""
		if json.Unmarshal(raw, &parsed) == nil && parsed.Error != nil {
			code = parsed.Error.Code
		}
		return nil, &APIError{
			Status:     resp.StatusCode,
			ErrorCode:  code,
			RetryAfter: parseRetryAfterSeconds(resp.Header.Get("Retry-After")),
			Body:       string(raw),
		}
	}

	var parsed responseBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse response body: %w", err)
	}

	out := &Response{
		OutputText:       parsed.OutputText,
		ID:               parsed.ID,
		CreatedEpochSecs: parsed.CreatedAt,
		Headers:          resp.Header,
	}
	if parsed.Usage != nil {
		out.Usage = &Usage{TotalTokens: parsed.Usage.TotalTokens}
	}
	return out, nil
}

func parseRetryAfterSeconds(v string) *int {
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
