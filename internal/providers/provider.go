// Package providers implements vision-capable inference clients behind a
// common interface, plus the rate limiting and config-driven registry that
// manage them.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Client is the interface for vision/text inference requests. A request
// with an image is a vision call; without one it is a plain text call
// (used for JSON repair and batch validation).
type Client interface {
	// Name returns the client identifier (e.g. "openrouter").
	Name() string

	// Invoke sends a single request. Clients do not retry internally;
	// retry policy belongs to the caller.
	Invoke(ctx context.Context, req *Request) (*Result, error)

	// Rate limiting properties.
	RequestsPerMinute() int
	MaxRetries() int
	RetryDelayBase() time.Duration
}

// Request is a single inference request.
type Request struct {
	// System is the system prompt (optional).
	System string
	// Prompt is the user prompt.
	Prompt string

	// Image is an optional image payload sent alongside the prompt.
	Image []byte
	// MIMEType describes Image (default "image/jpeg").
	MIMEType string

	// Model overrides the client default when set.
	Model string

	Temperature float64
	MaxTokens   int

	// RequestID is generated when empty.
	RequestID string
}

// ImageMIMEType returns the request MIME type, defaulting to JPEG.
func (r *Request) ImageMIMEType() string {
	if r.MIMEType == "" {
		return "image/jpeg"
	}
	return r.MIMEType
}

// Result is the response from an inference call.
type Result struct {
	Content string `json:"content"`

	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	ExecutionTime time.Duration `json:"execution_time"`

	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`
	RequestID string `json:"request_id"`

	Success      bool   `json:"success"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// HTTPError is a non-2xx provider response.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Transient reports whether the status is worth a retry.
func (e *HTTPError) Transient() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// IsTransient classifies an invocation error as retryable: network
// failures, timeouts, rate limits, and 5xx responses. Malformed output is
// never transient; that goes to the repair path instead.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Transient()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
