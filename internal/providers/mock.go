package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is a Client for testing. Responses are served in order; the
// last one repeats once the queue is exhausted.
type MockClient struct {
	// Configurable behavior
	ProviderName string
	Latency      time.Duration
	ShouldFail   bool
	FailWith     error
	FailAfter    int // Fail after N requests (0 = never)
	Responses    []string

	// Rate limiting
	RPM        int
	Retries    int
	RetryDelay time.Duration

	mu           sync.Mutex
	requests     []*Request
	requestCount atomic.Int64
}

// NewMockClient creates a mock client with sensible defaults.
func NewMockClient(responses ...string) *MockClient {
	if len(responses) == 0 {
		responses = []string{"mock response"}
	}
	return &MockClient{
		ProviderName: MockClientName,
		Responses:    responses,
		RPM:          600,
		Retries:      2,
		RetryDelay:   time.Millisecond,
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	if c.ProviderName == "" {
		return MockClientName
	}
	return c.ProviderName
}

// RequestsPerMinute returns the RPM limit for rate limiting.
func (c *MockClient) RequestsPerMinute() int { return c.RPM }

// MaxRetries returns the retry budget advertised to callers.
func (c *MockClient) MaxRetries() int { return c.Retries }

// RetryDelayBase returns the base delay between caller retries.
func (c *MockClient) RetryDelayBase() time.Duration { return c.RetryDelay }

// Invoke serves the next canned response.
func (c *MockClient) Invoke(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	result := &Result{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  c.Name(),
		ModelUsed: req.Model,
	}

	fail := c.ShouldFail || (c.FailAfter > 0 && int(count) > c.FailAfter)
	if fail {
		err := c.FailWith
		if err == nil {
			err = fmt.Errorf("mock client configured to fail")
		}
		result.ErrorType = "mock_failure"
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, err
	}

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			result.ErrorType = "context_cancelled"
			result.ErrorMessage = ctx.Err().Error()
			result.ExecutionTime = time.Since(start)
			return result, ctx.Err()
		}
	}

	idx := int(count) - 1
	if idx >= len(c.Responses) {
		idx = len(c.Responses) - 1
	}

	result.Success = true
	result.Content = c.Responses[idx]
	result.PromptTokens = len(req.Prompt) / 4
	result.CompletionTokens = len(result.Content) / 4
	result.TotalTokens = result.PromptTokens + result.CompletionTokens
	result.ExecutionTime = time.Since(start)
	return result, nil
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int64 { return c.requestCount.Load() }

// Requests returns a snapshot of all received requests.
func (c *MockClient) Requests() []*Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Request, len(c.requests))
	copy(out, c.requests)
	return out
}

// Reset clears the request log and counter.
func (c *MockClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = nil
	c.requestCount.Store(0)
}

// Verify interface
var _ Client = (*MockClient)(nil)
