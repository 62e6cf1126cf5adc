package providers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
)

const (
	AnthropicName         = "anthropic"
	anthropicDefaultModel = "claude-sonnet-4-5-20250929"
	anthropicMaxTokens    = 4096
)

// AnthropicConfig holds configuration for the Anthropic client.
type AnthropicConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	RPM          int
	MaxRetries   int
	RetryDelay   time.Duration
}

// AnthropicClient implements Client using the official Anthropic SDK.
type AnthropicClient struct {
	client       anthropic.Client
	defaultModel string

	rpm        int
	maxRetries int
	retryDelay time.Duration
}

// NewAnthropicClient creates a new Anthropic messages client. SDK-internal
// retries are disabled; retry policy lives with the caller.
func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = anthropicDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RPM == 0 {
		cfg.RPM = 60
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicClient{
		client:       anthropic.NewClient(opts...),
		defaultModel: cfg.DefaultModel,
		rpm:          cfg.RPM,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
	}
}

// Name returns the client identifier.
func (c *AnthropicClient) Name() string { return AnthropicName }

// RequestsPerMinute returns the RPM limit for rate limiting.
func (c *AnthropicClient) RequestsPerMinute() int { return c.rpm }

// MaxRetries returns the retry budget advertised to callers.
func (c *AnthropicClient) MaxRetries() int { return c.maxRetries }

// RetryDelayBase returns the base delay between caller retries.
func (c *AnthropicClient) RetryDelayBase() time.Duration { return c.retryDelay }

// Invoke sends a single messages request. Images are attached as base64
// blocks ahead of the prompt text.
func (c *AnthropicClient) Invoke(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = anthropicMaxTokens
	}

	var blocks []anthropic.ContentBlockParamUnion
	if len(req.Image) > 0 {
		blocks = append(blocks, anthropic.NewImageBlockBase64(
			req.ImageMIMEType(), base64.StdEncoding.EncodeToString(req.Image)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	result := &Result{
		RequestID: requestID,
		Provider:  AnthropicName,
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		err = wrapAnthropicError(err)
		result.ErrorType = "http_error"
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, err
	}

	content := ""
	for _, block := range message.Content {
		if block.Type == "text" {
			content = block.Text
			break
		}
	}
	if content == "" {
		result.ErrorType = "empty_response"
		result.ErrorMessage = "no text content in response"
		result.ExecutionTime = time.Since(start)
		return result, fmt.Errorf("no text content in response")
	}

	result.Success = true
	result.Content = content
	result.ModelUsed = string(message.Model)
	result.PromptTokens = int(message.Usage.InputTokens)
	result.CompletionTokens = int(message.Usage.OutputTokens)
	result.TotalTokens = int(message.Usage.InputTokens + message.Usage.OutputTokens)
	result.ExecutionTime = time.Since(start)
	return result, nil
}

// wrapAnthropicError converts SDK errors into HTTPError so transient
// classification works uniformly across clients.
func wrapAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &HTTPError{Provider: AnthropicName, StatusCode: apiErr.StatusCode, Body: apiErr.Error()}
	}
	return err
}

// Verify interface
var _ Client = (*AnthropicClient)(nil)
