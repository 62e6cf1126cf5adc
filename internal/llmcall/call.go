// Package llmcall records inference API calls for traceability. Every
// call is captured with its prompt key, token usage, and outcome.
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/shelfscan/shelfscan/internal/providers"
)

// Call is one recorded inference API call.
type Call struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// JobID ties the call to a pipeline run.
	JobID string `json:"job_id,omitempty"`

	// PromptKey identifies which prompt contract was used.
	PromptKey string `json:"prompt_key"`

	Provider string `json:"provider"`
	Model    string `json:"model"`

	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RecordOptions provides context for recording a call.
type RecordOptions struct {
	JobID     string
	PromptKey string
}

// FromResult creates a Call from a provider result. Returns nil for a nil
// result.
func FromResult(result *providers.Result, opts RecordOptions) *Call {
	if result == nil {
		return nil
	}
	return &Call{
		ID:           uuid.New().String(),
		Timestamp:    time.Now(),
		LatencyMs:    int(result.ExecutionTime.Milliseconds()),
		JobID:        opts.JobID,
		PromptKey:    opts.PromptKey,
		Provider:     result.Provider,
		Model:        result.ModelUsed,
		InputTokens:  result.PromptTokens,
		OutputTokens: result.CompletionTokens,
		Success:      result.Success,
		Error:        result.ErrorMessage,
	}
}
