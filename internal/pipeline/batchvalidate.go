package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/shelfscan/shelfscan/internal/books"
	"github.com/shelfscan/shelfscan/internal/prompts/validate"
	"github.com/shelfscan/shelfscan/internal/providers"
)

// DefaultValidationBatchSize is how many entries ride in one validation
// call.
const DefaultValidationBatchSize = 20

// BatchValidator runs batched semantic validation over the candidate
// list through a text inference call. Validation is best-effort: a
// failed or unparseable batch leaves its candidates unchanged.
type BatchValidator struct {
	client    providers.Client
	recorder  CallRecorder
	logger    *slog.Logger
	batchSize int
	timeout   time.Duration
}

// NewBatchValidator creates a validator over the given client. A nil
// client disables validation entirely.
func NewBatchValidator(client providers.Client, recorder CallRecorder, logger *slog.Logger, batchSize int, timeout time.Duration) *BatchValidator {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = DefaultValidationBatchSize
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &BatchValidator{
		client:    client,
		recorder:  recorder,
		logger:    logger,
		batchSize: batchSize,
		timeout:   timeout,
	}
}

// validationEntry is one candidate serialized into a validation batch.
// Key is the candidate's canonical key; results are mapped back by it.
type validationEntry struct {
	Key        string `json:"key"`
	Title      string `json:"title"`
	Author     string `json:"author,omitempty"`
	SpineText  string `json:"spine_text,omitempty"`
	Confidence string `json:"confidence"`
	ExternalID string `json:"external_match_id,omitempty"`
}

// validationResult is one entry of the validator's response.
type validationResult struct {
	Key             string   `json:"key"`
	IsValid         bool     `json:"is_valid"`
	FinalTitle      *string  `json:"final_title"`
	FinalAuthor     *string  `json:"final_author"`
	FinalConfidence string   `json:"final_confidence"`
	Fixes           []string `json:"fixes"`
	Notes           string   `json:"notes"`
}

// Validate runs the candidate list through validation in sequential
// batches and applies the results in place. Candidates the validator
// marks invalid get ConfidenceInvalid; nothing is removed here.
func (v *BatchValidator) Validate(ctx context.Context, cands []*books.Candidate, jobID string) {
	if v.client == nil || len(cands) == 0 {
		return
	}
	for start := 0; start < len(cands); start += v.batchSize {
		end := start + v.batchSize
		if end > len(cands) {
			end = len(cands)
		}
		v.validateBatch(ctx, cands[start:end], jobID)
	}
}

func (v *BatchValidator) validateBatch(ctx context.Context, batch []*books.Candidate, jobID string) {
	entries := make([]validationEntry, 0, len(batch))
	byKey := make(map[string]*books.Candidate, len(batch))
	for _, c := range batch {
		key := CanonicalKey(c)
		entries = append(entries, validationEntry{
			Key:        key,
			Title:      c.Title,
			Author:     c.Author,
			SpineText:  c.SpineText,
			Confidence: string(c.Confidence),
			ExternalID: externalID(c),
		})
		if _, dup := byKey[key]; !dup {
			byKey[key] = c
		}
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		v.logger.Warn("validation batch serialization failed", "error", err)
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	result, err := v.client.Invoke(callCtx, &providers.Request{
		System: validate.SystemPrompt(),
		Prompt: validate.UserPrompt(string(payload)),
	})
	if v.recorder != nil {
		v.recorder.Record(callFromResult(result, jobID, validate.UserPromptKey))
	}
	if err != nil {
		v.logger.Warn("validation batch failed", "size", len(batch), "error", err)
		return
	}

	results, ok := parseValidationResults(result.Content)
	if !ok {
		v.logger.Warn("validation output unparseable", "size", len(batch))
		return
	}

	if raw := marshalForSchema(results); raw != nil {
		if err := providers.ValidateStructuredJSON(validate.ResponseSchemaJSON(), raw); err != nil {
			v.logger.Debug("validation output off schema, applying leniently", "error", err)
		}
	}

	for _, r := range results {
		c, ok := byKey[r.Key]
		if !ok {
			continue
		}
		applyValidation(c, r)
	}
}

// parseValidationResults parses the validator response leniently: direct
// parse first, then the first JSON array span.
func parseValidationResults(content string) ([]validationResult, bool) {
	s := strings.TrimSpace(stripCodeFences(content))
	var results []validationResult
	if err := json.Unmarshal([]byte(s), &results); err == nil {
		return results, true
	}
	if span := extractArraySpan(s); span != "" {
		if err := json.Unmarshal([]byte(span), &results); err == nil {
			return results, true
		}
	}
	return nil, false
}

// applyValidation folds one validation result into its candidate.
func applyValidation(c *books.Candidate, r validationResult) {
	if !r.IsValid {
		c.Confidence = books.ConfidenceInvalid
		c.RejectionReason = "rejected by validation"
	} else {
		if r.FinalTitle != nil && strings.TrimSpace(*r.FinalTitle) != "" {
			c.Title = strings.TrimSpace(*r.FinalTitle)
		}
		if r.FinalAuthor != nil {
			c.Author = strings.TrimSpace(*r.FinalAuthor)
		}
		if r.FinalConfidence != "" {
			c.Confidence = books.ParseConfidence(r.FinalConfidence)
		}
	}
	if len(r.Fixes) > 0 || r.Notes != "" {
		c.ValidationNotes = &books.ValidationNotes{
			Fixes: r.Fixes,
			Notes: r.Notes,
		}
	}
}

func externalID(c *books.Candidate) string {
	if c.ExternalMatch == nil {
		return ""
	}
	return c.ExternalMatch.ID
}

func marshalForSchema(results []validationResult) json.RawMessage {
	b, err := json.Marshal(results)
	if err != nil {
		return nil
	}
	return b
}
