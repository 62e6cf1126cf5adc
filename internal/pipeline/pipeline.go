// Package pipeline turns raw provider extractions from a bookshelf photo
// into a deduplicated, validated list of books. Stages run in a fixed
// order and mutate candidates in place; every stage degrades rather than
// failing the run.
package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shelfscan/shelfscan/internal/books"
	"github.com/shelfscan/shelfscan/internal/providers"
)

// Config carries the pipeline tuning knobs. Zero values fall back to
// defaults.
type Config struct {
	// ProviderTimeout bounds each inference attempt.
	ProviderTimeout time.Duration `mapstructure:"provider_timeout" yaml:"provider_timeout"`
	// MaxAttempts caps transient retries per provider.
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
	// RetryDelay is the base of the linear retry backoff. Zero defers to
	// each provider's advertised base delay.
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`

	// JaccardThreshold is the fuzzy dedupe title similarity cutoff.
	JaccardThreshold float64 `mapstructure:"jaccard_threshold" yaml:"jaccard_threshold"`
	// SpineWindow is the max spine distance for fuzzy merging.
	SpineWindow int `mapstructure:"spine_window" yaml:"spine_window"`

	// ValidationBatchSize is how many entries ride per validation call.
	ValidationBatchSize int `mapstructure:"validation_batch_size" yaml:"validation_batch_size"`
	// LookupTimeout bounds each external catalog lookup.
	LookupTimeout time.Duration `mapstructure:"lookup_timeout" yaml:"lookup_timeout"`
}

// DefaultConfig returns the production pipeline tuning.
func DefaultConfig() Config {
	dd := DefaultDedupeConfig()
	return Config{
		ProviderTimeout:     45 * time.Second,
		MaxAttempts:         3,
		RetryDelay:          time.Second,
		JaccardThreshold:    dd.JaccardThreshold,
		SpineWindow:         dd.SpineWindow,
		ValidationBatchSize: DefaultValidationBatchSize,
		LookupTimeout:       10 * time.Second,
	}
}

func (c Config) dedupeConfig() DedupeConfig {
	dd := DefaultDedupeConfig()
	if c.JaccardThreshold > 0 {
		dd.JaccardThreshold = c.JaccardThreshold
	}
	if c.SpineWindow > 0 {
		dd.SpineWindow = c.SpineWindow
	}
	return dd
}

// ScanRequest is one shelf photo to process.
type ScanRequest struct {
	// Image is the photo payload.
	Image []byte
	// MIMEType describes Image (default "image/jpeg").
	MIMEType string
	// JobID ties recorded inference calls to this run; generated when
	// empty.
	JobID string
}

// Pipeline is the orchestrator. Construct with New, then Run per photo.
// Safe for concurrent Run calls.
type Pipeline struct {
	registry  *providers.Registry
	repairer  providers.Client
	validator providers.Client
	lookup    MetadataLookup
	recorder  CallRecorder
	logger    *slog.Logger
	cfg       Config
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithRepairProvider sets the client used for JSON repair calls. Without
// one, unparseable provider output is dropped.
func WithRepairProvider(c providers.Client) Option {
	return func(p *Pipeline) { p.repairer = c }
}

// WithValidationProvider sets the client used for batch validation.
// Without one, the validation stage is skipped.
func WithValidationProvider(c providers.Client) Option {
	return func(p *Pipeline) { p.validator = c }
}

// WithLookup sets the external catalog used for augmentation. Without
// one, the augmentation stage is skipped.
func WithLookup(l MetadataLookup) Option {
	return func(p *Pipeline) { p.lookup = l }
}

// WithRecorder sets the inference call recorder.
func WithRecorder(r CallRecorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// New creates a pipeline over the provider registry.
func New(registry *providers.Registry, logger *slog.Logger, cfg Config, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		registry: registry,
		logger:   logger,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes one shelf photo end to end and returns the final book
// list with per-provider diagnostics. The only error it returns is
// ErrNoProviders; everything downstream of a successful fan-out degrades
// to a smaller (possibly empty) result.
func (p *Pipeline) Run(ctx context.Context, req ScanRequest) (*books.Result, error) {
	jobID := req.JobID
	if jobID == "" {
		jobID = uuid.New().String()
	}
	start := time.Now()

	inv := NewInvoker(p.registry, p.repairer, p.recorder, p.logger, InvokerConfig{
		Timeout:     p.cfg.ProviderTimeout,
		MaxAttempts: p.cfg.MaxAttempts,
		RetryDelay:  p.cfg.RetryDelay,
	})
	cands, diags, err := inv.InvokeAll(ctx, req.Image, req.MIMEType, jobID)
	if err != nil {
		return nil, err
	}
	p.logger.Info("extraction complete", "job", jobID, "raw_candidates", len(cands))

	for _, c := range cands {
		CorrectSwappedFields(c)
	}
	normalizeCandidates(cands)

	dd := p.cfg.dedupeConfig()
	cands = Dedupe(cands, dd)
	cands = CheapValidate(cands)

	if p.lookup != nil {
		matched := Augment(ctx, cands, p.lookup, p.cfg.LookupTimeout, p.logger)
		p.logger.Debug("augmentation complete", "job", jobID, "matched", matched)
	}

	if p.validator != nil {
		v := NewBatchValidator(p.validator, p.recorder, p.logger, p.cfg.ValidationBatchSize, p.cfg.ProviderTimeout)
		v.Validate(ctx, cands, jobID)
		cands = dropInvalid(cands)
	}

	// Validation can rewrite titles and authors into a previously
	// distinct candidate, so dedupe once more over the final fields.
	cands = Dedupe(cands, dd)
	sortByShelfOrder(cands)

	p.logger.Info("scan complete",
		"job", jobID,
		"books", len(cands),
		"duration", time.Since(start).Round(time.Millisecond))

	return &books.Result{Books: cands, Providers: diags}, nil
}

// normalizeCandidates applies display-safe cleanup to every candidate:
// collapsed whitespace, OCR junk titles blanked, straight quotes.
func normalizeCandidates(cands []*books.Candidate) {
	for _, c := range cands {
		if c.HasTitle() && NormalizeWithOCR(c.Title) == "" {
			c.Title = ""
		} else {
			c.Title = cleanDisplayText(c.Title)
		}
		if c.HasAuthor() && NormalizeWithOCR(c.Author) == "" {
			c.Author = ""
		} else {
			c.Author = cleanDisplayText(c.Author)
		}
		c.SpineText = strings.Join(strings.Fields(c.SpineText), " ")
	}
}

// dropInvalid removes candidates the validator rejected.
func dropInvalid(cands []*books.Candidate) []*books.Candidate {
	out := cands[:0]
	for _, c := range cands {
		if c.Confidence == books.ConfidenceInvalid {
			continue
		}
		out = append(out, c)
	}
	return out
}

// sortByShelfOrder orders candidates by spine index, unindexed last,
// preserving relative order among ties.
func sortByShelfOrder(cands []*books.Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i].SpineIndex, cands[j].SpineIndex
		if a == books.SpineIndexNone {
			return false
		}
		if b == books.SpineIndexNone {
			return true
		}
		return a < b
	})
}
