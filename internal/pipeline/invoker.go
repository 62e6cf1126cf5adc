package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/shelfscan/shelfscan/internal/books"
	"github.com/shelfscan/shelfscan/internal/llmcall"
	"github.com/shelfscan/shelfscan/internal/prompts/extract"
	"github.com/shelfscan/shelfscan/internal/prompts/repair"
	"github.com/shelfscan/shelfscan/internal/providers"
)

// ErrNoProviders is the only fatal pipeline error: nothing is configured
// to extract books. It is distinct from providers running and finding
// zero books, which is a successful empty result.
var ErrNoProviders = errors.New("no inference provider configured")

// CallRecorder receives a record of every inference call. *llmcall.Store
// satisfies it; a nil recorder disables recording.
type CallRecorder interface {
	Record(*llmcall.Call)
}

// InvokerConfig carries the per-provider invocation policy.
type InvokerConfig struct {
	// Timeout bounds each provider attempt.
	Timeout time.Duration
	// MaxAttempts caps attempts per provider for transient failures.
	MaxAttempts int
	// RetryDelay is the base of the linearly increasing backoff. Zero
	// defers to each client's advertised RetryDelayBase.
	RetryDelay time.Duration
}

// DefaultInvokerConfig returns the production invocation policy.
func DefaultInvokerConfig() InvokerConfig {
	return InvokerConfig{
		Timeout:     45 * time.Second,
		MaxAttempts: 3,
		RetryDelay:  time.Second,
	}
}

// Invoker fans one image out to every registered provider concurrently
// and joins the results, tolerating individual failures.
type Invoker struct {
	registry *providers.Registry
	repairer providers.Client // optional; nil disables the repair fallback
	recorder CallRecorder
	logger   *slog.Logger
	cfg      InvokerConfig
}

// NewInvoker creates an invoker over the given registry. repairer may be
// nil to disable the repair fallback; recorder may be nil.
func NewInvoker(registry *providers.Registry, repairer providers.Client, recorder CallRecorder, logger *slog.Logger, cfg InvokerConfig) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultInvokerConfig().Timeout
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultInvokerConfig().MaxAttempts
	}
	return &Invoker{
		registry: registry,
		repairer: repairer,
		recorder: recorder,
		logger:   logger,
		cfg:      cfg,
	}
}

// providerOutcome is one provider's settled contribution.
type providerOutcome struct {
	provider   string
	candidates []*books.Candidate
	diag       *books.Diagnostics
}

// InvokeAll calls every registered provider concurrently and returns the
// merged candidate list plus per-provider diagnostics. It returns once
// all providers have settled; a failing provider contributes an empty
// list, never an error.
func (inv *Invoker) InvokeAll(ctx context.Context, image []byte, mimeType, jobID string) ([]*books.Candidate, map[string]*books.Diagnostics, error) {
	names := inv.registry.List()
	if len(names) == 0 {
		return nil, nil, ErrNoProviders
	}
	sort.Strings(names)

	outcomes := make([]providerOutcome, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			outcomes[i] = inv.invokeOne(ctx, name, image, mimeType, jobID)
		}(i, name)
	}
	wg.Wait()

	var merged []*books.Candidate
	diags := make(map[string]*books.Diagnostics, len(names))
	for _, o := range outcomes {
		merged = append(merged, o.candidates...)
		diags[o.provider] = o.diag
	}
	return merged, diags, nil
}

// invokeOne runs one provider's extraction: rate limit, call with
// transient-only retry, then the parse fallback chain ending in the
// repair provider. Every failure degrades to an empty contribution.
func (inv *Invoker) invokeOne(ctx context.Context, name string, image []byte, mimeType, jobID string) providerOutcome {
	out := providerOutcome{
		provider: name,
		diag:     &books.Diagnostics{Attempted: true},
	}

	client, err := inv.registry.Get(name)
	if err != nil {
		out.diag.Error = err.Error()
		return out
	}

	limiter := inv.registry.Limiter(name)
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			out.diag.Error = err.Error()
			return out
		}
	}

	result, err := inv.callWithRetry(ctx, client, limiter, &providers.Request{
		System:   extract.SystemPrompt(),
		Prompt:   extract.UserPrompt(),
		Image:    image,
		MIMEType: mimeType,
	})
	inv.record(result, jobID, extract.UserPromptKey)
	if err != nil {
		inv.logger.Warn("provider extraction failed", "provider", name, "error", err)
		out.diag.Error = err.Error()
		return out
	}

	candidates, parseErr := inv.parseWithRepair(ctx, result.Content, name, jobID)
	if parseErr != nil {
		inv.logger.Warn("provider output unparseable", "provider", name, "error", parseErr)
		out.diag.Error = parseErr.Error()
		return out
	}

	out.candidates = candidates
	out.diag.Succeeded = true
	out.diag.Count = len(candidates)
	return out
}

// callWithRetry invokes a client with the pipeline retry policy: a small
// fixed attempt budget, linearly increasing backoff, transient failures
// only. Each attempt carries its own timeout, and rate-limit responses
// drain the client's limiter so unrelated calls back off too.
func (inv *Invoker) callWithRetry(ctx context.Context, client providers.Client, limiter *providers.RateLimiter, req *providers.Request) (*providers.Result, error) {
	attempts := inv.cfg.MaxAttempts
	if clientMax := client.MaxRetries() + 1; clientMax < attempts {
		attempts = clientMax
	}
	delay := inv.cfg.RetryDelay
	if delay <= 0 {
		delay = client.RetryDelayBase()
	}
	if delay <= 0 {
		delay = DefaultInvokerConfig().RetryDelay
	}

	var result *providers.Result
	err := retry.Do(
		func() error {
			callCtx, cancel := context.WithTimeout(ctx, inv.cfg.Timeout)
			defer cancel()
			var callErr error
			result, callErr = client.Invoke(callCtx, req)
			if limiter != nil && isRateLimited(callErr) {
				limiter.Record429()
			}
			return callErr
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.RetryIf(providers.IsTransient),
		retry.DelayType(func(n uint, _ error, config *retry.Config) time.Duration {
			return time.Duration(n+1) * delay
		}),
		retry.LastErrorOnly(true),
	)
	return result, err
}

// isRateLimited reports whether a call failed with a 429 response.
func isRateLimited(err error) bool {
	var httpErr *providers.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == 429
}

// parseWithRepair runs the local extraction chain, then spends one repair
// inference call when the text needs it.
func (inv *Invoker) parseWithRepair(ctx context.Context, content, provider, jobID string) ([]*books.Candidate, error) {
	outcome := ExtractCandidates(content, provider)
	switch outcome.State {
	case ParseParsed:
		return outcome.Candidates, nil
	case ParseFailed:
		return nil, errors.New("empty provider response")
	}

	if inv.repairer == nil {
		return nil, errors.New("unparseable provider response and no repair provider")
	}

	schema, _ := json.Marshal(extract.ResponseSchema)
	callCtx, cancel := context.WithTimeout(ctx, inv.cfg.Timeout)
	defer cancel()

	result, err := inv.repairer.Invoke(callCtx, &providers.Request{
		System: repair.SystemPrompt(),
		Prompt: repair.UserPrompt(outcome.Raw, string(schema)),
	})
	inv.record(result, jobID, repair.UserPromptKey)
	if err != nil {
		return nil, errors.New("repair call failed: " + err.Error())
	}

	repaired := ExtractCandidates(result.Content, provider)
	if repaired.State != ParseParsed {
		return nil, errors.New("repair output still unparseable")
	}
	return repaired.Candidates, nil
}

func (inv *Invoker) record(result *providers.Result, jobID, promptKey string) {
	if inv.recorder == nil {
		return
	}
	inv.recorder.Record(callFromResult(result, jobID, promptKey))
}

// callFromResult builds a call record for the store. Nil results (call
// never produced a response) record nothing.
func callFromResult(result *providers.Result, jobID, promptKey string) *llmcall.Call {
	return llmcall.FromResult(result, llmcall.RecordOptions{
		JobID:     jobID,
		PromptKey: promptKey,
	})
}
