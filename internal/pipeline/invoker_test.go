package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shelfscan/shelfscan/internal/llmcall"
	"github.com/shelfscan/shelfscan/internal/providers"
)

func testInvokerConfig() InvokerConfig {
	return InvokerConfig{
		Timeout:     5 * time.Second,
		MaxAttempts: 2,
		RetryDelay:  time.Millisecond,
	}
}

func TestInvokeAllNoProviders(t *testing.T) {
	inv := NewInvoker(providers.NewRegistry(), nil, nil, nil, testInvokerConfig())
	_, _, err := inv.InvokeAll(context.Background(), []byte("img"), "image/jpeg", "job-1")
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("err = %v, want ErrNoProviders", err)
	}
}

func TestInvokeAllMergesProviders(t *testing.T) {
	registry := providers.NewRegistry()
	registry.Register("alpha", providers.NewMockClient(
		`[{"title": "Dune", "author": "Frank Herbert", "confidence": "high", "spine_index": 0}]`,
	))
	registry.Register("beta", providers.NewMockClient(
		`[{"title": "The Hobbit", "author": "Tolkien", "confidence": "medium", "spine_index": 1}]`,
	))

	inv := NewInvoker(registry, nil, nil, nil, testInvokerConfig())
	cands, diags, err := inv.InvokeAll(context.Background(), []byte("img"), "image/jpeg", "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	for _, name := range []string{"alpha", "beta"} {
		d := diags[name]
		if d == nil || !d.Attempted || !d.Succeeded || d.Count != 1 {
			t.Errorf("diagnostics[%s] = %+v", name, d)
		}
	}
}

func TestInvokeAllOneProviderFails(t *testing.T) {
	registry := providers.NewRegistry()
	registry.Register("good", providers.NewMockClient(
		`[{"title": "Dune", "author": "Frank Herbert"}]`,
	))
	failing := providers.NewMockClient()
	failing.ShouldFail = true
	failing.FailWith = errors.New("api key rejected")
	registry.Register("bad", failing)

	inv := NewInvoker(registry, nil, nil, nil, testInvokerConfig())
	cands, diags, err := inv.InvokeAll(context.Background(), []byte("img"), "image/jpeg", "job-1")
	if err != nil {
		t.Fatalf("a failing provider must not fail the run: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1 from the healthy provider", len(cands))
	}
	bad := diags["bad"]
	if bad == nil || !bad.Attempted || bad.Succeeded || bad.Error == "" {
		t.Errorf("diagnostics[bad] = %+v", bad)
	}
}

func TestInvokeAllTransientRetry(t *testing.T) {
	registry := providers.NewRegistry()
	flaky := providers.NewMockClient()
	flaky.ShouldFail = true
	flaky.FailWith = &providers.HTTPError{Provider: "flaky", StatusCode: 429, Body: "slow down"}
	registry.Register("flaky", flaky)

	// Rate-limit errors are transient: the full attempt budget is spent.
	inv := NewInvoker(registry, nil, nil, nil, testInvokerConfig())
	_, diags, err := inv.InvokeAll(context.Background(), []byte("img"), "image/jpeg", "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if flaky.RequestCount() != 2 {
		t.Errorf("request count = %d, want 2 (retry after 429)", flaky.RequestCount())
	}
	if diags["flaky"].Succeeded {
		t.Errorf("diagnostics = %+v, want failure after exhausted retries", diags["flaky"])
	}
	// The 429 drained the provider's token bucket.
	status := registry.Limiter("flaky").Status()
	if status.Last429Time.IsZero() {
		t.Error("limiter never saw the 429")
	}
	if status.TokensAvailable >= status.TokensLimit {
		t.Errorf("limiter status = %+v, want bucket drained", status)
	}
}

func TestInvokeAllUsesClientRetryDelay(t *testing.T) {
	registry := providers.NewRegistry()
	flaky := providers.NewMockClient()
	flaky.ShouldFail = true
	flaky.FailWith = &providers.HTTPError{Provider: "flaky", StatusCode: 503, Body: "busy"}
	registry.Register("flaky", flaky)

	// No configured delay: the backoff base comes from the client, whose
	// mock default is one millisecond.
	cfg := InvokerConfig{Timeout: 5 * time.Second, MaxAttempts: 2}
	inv := NewInvoker(registry, nil, nil, nil, cfg)

	start := time.Now()
	_, _, err := inv.InvokeAll(context.Background(), []byte("img"), "image/jpeg", "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if flaky.RequestCount() != 2 {
		t.Errorf("request count = %d, want 2", flaky.RequestCount())
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("retry took %v, want the client's millisecond backoff", elapsed)
	}
}

func TestInvokeAllNonTransientNoRetry(t *testing.T) {
	registry := providers.NewRegistry()
	failing := providers.NewMockClient()
	failing.ShouldFail = true
	failing.FailWith = &providers.HTTPError{Provider: "bad", StatusCode: 401, Body: "unauthorized"}
	registry.Register("bad", failing)

	inv := NewInvoker(registry, nil, nil, nil, testInvokerConfig())
	_, diags, err := inv.InvokeAll(context.Background(), []byte("img"), "image/jpeg", "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if failing.RequestCount() != 1 {
		t.Errorf("request count = %d, want 1 (auth errors are not retryable)", failing.RequestCount())
	}
	if diags["bad"].Succeeded {
		t.Error("diagnostics report success for a failed provider")
	}
}

func TestInvokeAllRepairPath(t *testing.T) {
	registry := providers.NewRegistry()
	registry.Register("chatty", providers.NewMockClient(
		`The shelf shows two books but I'll describe them in prose instead of the format you asked for.`,
	))
	repairer := providers.NewMockClient(
		`[{"title": "Dune", "author": "Frank Herbert"}, {"title": "The Hobbit", "author": "Tolkien"}]`,
	)

	store := llmcall.NewStore(10)
	inv := NewInvoker(registry, repairer, store, nil, testInvokerConfig())
	cands, diags, err := inv.InvokeAll(context.Background(), []byte("img"), "image/jpeg", "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2 from the repair call", len(cands))
	}
	if !diags["chatty"].Succeeded {
		t.Errorf("diagnostics = %+v", diags["chatty"])
	}
	if repairer.RequestCount() != 1 {
		t.Errorf("repair calls = %d, want 1", repairer.RequestCount())
	}
	// Both the extract call and the repair call are recorded.
	if store.Len() != 2 {
		t.Errorf("recorded calls = %d, want 2", store.Len())
	}
	if got := store.ByJob("job-1"); len(got) != 2 {
		t.Errorf("calls for job = %d, want 2", len(got))
	}
}

func TestInvokeAllRepairStillBroken(t *testing.T) {
	registry := providers.NewRegistry()
	registry.Register("chatty", providers.NewMockClient(`no structured data here at all`))
	repairer := providers.NewMockClient(`still just prose, sorry`)

	inv := NewInvoker(registry, repairer, nil, nil, testInvokerConfig())
	cands, diags, err := inv.InvokeAll(context.Background(), []byte("img"), "image/jpeg", "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 0 {
		t.Fatalf("got %d candidates, want 0", len(cands))
	}
	d := diags["chatty"]
	if d.Succeeded || d.Error == "" {
		t.Errorf("diagnostics = %+v, want parse failure recorded", d)
	}
}
