package llmcall

import (
	"fmt"
	"testing"
	"time"

	"github.com/shelfscan/shelfscan/internal/providers"
)

func testCall(id, jobID string) *Call {
	return &Call{ID: id, JobID: jobID, Timestamp: time.Now(), PromptKey: "extract"}
}

func TestStoreRecordAndRecent(t *testing.T) {
	s := NewStore(10)
	if s.Len() != 0 {
		t.Errorf("Len() = %d on new store", s.Len())
	}

	for i := 0; i < 3; i++ {
		s.Record(testCall(fmt.Sprintf("c%d", i), "job-1"))
	}

	recent := s.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Recent(2) returned %d calls", len(recent))
	}
	if recent[0].ID != "c2" || recent[1].ID != "c1" {
		t.Errorf("Recent order = %s, %s, want newest first", recent[0].ID, recent[1].ID)
	}

	// n beyond the stored count returns everything.
	if got := len(s.Recent(100)); got != 3 {
		t.Errorf("Recent(100) returned %d calls", got)
	}
	if got := len(s.Recent(0)); got != 3 {
		t.Errorf("Recent(0) returned %d calls", got)
	}
}

func TestStoreEviction(t *testing.T) {
	s := NewStore(3)
	for i := 0; i < 5; i++ {
		s.Record(testCall(fmt.Sprintf("c%d", i), ""))
	}

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want capacity 3", s.Len())
	}
	recent := s.Recent(3)
	if recent[0].ID != "c4" || recent[2].ID != "c2" {
		t.Errorf("survivors = %s..%s, want oldest evicted", recent[2].ID, recent[0].ID)
	}
}

func TestStoreByJob(t *testing.T) {
	s := NewStore(10)
	s.Record(testCall("a", "job-1"))
	s.Record(testCall("b", "job-2"))
	s.Record(testCall("c", "job-1"))

	calls := s.ByJob("job-1")
	if len(calls) != 2 {
		t.Fatalf("ByJob() returned %d calls", len(calls))
	}
	if calls[0].ID != "a" || calls[1].ID != "c" {
		t.Errorf("ByJob order = %s, %s, want oldest first", calls[0].ID, calls[1].ID)
	}
	if got := s.ByJob("missing"); len(got) != 0 {
		t.Errorf("ByJob(missing) = %d calls", len(got))
	}
}

func TestStoreIgnoresNil(t *testing.T) {
	s := NewStore(5)
	s.Record(nil)
	if s.Len() != 0 {
		t.Errorf("Len() = %d after recording nil", s.Len())
	}
}

func TestStoreDefaultCapacity(t *testing.T) {
	s := NewStore(0)
	if s.cap != DefaultStoreCapacity {
		t.Errorf("cap = %d, want %d", s.cap, DefaultStoreCapacity)
	}
}

func TestFromResult(t *testing.T) {
	result := &providers.Result{
		Provider:         "openrouter",
		ModelUsed:        "anthropic/claude-3.5-sonnet",
		PromptTokens:     100,
		CompletionTokens: 20,
		ExecutionTime:    1500 * time.Millisecond,
		Success:          true,
	}

	call := FromResult(result, RecordOptions{JobID: "job-1", PromptKey: "validate"})
	if call == nil {
		t.Fatal("FromResult() = nil")
	}
	if call.ID == "" {
		t.Error("ID not generated")
	}
	if call.JobID != "job-1" || call.PromptKey != "validate" {
		t.Errorf("options not applied: %+v", call)
	}
	if call.Provider != "openrouter" || call.InputTokens != 100 || call.OutputTokens != 20 {
		t.Errorf("result fields not copied: %+v", call)
	}
	if call.LatencyMs != 1500 {
		t.Errorf("LatencyMs = %d", call.LatencyMs)
	}

	if FromResult(nil, RecordOptions{}) != nil {
		t.Error("FromResult(nil) != nil")
	}
}
