package llmcall

import (
	"sync"
)

// DefaultStoreCapacity bounds the in-memory call history.
const DefaultStoreCapacity = 1000

// Store keeps recent calls in a bounded in-memory ring. Persistence is
// out of scope for the pipeline; the store exists for diagnostics.
type Store struct {
	mu    sync.RWMutex
	calls []*Call
	cap   int
}

// NewStore creates a store holding up to capacity calls.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	return &Store{cap: capacity}
}

// Record appends a call, evicting the oldest when full. Nil calls are
// ignored.
func (s *Store) Record(call *Call) {
	if call == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	if len(s.calls) > s.cap {
		s.calls = s.calls[len(s.calls)-s.cap:]
	}
}

// Recent returns up to n most recent calls, newest first.
func (s *Store) Recent(n int) []*Call {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.calls) {
		n = len(s.calls)
	}
	out := make([]*Call, 0, n)
	for i := len(s.calls) - 1; i >= len(s.calls)-n; i-- {
		out = append(out, s.calls[i])
	}
	return out
}

// ByJob returns all calls recorded for a pipeline run, oldest first.
func (s *Store) ByJob(jobID string) []*Call {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Call
	for _, c := range s.calls {
		if c.JobID == jobID {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of stored calls.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.calls)
}
