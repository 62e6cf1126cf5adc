package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/shelfscan/shelfscan/internal/books"
)

// MetadataLookup resolves a candidate against an external book catalog.
// *lookup.Client satisfies it.
type MetadataLookup interface {
	Lookup(ctx context.Context, title, author string) (*books.ExternalMatch, error)
}

// ambiguousTitleLen is the title length below which a candidate is
// considered ambiguous regardless of confidence.
const ambiguousTitleLen = 5

// needsAugmentation reports whether a candidate is ambiguous enough to be
// worth an external lookup: shaky confidence, a missing author, a missing
// title, or a title too short to stand on its own.
func needsAugmentation(c *books.Candidate) bool {
	if !c.HasTitle() {
		return lookupKey(c) != ""
	}
	if c.Confidence == books.ConfidenceLow || c.Confidence == books.ConfidenceMedium {
		return true
	}
	if !c.HasAuthor() {
		return true
	}
	return utf8.RuneCountInString(c.Title) < ambiguousTitleLen
}

// lookupKey is the catalog query string: the title, falling back to
// cleaned spine text when no title was extracted.
func lookupKey(c *books.Candidate) string {
	if c.HasTitle() {
		return c.Title
	}
	return NormalizeWithOCR(c.SpineText)
}

// Augment resolves ambiguous candidates against an external catalog,
// concurrently, and attaches advisory matches. It never rewrites
// extracted fields and never fails the run: lookup errors leave the
// candidate untouched. Returns the number of candidates that matched.
func Augment(ctx context.Context, cands []*books.Candidate, lookup MetadataLookup, timeout time.Duration, logger *slog.Logger) int {
	if lookup == nil || len(cands) == 0 {
		return 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var (
		wg      sync.WaitGroup
		matched int
		mu      sync.Mutex
	)
	for _, c := range cands {
		if !needsAugmentation(c) {
			continue
		}
		wg.Add(1)
		go func(c *books.Candidate) {
			defer wg.Done()
			lookupCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			key := lookupKey(c)
			match, err := lookup.Lookup(lookupCtx, key, c.Author)
			if err != nil {
				logger.Debug("catalog lookup failed", "title", key, "error", err)
				return
			}
			if match == nil {
				return
			}
			c.ExternalMatch = match
			mu.Lock()
			matched++
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return matched
}
