package pipeline

import (
	"strings"

	"github.com/shelfscan/shelfscan/internal/books"
)

// Two-pass deduplication: an exact pass over canonical keys, then a fuzzy
// pass using author compatibility, spine-index proximity, and token-set
// similarity. Output order follows first appearance in the input.

// DedupeConfig carries the fuzzy-match tunables. The defaults are
// empirically chosen; they are knobs, not invariants.
type DedupeConfig struct {
	// JaccardThreshold is the minimum token-set similarity between two
	// normalized titles for a fuzzy merge.
	JaccardThreshold float64
	// SpineWindow is the maximum spine-index distance at which two
	// candidates may fuzzy-merge.
	SpineWindow int
}

// DefaultDedupeConfig returns the production tunables.
func DefaultDedupeConfig() DedupeConfig {
	return DedupeConfig{JaccardThreshold: 0.5, SpineWindow: 2}
}

const fuzzyMinTitleLen = 4 // both normalized titles must exceed 3 chars

// Dedupe removes duplicate candidates. It never increases the count and
// collapses any two candidates with identical normalized title and author
// into exactly one entry.
func Dedupe(cands []*books.Candidate, cfg DedupeConfig) []*books.Candidate {
	return fuzzyPass(exactPass(cands), cfg)
}

// exactPass groups candidates by canonical key, keeping the best of each
// group in its first-seen position.
func exactPass(cands []*books.Candidate) []*books.Candidate {
	order := make([]string, 0, len(cands))
	best := make(map[string]*books.Candidate, len(cands))

	for _, c := range cands {
		key := CanonicalKey(c)
		existing, ok := best[key]
		if !ok {
			order = append(order, key)
			best[key] = c
			continue
		}
		if preferOver(c, existing) {
			c.RejectionReason = ""
			existing.RejectionReason = "duplicate: canonical key " + key
			best[key] = c
		} else {
			c.RejectionReason = "duplicate: canonical key " + key
		}
	}

	out := make([]*books.Candidate, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}

// fuzzyPass accumulates accepted candidates, merging each newcomer into an
// already-accepted near-duplicate when titles and authors are close enough.
func fuzzyPass(cands []*books.Candidate, cfg DedupeConfig) []*books.Candidate {
	accepted := make([]*books.Candidate, 0, len(cands))

	for _, c := range cands {
		merged := false
		for i, a := range accepted {
			if !isFuzzyDuplicate(c, a, cfg) {
				continue
			}
			if preferOver(c, a) {
				a.RejectionReason = "duplicate: fuzzy match against " + c.Title
				accepted[i] = c
			} else {
				c.RejectionReason = "duplicate: fuzzy match against " + a.Title
			}
			merged = true
			break
		}
		if !merged {
			accepted = append(accepted, c)
		}
	}
	return accepted
}

func isFuzzyDuplicate(c, a *books.Candidate, cfg DedupeConfig) bool {
	// Spine proximity gates every fuzzy merge, including exact equality:
	// unrelated copies of the same title elsewhere on the shelf must not
	// collapse. True duplicates share a canonical key and were already
	// merged by the exact pass, which ignores position.
	if spineDistance(c.SpineIndex, a.SpineIndex) > cfg.SpineWindow {
		return false
	}

	ct, at := NormalizeTitle(c.Title), NormalizeTitle(a.Title)
	ca, aa := NormalizeAuthor(c.Author), NormalizeAuthor(a.Author)

	if ct == at && ca == aa {
		return true
	}
	if !authorsCompatible(ca, aa) {
		return false
	}
	if len(ct) < fuzzyMinTitleLen || len(at) < fuzzyMinTitleLen {
		return false
	}
	if strings.Contains(ct, at) || strings.Contains(at, ct) {
		return true
	}
	return jaccard(tokenSet(ct), tokenSet(at)) > cfg.JaccardThreshold
}

// authorsCompatible treats authors as matching when equal, when either is
// absent, or when one contains the other ("tolkien" vs "j.r.r. tolkien").
func authorsCompatible(a, b string) bool {
	if a == "" || b == "" || a == b {
		return true
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// spineDistance returns the positional gap between two candidates.
// A candidate without a spine index is "last" on the shelf: two unindexed
// candidates are adjacent, but an unindexed one is never near an indexed one.
func spineDistance(a, b int) int {
	if a == books.SpineIndexNone && b == books.SpineIndexNone {
		return 0
	}
	if a == books.SpineIndexNone || b == books.SpineIndexNone {
		return int(^uint(0) >> 1) // max int
	}
	if a > b {
		return a - b
	}
	return b - a
}

// preferOver reports whether candidate a should survive a merge with b:
// complete fields beat missing ones, then higher confidence wins.
func preferOver(a, b *books.Candidate) bool {
	if a.Complete() != b.Complete() {
		return a.Complete()
	}
	return a.Confidence.Rank() > b.Confidence.Rank()
}

// tokenSet returns the words of a normalized title longer than 2 chars.
func tokenSet(title string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(title) {
		if len(w) > 2 {
			set[w] = struct{}{}
		}
	}
	return set
}

// jaccard computes intersection-over-union for two token sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
