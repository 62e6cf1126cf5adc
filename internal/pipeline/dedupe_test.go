package pipeline

import (
	"testing"

	"github.com/shelfscan/shelfscan/internal/books"
)

func cand(title, author string, spine int, conf books.Confidence) *books.Candidate {
	return &books.Candidate{
		Title:      title,
		Author:     author,
		SpineIndex: spine,
		Confidence: conf,
	}
}

func TestDedupeExactPass(t *testing.T) {
	in := []*books.Candidate{
		cand("The Hobbit", "J.R.R. Tolkien", 0, books.ConfidenceHigh),
		cand("the hobbit", "Tolkien", 7, books.ConfidenceLow),
		cand("Dune", "Frank Herbert", 1, books.ConfidenceHigh),
	}
	out := Dedupe(in, DefaultDedupeConfig())
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2", len(out))
	}
	// The complete high-confidence variant survives in first position.
	if out[0].Author != "J.R.R. Tolkien" {
		t.Errorf("survivor author = %q, want full name variant", out[0].Author)
	}
	if out[1].Title != "Dune" {
		t.Errorf("second survivor = %q, want Dune", out[1].Title)
	}
}

func TestDedupeExactPassIgnoresPosition(t *testing.T) {
	// Canonical key equality merges regardless of spine distance.
	in := []*books.Candidate{
		cand("The Hobbit", "J.R.R. Tolkien", 0, books.ConfidenceHigh),
		cand("The Hobbit", "J.R.R. Tolkien", 30, books.ConfidenceHigh),
	}
	out := Dedupe(in, DefaultDedupeConfig())
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1", len(out))
	}
}

func TestDedupeFuzzySubstring(t *testing.T) {
	in := []*books.Candidate{
		cand("A Storm of Swords: Deluxe Edition", "George R.R. Martin", 3, books.ConfidenceHigh),
		cand("Storm of Swords", "Martin", 4, books.ConfidenceMedium),
	}
	out := Dedupe(in, DefaultDedupeConfig())
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1", len(out))
	}
	if out[0].Author != "George R.R. Martin" {
		t.Errorf("survivor author = %q, want complete variant", out[0].Author)
	}
}

func TestDedupeFuzzyJaccard(t *testing.T) {
	in := []*books.Candidate{
		cand("The Name of the Wind", "Patrick Rothfuss", 2, books.ConfidenceHigh),
		cand("Name of Wind", "Rothfuss", 3, books.ConfidenceLow),
	}
	out := Dedupe(in, DefaultDedupeConfig())
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(out), out)
	}
}

func TestDedupeSpineWindowGuard(t *testing.T) {
	// Near-identical titles far apart on the shelf are different copies
	// and must not fuzzy-merge, even with identical fields but different
	// canonical-key-breaking authors absent.
	in := []*books.Candidate{
		cand("Dune", "", 1, books.ConfidenceHigh),
		cand("Dune", "Frank Herbert", 15, books.ConfidenceHigh),
	}
	out := Dedupe(in, DefaultDedupeConfig())
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2 (spine window must gate fuzzy merges)", len(out))
	}
}

func TestDedupeIncompatibleAuthors(t *testing.T) {
	in := []*books.Candidate{
		cand("The Road", "Cormac McCarthy", 1, books.ConfidenceHigh),
		cand("The Road", "Jack London", 2, books.ConfidenceHigh),
	}
	out := Dedupe(in, DefaultDedupeConfig())
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2 (different authors must not merge)", len(out))
	}
}

func TestDedupeShortTitlesNeverFuzzyMerge(t *testing.T) {
	in := []*books.Candidate{
		cand("It", "Stephen King", 1, books.ConfidenceHigh),
		cand("I t", "Stephen King", 2, books.ConfidenceLow),
	}
	out := Dedupe(in, DefaultDedupeConfig())
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2 (short titles are off-limits to fuzzy matching)", len(out))
	}
}

func TestDedupeUnindexedPair(t *testing.T) {
	// Two unindexed candidates are treated as adjacent; an unindexed one
	// is never near an indexed one.
	in := []*books.Candidate{
		cand("The Left Hand of Darkness", "Ursula Le Guin", books.SpineIndexNone, books.ConfidenceHigh),
		cand("Left Hand of the Darkness", "Ursula", books.SpineIndexNone, books.ConfidenceMedium),
		cand("Left Hand of the Darkness", "Ursula K.", 5, books.ConfidenceLow),
	}
	out := Dedupe(in, DefaultDedupeConfig())
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2: unindexed pair merges, indexed stays", len(out))
	}
}

func TestDedupeNeverIncreasesCount(t *testing.T) {
	in := []*books.Candidate{
		cand("The Hobbit", "Tolkien", 0, books.ConfidenceHigh),
		cand("Dune", "Herbert", 1, books.ConfidenceHigh),
		cand("Dune", "Herbert", 1, books.ConfidenceLow),
		cand("1Q84", "Murakami", 2, books.ConfidenceMedium),
	}
	cfg := DefaultDedupeConfig()
	once := Dedupe(in, cfg)
	if len(once) > len(in) {
		t.Fatalf("dedupe grew the list: %d -> %d", len(in), len(once))
	}
	// Dedupe of a deduped list is a no-op.
	twice := Dedupe(once, cfg)
	if len(twice) != len(once) {
		t.Errorf("second dedupe changed count: %d -> %d", len(once), len(twice))
	}
}
