package pipeline

import (
	"testing"

	"github.com/shelfscan/shelfscan/internal/books"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims and lowercases", "  The Hobbit  ", "the hobbit"},
		{"curly quotes to ascii", "Tolkien’s “Ring”", `tolkien's "ring"`},
		{"em dash to hyphen", "War—Peace", "war-peace"},
		{"terminal punctuation stripped", "The Hobbit.", "the hobbit"},
		{"whitespace collapsed", "the\t\thobbit   there", "the hobbit there"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"  The Hobbit  ",
		"J.R.R. Tolkien, Jr.",
		"VOL. 3 A Storm of Swords",
		"|| 1984 ||",
		"Ursula K. Le Guin and David Mitchell",
	}
	for _, in := range inputs {
		for name, fn := range map[string]func(string) string{
			"Normalize":        Normalize,
			"NormalizeWithOCR": NormalizeWithOCR,
			"NormalizeTitle":   NormalizeTitle,
			"NormalizeAuthor":  NormalizeAuthor,
		} {
			once := fn(in)
			twice := fn(once)
			if once != twice {
				t.Errorf("%s not idempotent on %q: %q != %q", name, in, once, twice)
			}
		}
	}
}

func TestNormalizeWithOCR(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"pipes removed", "The | Hobbit", "the hobbit"},
		{"trailing volume marker", "A Storm of Swords Vol. 3", "a storm of swords"},
		{"leading volume marker", "Vol 2 Dune", "dune"},
		{"word starting with vol kept", "Voltaire", "voltaire"},
		{"word ending in vol kept", "Frivol", "frivol"},
		{"digits only becomes empty", "1234", ""},
		{"digits and punctuation becomes empty", "12.3-4,", ""},
		{"symbols only becomes empty", "|||| -- ~~", ""},
		{"bare digits removed even when year-like", "1984", ""},
		{"title with letters survives", "Catch-22", "catch-22"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeWithOCR(tt.in); got != tt.want {
				t.Errorf("NormalizeWithOCR(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Hobbit", "hobbit"},
		{"A Game of Thrones", "game of thrones"},
		{"An American Tragedy", "american tragedy"},
		{"Their Eyes Were Watching God", "their eyes were watching god"},
		// Only one article is stripped.
		{"The A Team", "a team"},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeAuthor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Martin Luther King, Jr.", "martin luther king"},
		{"Sammy Davis Jr", "sammy davis"},
		{"Neil Gaiman and Terry Pratchett", "neil gaiman & terry pratchett"},
		{"Neil Gaiman & Terry Pratchett", "neil gaiman & terry pratchett"},
		{"J.R.R. Tolkien", "j.r.r. tolkien"},
	}
	for _, tt := range tests {
		if got := NormalizeAuthor(tt.in); got != tt.want {
			t.Errorf("NormalizeAuthor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatAuthorName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Le Guin, Ursula", "Ursula Le Guin"},
		{"TOLKIEN, J.R.R.", "J.R.R. Tolkien"},
		{"george orwell", "George Orwell"},
		{"j.k. rowling", "J.K. Rowling"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FormatAuthorName(tt.in); got != tt.want {
			t.Errorf("FormatAuthorName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalKey(t *testing.T) {
	// Equal keys must mean the same book across formatting variants.
	variants := []*books.Candidate{
		{Title: "The Hobbit", Author: "J.R.R. Tolkien"},
		{Title: "the hobbit", Author: "Tolkien"},
		{Title: "Hobbit.", Author: "J. R. R. TOLKIEN"},
	}
	key := CanonicalKey(variants[0])
	for _, c := range variants[1:] {
		if got := CanonicalKey(c); got != key {
			t.Errorf("CanonicalKey(%q/%q) = %q, want %q", c.Title, c.Author, got, key)
		}
	}

	// Different authors with the same surname share a key on purpose;
	// different titles never do.
	other := &books.Candidate{Title: "The Silmarillion", Author: "J.R.R. Tolkien"}
	if CanonicalKey(other) == key {
		t.Errorf("different titles produced the same key %q", key)
	}

	empty := &books.Candidate{Title: "The Hobbit"}
	if got := CanonicalKey(empty); got != "hobbit::" {
		t.Errorf("CanonicalKey with empty author = %q", got)
	}
}
