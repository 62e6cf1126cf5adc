package pipeline

import (
	"testing"

	"github.com/shelfscan/shelfscan/internal/books"
)

func TestCheapValidate(t *testing.T) {
	tests := []struct {
		name   string
		in     *books.Candidate
		keep   bool
	}{
		{
			name: "normal book kept",
			in:   &books.Candidate{Title: "The Hobbit", Author: "J.R.R. Tolkien", SpineText: "The Hobbit Tolkien"},
			keep: true,
		},
		{
			name: "single-word real title kept",
			in:   &books.Candidate{Title: "Fallingwater", SpineText: "Fallingwater"},
			keep: true,
		},
		{
			name: "digits-only title rejected",
			in:   &books.Candidate{Title: "1234", SpineText: "1234"},
			keep: false,
		},
		{
			name: "symbol run rejected",
			in:   &books.Candidate{Title: "||||", SpineText: "|||| unreadable spine"},
			keep: false,
		},
		{
			name: "scattered symbols rejected",
			in:   &books.Candidate{Title: "- _ ~ =", SpineText: "markings"},
			keep: false,
		},
		{
			name: "short spine with no fields rejected",
			in:   &books.Candidate{SpineText: "ab"},
			keep: false,
		},
		{
			name: "generic low-confidence title with no author rejected",
			in:   &books.Candidate{Title: "Book", Confidence: books.ConfidenceLow, SpineText: "worn spine"},
			keep: false,
		},
		{
			name: "generic title with author kept",
			in:   &books.Candidate{Title: "Unknown", Author: "Anonymous", Confidence: books.ConfidenceLow, SpineText: "unknown anonymous"},
			keep: true,
		},
		{
			name: "author-only candidate kept",
			in:   &books.Candidate{Author: "Haruki Murakami", SpineText: "Murakami spine text"},
			keep: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := CheapValidate([]*books.Candidate{tt.in})
			kept := len(out) == 1
			if kept != tt.keep {
				t.Errorf("kept = %v, want %v (reason %q)", kept, tt.keep, tt.in.RejectionReason)
			}
			if !tt.keep && tt.in.RejectionReason == "" {
				t.Error("rejected candidate has no rejection reason")
			}
		})
	}
}

func TestCheapValidateCleansSurvivors(t *testing.T) {
	c := &books.Candidate{
		Title:     "The | Name of the Wind.",
		Author:    "rothfuss, patrick",
		SpineText: "  THE NAME OF   THE WIND  ",
	}
	out := CheapValidate([]*books.Candidate{c})
	if len(out) != 1 {
		t.Fatalf("candidate was rejected: %q", c.RejectionReason)
	}
	if c.Title != "The Name of the Wind" {
		t.Errorf("title = %q", c.Title)
	}
	if c.Author != "Patrick Rothfuss" {
		t.Errorf("author = %q", c.Author)
	}
	if c.SpineText != "THE NAME OF THE WIND" {
		t.Errorf("spine text = %q", c.SpineText)
	}
}
