package pipeline

import (
	"testing"

	"github.com/shelfscan/shelfscan/internal/books"
)

func TestCorrectSwappedFields(t *testing.T) {
	tests := []struct {
		name       string
		title      string
		author     string
		wantSwap   bool
		wantTitle  string
		wantAuthor string
	}{
		{
			name:       "obvious swap",
			title:      "Diana Gabaldon",
			author:     "Dragonfly in Amber",
			wantSwap:   true,
			wantTitle:  "Dragonfly in Amber",
			wantAuthor: "Diana Gabaldon",
		},
		{
			name:       "swap with article title",
			title:      "George Orwell",
			author:     "The Road to Wigan Pier",
			wantSwap:   true,
			wantTitle:  "The Road to Wigan Pier",
			wantAuthor: "George Orwell",
		},
		{
			// The author being fully capitalized must not mask the swap;
			// an article-leading string is a title, not a name.
			name:       "swap with capitalized article author",
			title:      "John Smith",
			author:     "The Great Novel",
			wantSwap:   true,
			wantTitle:  "The Great Novel",
			wantAuthor: "John Smith",
		},
		{
			name:       "correct fields untouched",
			title:      "The Hobbit",
			author:     "J.R.R. Tolkien",
			wantSwap:   false,
			wantTitle:  "The Hobbit",
			wantAuthor: "J.R.R. Tolkien",
		},
		{
			// A name-shaped title alone must not trigger: some books are
			// titled after people.
			name:       "biography title stays",
			title:      "Steve Jobs",
			author:     "Walter Isaacson",
			wantSwap:   false,
			wantTitle:  "Steve Jobs",
			wantAuthor: "Walter Isaacson",
		},
		{
			name:       "missing author never swaps",
			title:      "Diana Gabaldon",
			author:     "",
			wantSwap:   false,
			wantTitle:  "Diana Gabaldon",
			wantAuthor: "",
		},
		{
			name:       "missing title never swaps",
			title:      "",
			author:     "The Long Goodbye",
			wantSwap:   false,
			wantTitle:  "",
			wantAuthor: "The Long Goodbye",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &books.Candidate{Title: tt.title, Author: tt.author}
			got := CorrectSwappedFields(c)
			if got != tt.wantSwap {
				t.Errorf("swap = %v, want %v", got, tt.wantSwap)
			}
			if c.Title != tt.wantTitle || c.Author != tt.wantAuthor {
				t.Errorf("after correction = (%q, %q), want (%q, %q)",
					c.Title, c.Author, tt.wantTitle, tt.wantAuthor)
			}
		})
	}
}

func TestCorrectSwappedFieldsIdempotent(t *testing.T) {
	c := &books.Candidate{Title: "Diana Gabaldon", Author: "Dragonfly in Amber"}
	if !CorrectSwappedFields(c) {
		t.Fatal("expected first pass to swap")
	}
	if CorrectSwappedFields(c) {
		t.Errorf("second pass swapped back: (%q, %q)", c.Title, c.Author)
	}
}

func TestNameShaped(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Diana Gabaldon", true},
		{"J. R. R. Tolkien", true},
		{"J.K. Rowling", true},
		{"Ursula Le Guin", true},
		{"Dragonfly in Amber", false},
		{"The Great Novel", false},
		{"An Unquiet Mind", false},
		{"THE ROAD", false},
		{"war and peace", false},
		{"Gabaldon", false},
	}
	for _, tt := range tests {
		if got := nameShaped(tt.in); got != tt.want {
			t.Errorf("nameShaped(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTitleShaped(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"The Road to Wigan Pier", true},
		{"A Clockwork Orange", true},
		{"Dragonfly in Amber", true},
		{"Something Wicked This Way Comes", true},
		{"Diana Gabaldon", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := titleShaped(tt.in); got != tt.want {
			t.Errorf("titleShaped(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
