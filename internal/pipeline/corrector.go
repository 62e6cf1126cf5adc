package pipeline

import (
	"regexp"
	"strings"

	"github.com/shelfscan/shelfscan/internal/books"
)

// Field correction for swapped title/author pairs. Vision models sometimes
// emit {"title": "Diana Gabaldon", "author": "Dragonfly in Amber"}; the
// swap fires only when the title looks like a person's name AND the author
// looks like a title, never on a single signal.

// nameShapedRe matches 2-4 capitalized words, allowing initials with
// trailing periods, spaced or run together ("J. R. R. Tolkien", "J.K.").
var nameShapedRe = regexp.MustCompile(`^(?:[A-Z][a-z]+|(?:[A-Z]\.)+)(?:\s+(?:[A-Z][a-z]+|(?:[A-Z]\.)+|[A-Z][a-z]+-[A-Z][a-z]+)){1,3}$`)

const (
	titleShapedMinLen   = 20
	titleShapedMinWords = 5
)

// nameShaped reports whether s matches a person-name pattern. Strings
// leading with an article ("The Great Novel") are never names, even when
// every word is capitalized.
func nameShaped(s string) bool {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, article := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(lower, article) {
			return false
		}
	}
	return nameShapedRe.MatchString(s)
}

// titleShaped reports whether s looks like a book title: starts with an
// article, is long, or has many words.
func titleShaped(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, article := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(lower, article) {
			return true
		}
	}
	if len(s) > titleShapedMinLen {
		return true
	}
	words := strings.Fields(s)
	if len(words) >= titleShapedMinWords {
		return true
	}
	// Interior lowercase connectors ("in", "of", "and") are title casing,
	// never part of a person's name ("Dragonfly in Amber").
	for _, w := range words[1:] {
		if w == strings.ToLower(w) {
			return true
		}
	}
	return false
}

// CorrectSwappedFields swaps title and author when both heuristics agree
// the fields are reversed. Conservative: a single matching signal never
// triggers the swap.
func CorrectSwappedFields(c *books.Candidate) bool {
	if !c.HasTitle() || !c.HasAuthor() {
		return false
	}
	if nameShaped(c.Title) && titleShaped(c.Author) {
		c.Title, c.Author = c.Author, c.Title
		return true
	}
	return false
}
