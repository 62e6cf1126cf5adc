package pipeline

import (
	"regexp"
	"strings"

	"github.com/shelfscan/shelfscan/internal/books"
)

// Cheap rule-based validation. Runs before any inference-based validation
// so obvious junk never costs a model call. Accepted candidates get their
// OCR cleanup and author formatting in the same pass.

var (
	digitsPunctTitleRe = regexp.MustCompile(`^[\d\s[:punct:]]+$`)

	// Repeated-symbol nonsense the vision models emit for unreadable spines.
	nonsenseTitleRes = []*regexp.Regexp{
		regexp.MustCompile(`^[|/\\_\-=~*#]+$`), // symbol runs
		regexp.MustCompile(`^(?:\W\s*){3,}$`),  // scattered symbols
	}

	genericStopwords = map[string]struct{}{
		"the": {}, "a": {}, "an": {}, "book": {}, "books": {},
		"volume": {}, "vol": {}, "novel": {}, "series": {},
		"unknown": {}, "untitled": {},
	}
)

// CheapValidate filters obvious junk and cleans survivors in place.
// Rejected candidates get a RejectionReason and are dropped from the
// returned slice.
func CheapValidate(cands []*books.Candidate) []*books.Candidate {
	accepted := make([]*books.Candidate, 0, len(cands))
	for _, c := range cands {
		if reason := rejectReason(c); reason != "" {
			c.RejectionReason = reason
			continue
		}
		cleanCandidate(c)
		accepted = append(accepted, c)
	}
	return accepted
}

func rejectReason(c *books.Candidate) string {
	if len(strings.TrimSpace(c.SpineText)) < 3 && !c.HasTitle() && !c.HasAuthor() {
		return "spine text too short with no fields"
	}

	title := strings.TrimSpace(c.Title)
	if title == "" {
		return ""
	}

	if digitsPunctTitleRe.MatchString(title) {
		return "title is digits/punctuation only"
	}
	if repeatedRune(title) {
		return "title matches nonsense pattern"
	}
	for _, re := range nonsenseTitleRes {
		if re.MatchString(title) {
			return "title matches nonsense pattern"
		}
	}
	if _, generic := genericStopwords[strings.ToLower(title)]; generic &&
		!c.HasAuthor() && c.Confidence.Rank() <= books.ConfidenceLow.Rank() {
		return "generic single-word title with no author"
	}
	return ""
}

// cleanCandidate applies display-safe OCR cleanup: comparisons elsewhere
// use the lowercasing normalizers, but output fields keep their casing.
func cleanCandidate(c *books.Candidate) {
	c.Title = cleanDisplayText(c.Title)
	c.Author = FormatAuthorName(cleanDisplayText(c.Author))
	c.SpineText = strings.Join(strings.Fields(c.SpineText), " ")
}

// repeatedRune reports whether s is one rune repeated 3+ times ("||||").
func repeatedRune(s string) bool {
	runes := []rune(s)
	if len(runes) < 3 {
		return false
	}
	for _, r := range runes[1:] {
		if r != runes[0] {
			return false
		}
	}
	return true
}

func cleanDisplayText(s string) string {
	s = strings.ReplaceAll(s, "|", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRight(s, " .,;:")
}
