package pipeline

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/shelfscan/shelfscan/internal/books"
)

// Text normalization for titles and author names. All functions here are
// pure and idempotent: applying one twice yields the same string as once.

var (
	curlyReplacer = strings.NewReplacer(
		"‘", "'", "’", "'", "‚", "'", "‛", "'",
		"“", `"`, "”", `"`, "„", `"`,
		"–", "-", "—", "-", "―", "-",
		"…", "...",
	)

	leadingArticleRe  = regexp.MustCompile(`^(the|a|an)\s+`)
	authorSuffixRe    = regexp.MustCompile(`[,\s]+(jr|sr|ii|iii|iv)\.?$`)
	conjunctionRe     = regexp.MustCompile(`\s+(?:and|&)\s+`)
	volumeMarkerRe    = regexp.MustCompile(`(?:^vol\.?\s*\d*\b\s*)|(?:\s*\bvol\.?\s*\d*$)`)
	digitsOnlyRe      = regexp.MustCompile(`^[\d\s.,\-]+$`)
	symbolsOnlyRe     = regexp.MustCompile(`^[^a-z0-9]+$`)
	initialsTokenRe   = regexp.MustCompile(`^(?:[a-zA-Z]\.)+$`)
	terminalPunctuation = ".,;:!?"
)

// Normalize canonicalizes a string: trim, lowercase, unify curly quotes
// and dashes to ASCII, strip terminal punctuation, collapse whitespace.
func Normalize(s string) string {
	s = norm.NFKC.String(strings.TrimSpace(s))
	s = curlyReplacer.Replace(s)
	s = strings.ToLower(s)
	s = strings.TrimRight(s, terminalPunctuation)
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeWithOCR applies Normalize plus cleanup of common OCR spine
// artifacts: pipe characters, leading/trailing volume markers, and strings
// that are nothing but digits or symbols (which normalize to empty).
func NormalizeWithOCR(s string) string {
	s = Normalize(strings.ReplaceAll(s, "|", " "))
	s = strings.TrimSpace(volumeMarkerRe.ReplaceAllString(s, ""))
	if s == "" {
		return ""
	}
	if digitsOnlyRe.MatchString(s) || symbolsOnlyRe.MatchString(s) {
		return ""
	}
	return s
}

// NormalizeTitle applies Normalize and strips a single leading article.
func NormalizeTitle(s string) string {
	return strings.TrimSpace(leadingArticleRe.ReplaceAllString(Normalize(s), ""))
}

// NormalizeAuthor applies Normalize, strips trailing generational suffixes
// (Jr/Sr/II-IV), and rewrites "and"/"&" between names to a uniform "&" so
// "A and B" and "A & B" normalize identically.
func NormalizeAuthor(s string) string {
	s = Normalize(s)
	s = strings.TrimSpace(authorSuffixRe.ReplaceAllString(s, ""))
	return conjunctionRe.ReplaceAllString(s, " & ")
}

// FormatAuthorName converts "Last, First" to "First Last" and title-cases
// each word, upper-casing initials ("j.k." -> "J.K."). Returns "" for
// empty input.
func FormatAuthorName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if idx := strings.Index(s, ","); idx >= 0 {
		last := strings.TrimSpace(s[:idx])
		first := strings.TrimSpace(s[idx+1:])
		s = strings.TrimSpace(first + " " + last)
	}

	words := strings.Fields(s)
	for i, w := range words {
		words[i] = formatNameWord(w)
	}
	return strings.Join(words, " ")
}

func formatNameWord(w string) string {
	if len(w) == 1 || initialsTokenRe.MatchString(w) {
		return strings.ToUpper(w)
	}
	runes := []rune(strings.ToLower(w))
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes)
}

// CanonicalKey derives the exact-dedup key for a candidate: the normalized
// title joined with the last token of the normalized author. Candidates
// with equal keys are the same book by definition.
func CanonicalKey(c *books.Candidate) string {
	return NormalizeTitle(c.Title) + "::" + lastAuthorToken(c.Author)
}

func lastAuthorToken(author string) string {
	fields := strings.Fields(NormalizeAuthor(author))
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
