package pipeline

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/shelfscan/shelfscan/internal/books"
)

// Parsing of provider response text into candidates. Vision models return
// anything from clean JSON arrays to fenced, truncated, or chatty output,
// so extraction walks a strict fallback chain and reports its outcome as a
// tagged state instead of nested error handling:
//
//	whole-string JSON -> first [...] span -> complete-object salvage -> NeedsRepair
//
// NeedsRepair hands the raw text to the invoker, which may spend a repair
// inference call and re-run the chain on its output.

// ParseState tags the result of an extraction attempt.
type ParseState int

const (
	// ParseParsed means candidates were extracted locally.
	ParseParsed ParseState = iota
	// ParseNeedsRepair means local extraction failed but the raw text may
	// be salvageable by a repair inference call.
	ParseNeedsRepair
	// ParseFailed means nothing could be extracted.
	ParseFailed
)

// ParseOutcome is the result of running the extraction chain.
type ParseOutcome struct {
	State      ParseState
	Candidates []*books.Candidate
	// Raw holds the original response text when State is ParseNeedsRepair.
	Raw string
}

// rawBookItem mirrors the prompt contract's array element. Fields are
// decoded leniently: providers drift on types, especially spine_index.
type rawBookItem struct {
	Title      string          `json:"title"`
	Author     string          `json:"author"`
	Confidence string          `json:"confidence"`
	SpineText  string          `json:"spine_text"`
	Language   string          `json:"language"`
	SpineIndex json.RawMessage `json:"spine_index"`
}

// completeObjectRe matches flat {...} objects when salvaging a truncated
// array. Nested objects are not part of the prompt contract.
var completeObjectRe = regexp.MustCompile(`\{[^{}]*\}`)

// ExtractCandidates runs the local extraction chain over response text.
// provider is recorded on each candidate for diagnostics.
func ExtractCandidates(content, provider string) ParseOutcome {
	content = strings.TrimSpace(content)
	if content == "" {
		return ParseOutcome{State: ParseFailed}
	}

	stripped := stripCodeFences(content)

	// (a) the whole string is JSON.
	if items, ok := unmarshalItems(stripped); ok {
		return parsedOutcome(items, provider)
	}

	// (b) first [...] span.
	if span := extractArraySpan(stripped); span != "" {
		if items, ok := unmarshalItems(span); ok {
			return parsedOutcome(items, provider)
		}
	}

	// (c) the array was truncated mid-object: salvage every complete
	// object that carries both a title and an author key.
	if items, ok := salvageObjects(stripped); ok {
		return parsedOutcome(items, provider)
	}

	return ParseOutcome{State: ParseNeedsRepair, Raw: content}
}

func parsedOutcome(items []rawBookItem, provider string) ParseOutcome {
	cands := make([]*books.Candidate, 0, len(items))
	for _, item := range items {
		cands = append(cands, item.toCandidate(provider))
	}
	return ParseOutcome{State: ParseParsed, Candidates: cands}
}

func (r rawBookItem) toCandidate(provider string) *books.Candidate {
	return &books.Candidate{
		Title:          strings.TrimSpace(r.Title),
		Author:         strings.TrimSpace(r.Author),
		SpineText:      strings.TrimSpace(r.SpineText),
		SpineIndex:     decodeSpineIndex(r.SpineIndex),
		Confidence:     books.ParseConfidence(strings.ToLower(strings.TrimSpace(r.Confidence))),
		Language:       languageOrUnknown(r.Language),
		SourceProvider: provider,
	}
}

func languageOrUnknown(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "unknown"
	}
	return s
}

// decodeSpineIndex accepts an integer, a numeric string, or nothing.
func decodeSpineIndex(raw json.RawMessage) int {
	if len(raw) == 0 || string(raw) == "null" {
		return books.SpineIndexNone
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	return books.SpineIndexNone
}

// unmarshalItems parses s as a JSON array of book items. A single bare
// object is accepted and wrapped.
func unmarshalItems(s string) ([]rawBookItem, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var items []rawBookItem
	if err := json.Unmarshal([]byte(s), &items); err == nil {
		return items, true
	}
	var single rawBookItem
	if strings.HasPrefix(s, "{") && json.Unmarshal([]byte(s), &single) == nil {
		return []rawBookItem{single}, true
	}
	return nil, false
}

// stripCodeFences removes a surrounding markdown code fence if present.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractArraySpan returns the first [...] span in content, or "".
func extractArraySpan(content string) string {
	start := strings.Index(content, "[")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(content, "]")
	if end <= start {
		return ""
	}
	return strings.TrimSpace(content[start : end+1])
}

// salvageObjects reconstructs a truncated array from the complete objects
// it still contains. Only objects carrying both title and author keys are
// trusted; a partial trailing object is dropped.
func salvageObjects(content string) ([]rawBookItem, bool) {
	matches := completeObjectRe.FindAllString(content, -1)
	if len(matches) == 0 {
		return nil, false
	}

	kept := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.Contains(m, `"title"`) && strings.Contains(m, `"author"`) {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return nil, false
	}

	return unmarshalItems("[" + strings.Join(kept, ",") + "]")
}
