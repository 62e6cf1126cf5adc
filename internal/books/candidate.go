// Package books defines the book candidate model that flows through the
// extraction pipeline, plus the per-run result and diagnostics types.
package books

// Confidence is the coarse quality tier assigned by a provider or validator.
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceInvalid Confidence = "invalid"
)

// Rank orders confidence tiers for merge tie-breaks. Higher is better.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	case ConfidenceInvalid:
		return 0
	default:
		return 1
	}
}

// ParseConfidence normalizes a provider-reported confidence string.
// Unknown values map to low rather than failing the candidate.
func ParseConfidence(s string) Confidence {
	switch Confidence(s) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceInvalid:
		return Confidence(s)
	default:
		return ConfidenceLow
	}
}

// SpineIndexNone marks a candidate whose shelf position was not reported.
// Unindexed candidates sort after all indexed ones.
const SpineIndexNone = -1

// ExternalMatch is an advisory metadata-lookup match attached by the
// augmenter. It never overwrites candidate fields directly.
type ExternalMatch struct {
	ID         string     `json:"id"`
	Confidence Confidence `json:"confidence"`
}

// ValidationNotes records what the batch validator changed.
type ValidationNotes struct {
	Fixes []string `json:"fixes,omitempty"`
	Notes string   `json:"notes,omitempty"`
}

// Candidate is one possible book spotted on the shelf. Empty Title/Author
// mean the field is absent. Candidates are mutated in place by pipeline
// stages and removed outright when filtered; they never re-enter an
// earlier stage.
type Candidate struct {
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`

	// SpineText is the raw spine text as reported by the provider.
	SpineText string `json:"spine_text,omitempty"`

	// SpineIndex is the left-to-right shelf position, SpineIndexNone if
	// the provider did not report one.
	SpineIndex int `json:"spine_index"`

	Confidence Confidence `json:"confidence"`
	Language   string     `json:"language,omitempty"`

	// SourceProvider records which inference call produced the candidate.
	// Diagnostic only.
	SourceProvider string `json:"source_provider,omitempty"`

	ExternalMatch   *ExternalMatch   `json:"external_match,omitempty"`
	ValidationNotes *ValidationNotes `json:"validation_notes,omitempty"`

	// RejectionReason is set when a stage filters the candidate out.
	// Never surfaced to callers.
	RejectionReason string `json:"-"`
}

// HasTitle reports whether the candidate carries a title.
func (c *Candidate) HasTitle() bool { return c.Title != "" }

// HasAuthor reports whether the candidate carries an author.
func (c *Candidate) HasAuthor() bool { return c.Author != "" }

// Complete reports whether both title and author are present.
func (c *Candidate) Complete() bool { return c.HasTitle() && c.HasAuthor() }

// Diagnostics summarizes one provider's contribution to a run.
type Diagnostics struct {
	Attempted bool   `json:"attempted"`
	Succeeded bool   `json:"succeeded"`
	Count     int    `json:"count"`
	Error     string `json:"error,omitempty"`
}

// Result is the final output of a pipeline run.
type Result struct {
	Books     []*Candidate            `json:"books"`
	Providers map[string]*Diagnostics `json:"providers"`
}
