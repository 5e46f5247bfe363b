package model

// Claim is an atomic factual assertion extracted from a generated draft.
// A claim with zero references is a citation gap, not a parsing error.
type Claim struct {
	Text       string            `json:"text"`                 // The claim text with citation tags stripped
	References []SourceReference `json:"references,omitempty"` // Citations bound to this span
	Position   int               `json:"position"`             // Sentence index in the document (0-based)
	Start      int               `json:"start"`                // Byte offset of the span start
	End        int               `json:"end"`                  // Byte offset of the span end
}

// MatchStatus classifies the verdict for one (claim, reference) pair.
type MatchStatus string

const (
	StatusValid    MatchStatus = "valid"     // Claim matches the resolved record
	StatusPartial  MatchStatus = "partial"   // Qualitative match without a crisp predicate
	StatusInvalid  MatchStatus = "invalid"   // Claim contradicts the resolved record
	StatusNotFound MatchStatus = "not_found" // Reference did not resolve to any record
)

// rank orders statuses from worst to best for weakest-verdict merging.
func (s MatchStatus) rank() int {
	switch s {
	case StatusInvalid:
		return 0
	case StatusNotFound:
		return 1
	case StatusPartial:
		return 2
	case StatusValid:
		return 3
	default:
		return 0
	}
}

// Worst returns the weaker of two statuses. A claim is only as good as its
// worst-supported citation.
func (s MatchStatus) Worst(other MatchStatus) MatchStatus {
	if other.rank() < s.rank() {
		return other
	}
	return s
}

// ValidThreshold is the minimum confidence required for a VALID verdict.
const ValidThreshold = 0.8

// SourceMatch is the verdict for one (claim, reference) pair.
// Invariants: StatusNotFound implies Record == nil; StatusValid implies
// Record != nil and Confidence >= ValidThreshold.
type SourceMatch struct {
	Claim       string          `json:"claim"`
	Reference   SourceReference `json:"reference"`
	Status      MatchStatus     `json:"status"`
	Confidence  float64         `json:"confidence"` // 0.0 to 1.0
	Record      *SourceRecord   `json:"record,omitempty"`
	Explanation string          `json:"explanation,omitempty"`
	Correction  string          `json:"suggested_correction,omitempty"` // Suggested fix if invalid
}
