package model

import "time"

// AudienceFitness grades how well a document fits the target audience.
type AudienceFitness string

const (
	FitnessExcellent AudienceFitness = "excellent"
	FitnessGood      AudienceFitness = "good"
	FitnessFair      AudienceFitness = "fair"
	FitnessPoor      AudienceFitness = "poor"
)

// rank orders fitness grades from worst to best.
func (f AudienceFitness) rank() int {
	switch f {
	case FitnessPoor:
		return 0
	case FitnessFair:
		return 1
	case FitnessGood:
		return 2
	case FitnessExcellent:
		return 3
	default:
		return 1
	}
}

// Acceptable reports whether the grade passes a blocking audience check.
func (f AudienceFitness) Acceptable() bool {
	return f.rank() >= FitnessGood.rank()
}

// AudienceVerdict is the audience validator's contribution.
type AudienceVerdict struct {
	Fitness  AudienceFitness `json:"fitness"`
	Feedback string          `json:"feedback,omitempty"`
}

// ValidationResult is the aggregate outcome for one document revision.
// A fresh instance is created per validation pass and never mutated after
// construction, so iterations can be diffed against each other.
type ValidationResult struct {
	ValidatedAt time.Time `json:"validated_at"`

	ClaimsTotal    int `json:"claims_total"`
	ClaimsValid    int `json:"claims_valid"`
	ClaimsInvalid  int `json:"claims_invalid"`
	ClaimsNotFound int `json:"claims_not_found"`

	Matches      []SourceMatch     `json:"matches,omitempty"`
	CitationGaps []Claim           `json:"citation_gaps,omitempty"`
	Unresolvable []SourceReference `json:"unresolvable_citations,omitempty"` // Declared citations that never resolved

	Audience AudienceVerdict `json:"audience"`

	OverallPass bool     `json:"overall_pass"`
	Feedback    []string `json:"feedback,omitempty"`
	Abstained   []string `json:"abstained_validators,omitempty"` // Validators excluded from the merge
}

// RunMetadata is the structured artifact persisted alongside the final
// document, keyed by run identifier.
type RunMetadata struct {
	RunID        string              `json:"run_id"`
	BriefingDate string              `json:"briefing_date"`
	GeneratedAt  time.Time           `json:"generated_at"`
	Iterations   int                 `json:"iterations"`
	OverallPass  bool                `json:"overall_pass"`
	Unresolved   bool                `json:"unresolved_issues_remain"`
	Keywords     []string            `json:"keywords,omitempty"`
	Validation   *ValidationResult   `json:"validation,omitempty"`
	History      []*ValidationResult `json:"validation_history,omitempty"`
	ToolLog      []ToolInvocation    `json:"tool_log,omitempty"`
}

// ToolInvocation records one call the reasoning engine made through the
// tool bridge. The ordered log is the only source of truth for which
// sources were actually consulted.
type ToolInvocation struct {
	Seq       int            `json:"seq"`
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Records   int            `json:"records"`
	Error     string         `json:"error,omitempty"`
	At        time.Time      `json:"at"`
}
