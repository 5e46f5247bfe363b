package validate

import (
	"context"
	"fmt"
)

// CitationValidator flags claims with zero attached references. An
// unreferenced factual assertion is a defect of the document, not a
// parsing error, and always blocks.
type CitationValidator struct{}

// NewCitationValidator creates a citation-completeness validator.
func NewCitationValidator() *CitationValidator { return &CitationValidator{} }

// Name returns the validator identifier.
func (v *CitationValidator) Name() string { return "citation" }

// Validate collects every claim without references as a citation gap.
func (v *CitationValidator) Validate(ctx context.Context, input Input) (*Verdict, error) {
	verdict := &Verdict{Validator: v.Name()}

	for _, claim := range input.Claims {
		if len(claim.References) == 0 {
			verdict.Gaps = append(verdict.Gaps, claim)
			verdict.Feedback = append(verdict.Feedback,
				fmt.Sprintf("claim %q has no source citation; add a [REF: ...] tag or remove the assertion", trim(claim.Text)))
		}
	}

	verdict.Pass = len(verdict.Gaps) == 0
	return verdict, nil
}
