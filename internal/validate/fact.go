package validate

import (
	"context"
	"fmt"

	"github.com/jwhan/marketbrief/internal/claimcheck"
	"github.com/jwhan/marketbrief/internal/model"
)

// FactValidator wraps the claim validation engine. It contributes the
// per-claim counts and the full match list, and blocks whenever any claim
// is invalid; fact-matching is authoritative for overall_pass.
type FactValidator struct {
	matcher *claimcheck.Matcher
}

// NewFactValidator creates a fact validator over the given matcher.
func NewFactValidator(matcher *claimcheck.Matcher) *FactValidator {
	return &FactValidator{matcher: matcher}
}

// Name returns the validator identifier.
func (v *FactValidator) Name() string { return "fact" }

// Validate judges every (claim, reference) pair and rolls pair verdicts
// up to claim level by weakest status.
func (v *FactValidator) Validate(ctx context.Context, input Input) (*Verdict, error) {
	matches := v.matcher.Check(ctx, input.Claims)

	verdict := &Verdict{
		Validator:   v.Name(),
		ClaimsTotal: len(input.Claims),
		Matches:     matches,
	}

	for _, claim := range input.Claims {
		status, found := claimcheck.ClaimStatus(claim, matches)
		if !found {
			continue // uncited claims belong to the citation validator
		}
		switch status {
		case model.StatusValid, model.StatusPartial:
			verdict.ClaimsValid++
		case model.StatusInvalid:
			verdict.ClaimsInvalid++
		case model.StatusNotFound:
			verdict.ClaimsNotFound++
		}
	}

	for _, sm := range matches {
		switch sm.Status {
		case model.StatusInvalid:
			fb := fmt.Sprintf("claim %q contradicts %s: %s", trim(sm.Claim), sm.Reference.String(), sm.Explanation)
			if sm.Correction != "" {
				fb += "; " + sm.Correction
			}
			verdict.Feedback = append(verdict.Feedback, fb)
		case model.StatusNotFound:
			verdict.Feedback = append(verdict.Feedback,
				fmt.Sprintf("claim %q cites %s which did not resolve to any record", trim(sm.Claim), sm.Reference.String()))
		}
	}

	verdict.Pass = verdict.ClaimsInvalid == 0
	return verdict, nil
}

// trim shortens claim text for feedback lines.
func trim(s string) string {
	const max = 80
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
