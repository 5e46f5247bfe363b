package validate

import (
	"context"
	"fmt"

	"github.com/jwhan/marketbrief/internal/claimcheck"
	"github.com/jwhan/marketbrief/internal/model"
	"github.com/jwhan/marketbrief/internal/source"
)

// ConsistencyValidator compares claim text against the full resolved
// record payload, not just the matched field, to catch exaggeration or
// distortion even when the narrow numeric value checks out. Advisory by
// default; fact-matching stays authoritative for overall_pass.
type ConsistencyValidator struct {
	registry  *source.Registry
	judge     claimcheck.Judge
	maxJudged int
}

// NewConsistencyValidator creates a content-consistency validator.
func NewConsistencyValidator(reg *source.Registry, judge claimcheck.Judge) *ConsistencyValidator {
	return &ConsistencyValidator{registry: reg, judge: judge, maxJudged: 20}
}

// Name returns the validator identifier.
func (v *ConsistencyValidator) Name() string { return "consistency" }

// Validate asks the judge whether each cited claim stays faithful to the
// whole record it cites. Claims beyond the per-pass budget are skipped;
// this validator informs, it does not gatekeep.
func (v *ConsistencyValidator) Validate(ctx context.Context, input Input) (*Verdict, error) {
	verdict := &Verdict{Validator: v.Name(), Pass: true}
	if v.judge == nil {
		return verdict, nil
	}

	judged := 0
	for _, claim := range input.Claims {
		if len(claim.References) == 0 || judged >= v.maxJudged {
			continue
		}
		rec, err := v.registry.Resolve(claim.References[0])
		if err != nil {
			continue // existence and fact validators report resolution misses
		}
		judged++

		jv, err := v.judge.Judge(ctx, claim.Text, *rec)
		if err != nil {
			return nil, fmt.Errorf("judge claim at position %d: %w", claim.Position, err)
		}
		if jv.Status == model.StatusInvalid {
			verdict.Pass = false
			verdict.Feedback = append(verdict.Feedback,
				fmt.Sprintf("claim %q distorts the cited record: %s", trim(claim.Text), jv.Explanation))
		}
	}

	return verdict, nil
}
