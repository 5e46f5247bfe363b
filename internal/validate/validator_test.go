package validate

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jwhan/marketbrief/internal/model"
)

// cannedValidator returns a fixed verdict or error.
type cannedValidator struct {
	name    string
	verdict *Verdict
	err     error
	delay   time.Duration
}

func (v *cannedValidator) Name() string { return v.name }

func (v *cannedValidator) Validate(ctx context.Context, input Input) (*Verdict, error) {
	if v.delay > 0 {
		select {
		case <-time.After(v.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if v.err != nil {
		return nil, v.err
	}
	return v.verdict, nil
}

func passVerdict(name string) *Verdict {
	return &Verdict{Validator: name, Pass: true}
}

func TestAggregator_AllPass(t *testing.T) {
	agg := NewAggregator([]Validator{
		&cannedValidator{name: "fact", verdict: &Verdict{Pass: true, ClaimsTotal: 3, ClaimsValid: 3}},
		&cannedValidator{name: "citation", verdict: passVerdict("citation")},
	}, nil, time.Second)

	result := agg.Validate(context.Background(), Input{})
	if !result.OverallPass {
		t.Fatal("Expected overall pass")
	}
	if result.ClaimsTotal != 3 || result.ClaimsValid != 3 {
		t.Errorf("Counts not merged: %+v", result)
	}
}

func TestAggregator_InvalidClaimBlocks(t *testing.T) {
	agg := NewAggregator([]Validator{
		&cannedValidator{name: "fact", verdict: &Verdict{
			Pass: false, ClaimsTotal: 2, ClaimsValid: 1, ClaimsInvalid: 1,
			Feedback: []string{"claim contradicts the record"},
		}},
	}, nil, time.Second)

	result := agg.Validate(context.Background(), Input{})
	if result.OverallPass {
		t.Fatal("Expected overall fail with an invalid claim")
	}
	if len(result.Feedback) != 1 || !strings.HasPrefix(result.Feedback[0], "[fact] ") {
		t.Errorf("Feedback not prefixed with validator name: %v", result.Feedback)
	}
}

func TestAggregator_AdvisoryFailureDoesNotBlock(t *testing.T) {
	agg := NewAggregator([]Validator{
		&cannedValidator{name: "fact", verdict: passVerdict("fact")},
		&cannedValidator{name: "audience", verdict: &Verdict{
			Pass:     false,
			Audience: &model.AudienceVerdict{Fitness: model.FitnessFair, Feedback: "too technical"},
			Feedback: []string{"too technical"},
		}},
	}, []string{"audience"}, time.Second)

	result := agg.Validate(context.Background(), Input{})
	if !result.OverallPass {
		t.Fatal("Advisory validator must not block overall pass")
	}
	if result.Audience.Fitness != model.FitnessFair {
		t.Errorf("Audience verdict not carried: %+v", result.Audience)
	}
	if len(result.Feedback) == 0 {
		t.Error("Advisory feedback must still be carried")
	}
}

func TestAggregator_ErrorBecomesAbstention(t *testing.T) {
	agg := NewAggregator([]Validator{
		&cannedValidator{name: "fact", verdict: passVerdict("fact")},
		&cannedValidator{name: "consistency", err: fmt.Errorf("engine unreachable")},
	}, nil, time.Second)

	result := agg.Validate(context.Background(), Input{})
	if !result.OverallPass {
		t.Fatal("Abstention must not fail the aggregation")
	}
	if len(result.Abstained) != 1 || result.Abstained[0] != "consistency" {
		t.Errorf("Expected consistency abstention, got %v", result.Abstained)
	}
}

func TestAggregator_TimeoutBecomesAbstention(t *testing.T) {
	agg := NewAggregator([]Validator{
		&cannedValidator{name: "fact", verdict: passVerdict("fact")},
		&cannedValidator{name: "consistency", delay: 500 * time.Millisecond, verdict: passVerdict("consistency")},
	}, nil, 50*time.Millisecond)

	result := agg.Validate(context.Background(), Input{})
	if len(result.Abstained) != 1 {
		t.Fatalf("Expected 1 abstention, got %v", result.Abstained)
	}
	found := false
	for _, fb := range result.Feedback {
		if strings.Contains(fb, "timed out") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected timeout reason in feedback: %v", result.Feedback)
	}
}

func TestAggregator_GapsSortedByPosition(t *testing.T) {
	agg := NewAggregator([]Validator{
		&cannedValidator{name: "citation", verdict: &Verdict{
			Pass: false,
			Gaps: []model.Claim{
				{Text: "later uncited claim", Position: 5},
				{Text: "earlier uncited claim", Position: 1},
			},
		}},
	}, nil, time.Second)

	result := agg.Validate(context.Background(), Input{})
	if result.OverallPass {
		t.Fatal("Citation gaps must fail the merge")
	}
	if len(result.CitationGaps) != 2 || result.CitationGaps[0].Position != 1 {
		t.Errorf("Gaps not sorted by position: %+v", result.CitationGaps)
	}
}

func TestAggregator_UnresolvableBlocks(t *testing.T) {
	agg := NewAggregator([]Validator{
		&cannedValidator{name: "existence", verdict: &Verdict{
			Pass:         true,
			Unresolvable: []model.SourceReference{{SourceType: "news", Key: "news-99"}},
		}},
	}, nil, time.Second)

	result := agg.Validate(context.Background(), Input{})
	if result.OverallPass {
		t.Fatal("An unresolvable citation must fail the merge even when the validator passes")
	}
}
