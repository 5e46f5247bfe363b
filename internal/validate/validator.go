// Package validate runs a fixed panel of independent validators over a
// document revision and merges their verdicts into one ValidationResult.
package validate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jwhan/marketbrief/internal/engine"
	"github.com/jwhan/marketbrief/internal/model"
)

// Input is what every panel member consumes: the draft, the extracted
// claims, and the structured citation array collected during generation.
// Validators never share mutable state; each receives the same input and
// works independently.
type Input struct {
	Draft     string
	Claims    []model.Claim
	Citations []model.SourceReference
}

// Verdict is one validator's contribution to the merge.
type Verdict struct {
	Validator string

	ClaimsTotal    int
	ClaimsValid    int
	ClaimsInvalid  int
	ClaimsNotFound int

	Matches      []model.SourceMatch
	Gaps         []model.Claim
	Unresolvable []model.SourceReference
	Audience     *model.AudienceVerdict

	Feedback []string
	Pass     bool
}

// Validator is one panel member.
type Validator interface {
	Name() string
	Validate(ctx context.Context, input Input) (*Verdict, error)
}

// Aggregator runs the panel concurrently and merges the outcome.
//
// Merge rule: overall_pass requires zero invalid claims, zero citation
// gaps and zero source-existence failures. Validators listed as advisory
// contribute feedback only; the rest also block on their own Pass flag.
type Aggregator struct {
	panel    []Validator
	advisory map[string]bool
	timeout  time.Duration
}

// NewAggregator creates an aggregator over the given panel. Validators
// named in advisory never block overall_pass.
func NewAggregator(panel []Validator, advisory []string, stepTimeout time.Duration) *Aggregator {
	adv := make(map[string]bool, len(advisory))
	for _, name := range advisory {
		adv[name] = true
	}
	if stepTimeout <= 0 {
		stepTimeout = 2 * time.Minute
	}
	return &Aggregator{panel: panel, advisory: adv, timeout: stepTimeout}
}

type panelOutcome struct {
	name    string
	verdict *Verdict
	err     error
}

// Validate runs every panel member in parallel, waits for all of them
// (a barrier), and merges. A validator that times out or errors degrades
// to an abstention: it is excluded from the merge and noted in feedback,
// never failing the whole aggregation.
func (a *Aggregator) Validate(ctx context.Context, input Input) *model.ValidationResult {
	outcomes := make([]panelOutcome, len(a.panel))

	var wg sync.WaitGroup
	sem := make(chan struct{}, len(a.panel))
	for i, v := range a.panel {
		wg.Add(1)
		go func(idx int, v Validator) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			vctx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			verdict, err := v.Validate(vctx, input)
			outcomes[idx] = panelOutcome{name: v.Name(), verdict: verdict, err: err}
		}(i, v)
	}
	wg.Wait()

	return a.merge(input, outcomes)
}

func (a *Aggregator) merge(input Input, outcomes []panelOutcome) *model.ValidationResult {
	result := &model.ValidationResult{
		ValidatedAt: time.Now().UTC(),
		Audience:    model.AudienceVerdict{Fitness: model.FitnessGood},
	}

	blockersPass := true
	for _, out := range outcomes {
		if out.err != nil || out.verdict == nil {
			result.Abstained = append(result.Abstained, out.name)
			reason := "no verdict"
			if out.err != nil {
				reason = out.err.Error()
				if errors.Is(out.err, context.DeadlineExceeded) || errors.Is(out.err, engine.ErrTimeout) {
					reason = "timed out"
				}
			}
			result.Feedback = append(result.Feedback,
				fmt.Sprintf("[%s] abstained: %s", out.name, reason))
			continue
		}

		v := out.verdict
		result.ClaimsTotal += v.ClaimsTotal
		result.ClaimsValid += v.ClaimsValid
		result.ClaimsInvalid += v.ClaimsInvalid
		result.ClaimsNotFound += v.ClaimsNotFound
		result.Matches = append(result.Matches, v.Matches...)
		result.CitationGaps = append(result.CitationGaps, v.Gaps...)
		result.Unresolvable = append(result.Unresolvable, v.Unresolvable...)
		if v.Audience != nil {
			result.Audience = *v.Audience
		}
		for _, fb := range v.Feedback {
			result.Feedback = append(result.Feedback, fmt.Sprintf("[%s] %s", out.name, fb))
		}

		if !v.Pass && !a.advisory[out.name] {
			blockersPass = false
		}
	}

	sort.SliceStable(result.CitationGaps, func(i, j int) bool {
		return result.CitationGaps[i].Position < result.CitationGaps[j].Position
	})

	result.OverallPass = result.ClaimsInvalid == 0 &&
		len(result.CitationGaps) == 0 &&
		len(result.Unresolvable) == 0 &&
		blockersPass

	return result
}
