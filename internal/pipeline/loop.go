package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/jwhan/marketbrief/internal/claimcheck"
	"github.com/jwhan/marketbrief/internal/model"
	"github.com/jwhan/marketbrief/internal/source"
	"github.com/jwhan/marketbrief/internal/tools"
	"github.com/jwhan/marketbrief/internal/validate"
)

// Loop owns one briefing run from source load to finished artifact.
type Loop struct {
	registry   *source.Registry
	writer     *Writer
	executor   *tools.Executor
	aggregator *validate.Aggregator
	extractor  *claimcheck.Extractor
	cfg        *model.Config
}

// RunResult is what a completed run hands back to the caller.
type RunResult struct {
	Briefing   string
	References []model.SourceReference
	Meta       *model.RunMetadata
}

// NewLoop wires a loop over already-constructed components.
func NewLoop(reg *source.Registry, w *Writer, x *tools.Executor, agg *validate.Aggregator, cfg *model.Config) *Loop {
	return &Loop{
		registry:   reg,
		writer:     w,
		executor:   x,
		aggregator: agg,
		extractor:  claimcheck.NewExtractor(),
		cfg:        cfg,
	}
}

// Run executes the revision loop for the given briefing date. Cancellation
// is honored at every state boundary; a cancelled run returns the context
// error and no partial artifact.
func (l *Loop) Run(ctx context.Context, briefingDate string) (*RunResult, error) {
	ps := &PipelineState{
		BriefingDate:  briefingDate,
		MaxIterations: l.cfg.Run.MaxIterations,
	}
	generatedAt := time.Now()

	state := StateLoad
	for state != StateDone {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		switch state {
		case StateLoad:
			state, err = l.stepLoad(ps)
		case StateDraft:
			state, err = l.stepDraft(ctx, ps)
		case StateCritique:
			state = l.stepCritique(ctx, ps)
		case StateRevise:
			state = l.stepRevise(ctx, ps)
		default:
			err = fmt.Errorf("pipeline entered unknown state %d", state)
		}
		if err != nil {
			return nil, err
		}
	}

	meta := &model.RunMetadata{
		RunID:        NewRunID(briefingDate),
		BriefingDate: briefingDate,
		GeneratedAt:  generatedAt,
		Iterations:   ps.Iteration,
		Unresolved:   ps.Unresolved,
		Keywords:     ExtractKeywords(ps.Draft, maxKeywords),
		Validation:   ps.LastValidation,
		History:      ps.History,
		ToolLog:      l.executor.Log(),
	}
	if ps.LastValidation != nil {
		meta.OverallPass = ps.LastValidation.OverallPass
	}
	return &RunResult{Briefing: ps.Draft, References: ps.Citations, Meta: meta}, nil
}

func (l *Loop) stepLoad(ps *PipelineState) (State, error) {
	if err := l.registry.Load(l.cfg.Sources.Locators()); err != nil {
		return StateDone, fmt.Errorf("loading sources: %w", err)
	}
	for typ, err := range l.registry.LoadErrors() {
		l.logf("Warning: source %s unavailable: %v\n", typ, err)
	}
	ps.SourceCounts = l.registry.Counts()
	if l.cfg.Output.Verbose {
		for typ, n := range ps.SourceCounts {
			l.logf("✓ Loaded %s: %d records\n", typ, n)
		}
	}
	return StateDraft, nil
}

func (l *Loop) stepDraft(ctx context.Context, ps *PipelineState) (State, error) {
	stepCtx, cancel := context.WithTimeout(ctx, l.cfg.Run.StepTimeout)
	defer cancel()

	draft, err := l.writer.Draft(stepCtx, ps.BriefingDate, ps.SourceCounts)
	if err != nil {
		// No draft means nothing to critique or release.
		return StateDone, fmt.Errorf("drafting briefing: %w", err)
	}
	ps.Draft = draft
	ps.Citations = l.executor.References()
	return StateCritique, nil
}

func (l *Loop) stepCritique(ctx context.Context, ps *PipelineState) State {
	claims := l.extractor.Extract(ps.Draft)
	result := l.aggregator.Validate(ctx, validate.Input{
		Draft:     ps.Draft,
		Claims:    claims,
		Citations: ps.Citations,
	})
	ps.LastValidation = result
	ps.History = append(ps.History, result)
	if l.cfg.Output.Verbose {
		l.logf("✓ Critique %d: %d claims, %d invalid, %d not found, pass=%v\n",
			len(ps.History), result.ClaimsTotal, result.ClaimsInvalid,
			result.ClaimsNotFound, result.OverallPass)
	}
	return NextAfterCritique(ps)
}

func (l *Loop) stepRevise(ctx context.Context, ps *PipelineState) State {
	ps.Iteration++

	stepCtx, cancel := context.WithTimeout(ctx, l.cfg.Run.StepTimeout)
	defer cancel()

	revised, err := l.writer.Revise(stepCtx, ps.Draft, ps.LastValidation.Feedback)
	if err != nil {
		// Keep the last critiqued draft rather than losing the run.
		l.logf("Warning: revision %d failed, releasing previous draft: %v\n", ps.Iteration, err)
		ps.Unresolved = true
		return StateDone
	}
	ps.Draft = revised
	ps.Citations = l.executor.References()
	return StateCritique
}

func (l *Loop) logf(format string, args ...any) {
	fmt.Printf(format, args...)
}
