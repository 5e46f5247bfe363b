package pipeline

import (
	"fmt"

	"github.com/jwhan/marketbrief/internal/cache"
	"github.com/jwhan/marketbrief/internal/claimcheck"
	"github.com/jwhan/marketbrief/internal/engine"
	"github.com/jwhan/marketbrief/internal/model"
	"github.com/jwhan/marketbrief/internal/source"
	"github.com/jwhan/marketbrief/internal/tools"
	"github.com/jwhan/marketbrief/internal/validate"
)

// Components bundles the wired pieces of one briefing system instance.
type Components struct {
	Registry   *source.Registry
	Engine     engine.Engine
	Executor   *tools.Executor
	Aggregator *validate.Aggregator
	Loop       *Loop
	Auditor    *Auditor
}

// Build constructs every component from configuration. Sources are
// registered but not loaded; the loop (or the caller, for audits) loads
// them when it runs.
func Build(cfg *model.Config) (*Components, error) {
	reg := source.NewRegistry()
	reg.Register(source.NewMarketSource())
	reg.Register(source.NewMacroSource())
	reg.Register(source.NewCalendarSource())
	reg.Register(source.NewNewsSource())
	reg.Register(source.NewFOMCSource())

	eng, err := engine.New(cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("initialize engine: %w", err)
	}

	verdicts := cache.NewVerdictCache()
	matcher := claimcheck.NewMatcher(reg, eng, verdicts, cfg.Run.NumericTolerance)

	panel := []validate.Validator{
		validate.NewFactValidator(matcher),
		validate.NewCitationValidator(),
		validate.NewExistenceValidator(reg),
		validate.NewConsistencyValidator(reg, eng),
		validate.NewAudienceValidator(eng, cfg.Audience.Profile),
	}
	agg := validate.NewAggregator(panel, cfg.Run.AdvisoryValidators, cfg.Run.StepTimeout)

	executor := tools.NewExecutor(reg, cfg.Tools)
	writer := NewWriter(eng, executor)

	return &Components{
		Registry:   reg,
		Engine:     eng,
		Executor:   executor,
		Aggregator: agg,
		Loop:       NewLoop(reg, writer, executor, agg, cfg),
		Auditor:    NewAuditor(agg),
	}, nil
}
