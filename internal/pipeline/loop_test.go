package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/jwhan/marketbrief/internal/engine"
	"github.com/jwhan/marketbrief/internal/model"
	"github.com/jwhan/marketbrief/internal/source"
	"github.com/jwhan/marketbrief/internal/tools"
	"github.com/jwhan/marketbrief/internal/validate"
)

// scriptedEngine returns successive final drafts, one per Converse call.
type scriptedEngine struct {
	drafts []string
	calls  int
}

func (e *scriptedEngine) Name() string { return "scripted" }

func (e *scriptedEngine) Converse(ctx context.Context, req engine.ConverseRequest) (*engine.Turn, error) {
	draft := e.drafts[len(e.drafts)-1]
	if e.calls < len(e.drafts) {
		draft = e.drafts[e.calls]
	}
	e.calls++
	return &engine.Turn{Text: draft}, nil
}

func (e *scriptedEngine) Judge(ctx context.Context, claim string, evidence model.SourceRecord) (*engine.JudgeVerdict, error) {
	return &engine.JudgeVerdict{Status: model.StatusValid, Confidence: 0.9}, nil
}

func (e *scriptedEngine) IsAvailable(ctx context.Context) bool { return true }

// gateValidator fails the first n validations, then passes.
type gateValidator struct {
	failuresLeft int
	validations  int
}

func (v *gateValidator) Name() string { return "gate" }

func (v *gateValidator) Validate(ctx context.Context, input validate.Input) (*validate.Verdict, error) {
	v.validations++
	if v.failuresLeft > 0 {
		v.failuresLeft--
		return &validate.Verdict{Pass: false, Feedback: []string{"needs another pass"}}, nil
	}
	return &validate.Verdict{Pass: true}, nil
}

type noopSource struct{ typ string }

func (s *noopSource) Type() string { return s.typ }
func (s *noopSource) Load(locator string, seen *source.DedupeIndex) error {
	seen.Seen("2024-03-15")
	return nil
}
func (s *noopSource) Search(string) []model.SourceRecord { return nil }
func (s *noopSource) Resolve(model.SourceReference) (*model.SourceRecord, error) {
	return nil, source.ErrNotFound
}

func testLoop(t *testing.T, gate *gateValidator, maxIterations int) (*Loop, *scriptedEngine) {
	t.Helper()

	cfg := model.DefaultConfig()
	cfg.Run.MaxIterations = maxIterations
	cfg.Run.StepTimeout = time.Second
	cfg.Sources.Market = "unused"

	reg := source.NewRegistry()
	reg.Register(&noopSource{typ: "market"})

	eng := &scriptedEngine{drafts: []string{
		"The index closed lower on renewed rate concerns during the session.",
		"The index closed 0.6% lower at 5117.09 on renewed rate concerns.",
		"The index closed 0.6% lower at 5117.09, its third weekly decline.",
	}}

	executor := tools.NewExecutor(reg, cfg.Tools)
	agg := validate.NewAggregator([]validate.Validator{gate}, nil, time.Second)
	writer := NewWriter(eng, executor)

	return NewLoop(reg, writer, executor, agg, cfg), eng
}

func TestLoop_PassesFirstTry(t *testing.T) {
	gate := &gateValidator{failuresLeft: 0}
	loop, _ := testLoop(t, gate, 3)

	result, err := loop.Run(context.Background(), "2024-03-15")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Meta.Iterations != 0 {
		t.Errorf("Expected 0 revisions, got %d", result.Meta.Iterations)
	}
	if !result.Meta.OverallPass || result.Meta.Unresolved {
		t.Errorf("Expected clean pass: %+v", result.Meta)
	}
	if len(result.Meta.History) != 1 {
		t.Errorf("Expected 1 critique pass, got %d", len(result.Meta.History))
	}
}

func TestLoop_RevisesUntilPass(t *testing.T) {
	gate := &gateValidator{failuresLeft: 2}
	loop, eng := testLoop(t, gate, 3)

	result, err := loop.Run(context.Background(), "2024-03-15")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Meta.Iterations != 2 {
		t.Errorf("Expected 2 revisions, got %d", result.Meta.Iterations)
	}
	if !result.Meta.OverallPass {
		t.Error("Expected pass after revisions")
	}
	if gate.validations != 3 {
		t.Errorf("Expected 3 critique passes, got %d", gate.validations)
	}
	// One draft plus two revisions.
	if eng.calls != 3 {
		t.Errorf("Expected 3 engine calls, got %d", eng.calls)
	}
	if result.Briefing != eng.drafts[2] {
		t.Errorf("Final briefing is not the last revision: %q", result.Briefing)
	}
}

func TestLoop_BudgetExhaustedReleasesFlagged(t *testing.T) {
	gate := &gateValidator{failuresLeft: 100}
	loop, _ := testLoop(t, gate, 2)

	result, err := loop.Run(context.Background(), "2024-03-15")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.Meta.Unresolved {
		t.Fatal("Expected unresolved flag after budget exhaustion")
	}
	if result.Meta.OverallPass {
		t.Error("Expected overall fail")
	}
	if result.Meta.Iterations != 2 {
		t.Errorf("Expected exactly 2 revisions, got %d", result.Meta.Iterations)
	}
	// Initial critique plus one per revision.
	if len(result.Meta.History) != 3 {
		t.Errorf("Expected 3 validation results in history, got %d", len(result.Meta.History))
	}
	if result.Briefing == "" {
		t.Error("Flagged release must still carry the last draft")
	}
}

func TestLoop_Cancellation(t *testing.T) {
	gate := &gateValidator{failuresLeft: 100}
	loop, _ := testLoop(t, gate, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loop.Run(ctx, "2024-03-15")
	if err == nil {
		t.Fatal("Expected error from cancelled context")
	}
}
