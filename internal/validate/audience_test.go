package validate

import (
	"context"
	"fmt"
	"testing"

	"github.com/jwhan/marketbrief/internal/engine"
	"github.com/jwhan/marketbrief/internal/model"
)

func TestParseAudienceVerdict(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    model.AudienceFitness
		wantErr bool
	}{
		{
			name:  "plain json",
			input: `{"fitness": "good", "feedback": "clear and accessible"}`,
			want:  model.FitnessGood,
		},
		{
			name:  "fenced json",
			input: "```json\n{\"fitness\": \"poor\", \"feedback\": \"too much jargon\"}\n```",
			want:  model.FitnessPoor,
		},
		{
			name:    "unknown grade",
			input:   `{"fitness": "amazing"}`,
			wantErr: true,
		},
		{
			name:    "no json",
			input:   "Looks good to me",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			av, err := parseAudienceVerdict(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got %+v", av)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if av.Fitness != tt.want {
				t.Errorf("Fitness = %s, want %s", av.Fitness, tt.want)
			}
		})
	}
}

// fixedEngine returns one canned conversational reply.
type fixedEngine struct {
	reply string
	err   error
}

func (e *fixedEngine) Name() string { return "fixed" }

func (e *fixedEngine) Converse(ctx context.Context, req engine.ConverseRequest) (*engine.Turn, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &engine.Turn{Text: e.reply}, nil
}

func (e *fixedEngine) Judge(ctx context.Context, claim string, evidence model.SourceRecord) (*engine.JudgeVerdict, error) {
	return nil, fmt.Errorf("not used")
}

func (e *fixedEngine) IsAvailable(ctx context.Context) bool { return true }

func TestAudienceValidator_PoorGradeFails(t *testing.T) {
	v := NewAudienceValidator(&fixedEngine{
		reply: `{"fitness": "poor", "feedback": "explain what basis points are"}`,
	}, "retail investors")

	verdict, err := v.Validate(context.Background(), Input{Draft: "Spreads widened 12bp."})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if verdict.Pass {
		t.Error("Poor fitness must not pass")
	}
	if len(verdict.Feedback) != 1 {
		t.Errorf("Expected the engine feedback to be carried: %v", verdict.Feedback)
	}
}

func TestAudienceValidator_EngineErrorPropagates(t *testing.T) {
	v := NewAudienceValidator(&fixedEngine{err: fmt.Errorf("unreachable")}, "retail investors")

	_, err := v.Validate(context.Background(), Input{Draft: "text"})
	if err == nil {
		t.Fatal("Expected error so the aggregator records an abstention")
	}
}
