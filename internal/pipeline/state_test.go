package pipeline

import (
	"testing"

	"github.com/jwhan/marketbrief/internal/model"
)

func TestNextAfterCritique(t *testing.T) {
	tests := []struct {
		name       string
		state      PipelineState
		want       State
		unresolved bool
	}{
		{
			name: "pass ends the loop",
			state: PipelineState{
				LastValidation: &model.ValidationResult{OverallPass: true},
				Iteration:      0, MaxIterations: 3,
			},
			want: StateDone,
		},
		{
			name: "failure with budget left revises",
			state: PipelineState{
				LastValidation: &model.ValidationResult{OverallPass: false},
				Iteration:      1, MaxIterations: 3,
			},
			want: StateRevise,
		},
		{
			name: "failure with budget spent releases flagged",
			state: PipelineState{
				LastValidation: &model.ValidationResult{OverallPass: false},
				Iteration:      3, MaxIterations: 3,
			},
			want:       StateDone,
			unresolved: true,
		},
		{
			name: "pass on the last allowed iteration still ends clean",
			state: PipelineState{
				LastValidation: &model.ValidationResult{OverallPass: true},
				Iteration:      3, MaxIterations: 3,
			},
			want: StateDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := tt.state
			got := NextAfterCritique(&ps)
			if got != tt.want {
				t.Errorf("NextAfterCritique() = %v, want %v", got, tt.want)
			}
			if ps.Unresolved != tt.unresolved {
				t.Errorf("Unresolved = %v, want %v", ps.Unresolved, tt.unresolved)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	if StateLoad.String() != "LOAD" || StateDone.String() != "DONE" {
		t.Error("State names wrong")
	}
	if State(99).String() != "UNKNOWN" {
		t.Error("Unknown state should print UNKNOWN")
	}
}
