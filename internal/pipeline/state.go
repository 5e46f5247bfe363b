// Package pipeline implements the bounded revision control loop: a small,
// fixed state machine that drafts a briefing through the reasoning engine,
// critiques it through the validator panel, and revises while issues
// remain and the iteration budget allows.
package pipeline

import (
	"github.com/jwhan/marketbrief/internal/model"
)

// State is one node of the revision loop's fixed topology.
type State int

const (
	StateLoad State = iota
	StateDraft
	StateCritique
	StateRevise
	StateDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateLoad:
		return "LOAD"
	case StateDraft:
		return "DRAFT"
	case StateCritique:
		return "CRITIQUE"
	case StateRevise:
		return "REVISE"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// PipelineState is the loop's working state. It is owned exclusively by
// the loop and mutated only at transition points; no other component
// holds a writable reference to it.
type PipelineState struct {
	SourceCounts map[string]int // snapshot of what LOAD materialized
	BriefingDate string

	Draft     string
	Citations []model.SourceReference

	LastValidation *model.ValidationResult
	History        []*model.ValidationResult // one entry per CRITIQUE pass

	Iteration     int // number of REVISE transitions taken
	MaxIterations int

	Unresolved bool // budget exhausted with issues remaining
}

// NextAfterCritique is the transition guard applied after every CRITIQUE
// pass. It is a pure function so termination is checkable: every path
// either reaches DONE or strictly increases Iteration toward the bound.
func NextAfterCritique(ps *PipelineState) State {
	if ps.LastValidation != nil && ps.LastValidation.OverallPass {
		return StateDone
	}
	if ps.Iteration < ps.MaxIterations {
		return StateRevise
	}
	// Budget exhausted: release the last draft as-is, flagged.
	ps.Unresolved = true
	return StateDone
}
