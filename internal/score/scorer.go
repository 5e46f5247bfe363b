// Package score condenses a validation result into a single grounding
// index with diagnostic signals, for at-a-glance triage of a briefing.
package score

import (
	"fmt"
	"math"

	"github.com/jwhan/marketbrief/internal/model"
)

// Severity levels for diagnostic signals.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Signal is one diagnostic observation contributing to the index.
type Signal struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// Score is the condensed grounding assessment of one briefing.
type Score struct {
	Index      int      `json:"index"` // 0-100
	Confidence string   `json:"confidence"`
	Signals    []Signal `json:"signals,omitempty"`
}

// Scorer turns validation results into grounding scores.
type Scorer struct{}

// NewScorer creates a scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate derives the grounding index from a validation result.
//
// Components: citation coverage (0-40), claim verification (0-40),
// citation resolution (0-20). Abstained validators cap confidence.
func (s *Scorer) Calculate(v *model.ValidationResult) Score {
	var signals []Signal

	coverage, coverageSignal := s.coverage(v)
	signals = append(signals, coverageSignal)

	verification, verificationSignal := s.verification(v)
	signals = append(signals, verificationSignal)

	resolution, resolutionSignal := s.resolution(v)
	signals = append(signals, resolutionSignal)

	index := coverage + verification + resolution

	confidence := "high"
	switch {
	case index < 50 || v.ClaimsInvalid > 0:
		confidence = "low"
	case index < 80 || len(v.Abstained) > 0:
		confidence = "medium"
	}
	if len(v.Abstained) > 0 {
		signals = append(signals, Signal{
			Type:        "abstention",
			Severity:    SeverityWarning,
			Description: fmt.Sprintf("%d validators abstained", len(v.Abstained)),
		})
	}

	return Score{Index: index, Confidence: confidence, Signals: signals}
}

// coverage scores how many claims carry citations (0-40).
func (s *Scorer) coverage(v *model.ValidationResult) (int, Signal) {
	if v.ClaimsTotal == 0 {
		return 0, Signal{
			Type:        "citation_coverage",
			Severity:    SeverityCritical,
			Description: "No claims extracted",
		}
	}
	cited := v.ClaimsTotal - len(v.CitationGaps)
	ratio := float64(cited) / float64(v.ClaimsTotal)
	points := int(math.Round(ratio * 40))

	severity := SeverityInfo
	if ratio < 0.5 {
		severity = SeverityCritical
	} else if ratio < 1.0 {
		severity = SeverityWarning
	}
	return points, Signal{
		Type:        "citation_coverage",
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d claims cited", cited, v.ClaimsTotal),
	}
}

// verification scores how many checked claims verified (0-40). Invalid
// claims weigh double against not-found ones.
func (s *Scorer) verification(v *model.ValidationResult) (int, Signal) {
	checked := v.ClaimsValid + v.ClaimsInvalid + v.ClaimsNotFound
	if checked == 0 {
		return 0, Signal{
			Type:        "claim_verification",
			Severity:    SeverityWarning,
			Description: "No claims checked against sources",
		}
	}
	penalty := float64(2*v.ClaimsInvalid+v.ClaimsNotFound) / float64(checked)
	points := int(math.Round(math.Max(0, 1-penalty) * 40))

	severity := SeverityInfo
	if v.ClaimsInvalid > 0 {
		severity = SeverityCritical
	} else if v.ClaimsNotFound > 0 {
		severity = SeverityWarning
	}
	return points, Signal{
		Type:     "claim_verification",
		Severity: severity,
		Description: fmt.Sprintf("%d valid, %d invalid, %d not found",
			v.ClaimsValid, v.ClaimsInvalid, v.ClaimsNotFound),
	}
}

// resolution scores whether every declared citation resolved (0-20).
func (s *Scorer) resolution(v *model.ValidationResult) (int, Signal) {
	if len(v.Unresolvable) == 0 {
		return 20, Signal{
			Type:        "citation_resolution",
			Severity:    SeverityInfo,
			Description: "All citations resolved",
		}
	}
	points := 20 - 5*len(v.Unresolvable)
	if points < 0 {
		points = 0
	}
	return points, Signal{
		Type:        "citation_resolution",
		Severity:    SeverityCritical,
		Description: fmt.Sprintf("%d citations did not resolve", len(v.Unresolvable)),
	}
}
