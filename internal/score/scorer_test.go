package score

import (
	"testing"

	"github.com/jwhan/marketbrief/internal/model"
)

func TestScorer_CleanResult(t *testing.T) {
	result := &model.ValidationResult{
		ClaimsTotal: 10,
		ClaimsValid: 10,
		OverallPass: true,
	}

	s := NewScorer().Calculate(result)
	if s.Index != 100 {
		t.Errorf("Expected index 100 for a clean result, got %d", s.Index)
	}
	if s.Confidence != "high" {
		t.Errorf("Expected high confidence, got %s", s.Confidence)
	}
}

func TestScorer_InvalidClaimsLowerConfidence(t *testing.T) {
	result := &model.ValidationResult{
		ClaimsTotal:   10,
		ClaimsValid:   8,
		ClaimsInvalid: 2,
	}

	s := NewScorer().Calculate(result)
	if s.Confidence != "low" {
		t.Errorf("Invalid claims must force low confidence, got %s", s.Confidence)
	}
	if s.Index >= 100 {
		t.Errorf("Expected index below 100, got %d", s.Index)
	}
}

func TestScorer_NoClaims(t *testing.T) {
	s := NewScorer().Calculate(&model.ValidationResult{})
	if s.Index > 60 {
		t.Errorf("Empty result scored too high: %d", s.Index)
	}
	critical := false
	for _, sig := range s.Signals {
		if sig.Severity == SeverityCritical {
			critical = true
		}
	}
	if !critical {
		t.Error("Expected a critical signal for zero claims")
	}
}

func TestScorer_UnresolvableCitations(t *testing.T) {
	result := &model.ValidationResult{
		ClaimsTotal: 4,
		ClaimsValid: 4,
		Unresolvable: []model.SourceReference{
			{SourceType: "news", Key: "news-9"},
			{SourceType: "macro", Key: "gdp@2024-01-01"},
		},
	}

	s := NewScorer().Calculate(result)
	// 40 coverage + 40 verification + 10 resolution
	if s.Index != 90 {
		t.Errorf("Expected index 90, got %d", s.Index)
	}
}

func TestScorer_AbstentionCapsConfidence(t *testing.T) {
	result := &model.ValidationResult{
		ClaimsTotal: 5,
		ClaimsValid: 5,
		Abstained:   []string{"consistency"},
	}

	s := NewScorer().Calculate(result)
	if s.Confidence != "medium" {
		t.Errorf("Abstentions must cap confidence at medium, got %s", s.Confidence)
	}
}
