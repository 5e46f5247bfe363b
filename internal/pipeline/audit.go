package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/jwhan/marketbrief/internal/claimcheck"
	"github.com/jwhan/marketbrief/internal/model"
	"github.com/jwhan/marketbrief/internal/validate"
)

// Auditor re-validates an already written briefing against the loaded
// sources, without regenerating it. Citations are recovered from the
// inline reference tags since no tool log exists for a finished file.
type Auditor struct {
	aggregator *validate.Aggregator
	extractor  *claimcheck.Extractor
}

// NewAuditor wires an auditor over a validator panel.
func NewAuditor(agg *validate.Aggregator) *Auditor {
	return &Auditor{aggregator: agg, extractor: claimcheck.NewExtractor()}
}

// AuditText validates briefing text and returns the merged result.
func (a *Auditor) AuditText(ctx context.Context, text string) *model.ValidationResult {
	claims := a.extractor.Extract(text)
	return a.aggregator.Validate(ctx, validate.Input{
		Draft:     text,
		Claims:    claims,
		Citations: collectCitations(claims),
	})
}

// AuditFile validates the briefing stored at path.
func (a *Auditor) AuditFile(ctx context.Context, path string) (*model.ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read briefing: %w", err)
	}
	return a.AuditText(ctx, string(data)), nil
}

// collectCitations gathers the distinct references attached to claims.
func collectCitations(claims []model.Claim) []model.SourceReference {
	seen := make(map[string]bool)
	var refs []model.SourceReference
	for _, c := range claims {
		for _, ref := range c.References {
			key := ref.SourceType + "|" + ref.Key
			if seen[key] {
				continue
			}
			seen[key] = true
			refs = append(refs, ref)
		}
	}
	return refs
}
