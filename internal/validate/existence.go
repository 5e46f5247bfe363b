package validate

import (
	"context"
	"fmt"

	"github.com/jwhan/marketbrief/internal/source"
)

// ExistenceValidator independently resolves every declared citation from
// the structured citation array, not just citations bound to extracted
// claim spans. It catches citations attached to nothing and sources cited
// but never resolvable.
type ExistenceValidator struct {
	registry *source.Registry
}

// NewExistenceValidator creates a source-existence validator.
func NewExistenceValidator(reg *source.Registry) *ExistenceValidator {
	return &ExistenceValidator{registry: reg}
}

// Name returns the validator identifier.
func (v *ExistenceValidator) Name() string { return "existence" }

// Validate resolves each declared reference and collects the failures.
func (v *ExistenceValidator) Validate(ctx context.Context, input Input) (*Verdict, error) {
	verdict := &Verdict{Validator: v.Name()}

	for _, ref := range input.Citations {
		if _, err := v.registry.Resolve(ref); err != nil {
			verdict.Unresolvable = append(verdict.Unresolvable, ref)
			verdict.Feedback = append(verdict.Feedback,
				fmt.Sprintf("declared citation %s does not resolve to any loaded record", ref.String()))
		}
	}

	verdict.Pass = len(verdict.Unresolvable) == 0
	return verdict, nil
}
