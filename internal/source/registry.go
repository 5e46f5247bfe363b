package source

import (
	"fmt"
	"sort"

	"github.com/jwhan/marketbrief/internal/model"
)

// Registry maps source_type strings to source implementations. Adding a
// new source type requires registering it here and nothing else.
//
// The registry is read-only after Load and safe for concurrent queries.
type Registry struct {
	sources     map[string]Source
	unavailable map[string]error
	counts      map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources:     make(map[string]Source),
		unavailable: make(map[string]error),
		counts:      make(map[string]int),
	}
}

// Register adds a source implementation, replacing any prior one for the
// same type.
func (r *Registry) Register(s Source) {
	r.sources[s.Type()] = s
}

// Types returns the registered source types in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.sources))
	for t := range r.sources {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Load loads every registered source from its locator. A per-type failure
// marks that type unavailable for the rest of the run (its resolves return
// ErrNotFound) rather than aborting. Load returns an error only when zero
// sources loaded successfully.
func (r *Registry) Load(locators map[string]string) error {
	loaded := 0
	for sourceType, locator := range locators {
		s, ok := r.sources[sourceType]
		if !ok {
			r.unavailable[sourceType] = fmt.Errorf("no source registered for type %q", sourceType)
			continue
		}
		seen := NewDedupeIndex()
		if err := s.Load(locator, seen); err != nil {
			r.unavailable[sourceType] = fmt.Errorf("load %s from %s: %w", sourceType, locator, err)
			continue
		}
		r.counts[sourceType] = seen.Len()
		loaded++
	}
	if loaded == 0 {
		return fmt.Errorf("no sources loaded successfully (%d locators)", len(locators))
	}
	return nil
}

// Counts returns the number of records loaded per source type.
func (r *Registry) Counts() map[string]int {
	out := make(map[string]int, len(r.counts))
	for k, v := range r.counts {
		out[k] = v
	}
	return out
}

// LoadErrors returns the per-type load failures, keyed by source type.
func (r *Registry) LoadErrors() map[string]error {
	out := make(map[string]error, len(r.unavailable))
	for k, v := range r.unavailable {
		out[k] = v
	}
	return out
}

// Resolve resolves a reference through the source that owns its type.
// Unregistered or unavailable source types resolve to ErrNotFound; the
// caller records a NOT_FOUND verdict instead of treating it as an engine
// failure.
func (r *Registry) Resolve(ref model.SourceReference) (*model.SourceRecord, error) {
	if _, bad := r.unavailable[ref.SourceType]; bad {
		return nil, ErrNotFound
	}
	s, ok := r.sources[ref.SourceType]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Resolve(ref)
}

// Search queries one source type, or all of them when sourceType is empty.
// Cross-source results preserve per-source ranking, grouped by type order.
func (r *Registry) Search(sourceType, query string) []model.SourceRecord {
	if sourceType != "" {
		s, ok := r.sources[sourceType]
		if !ok {
			return nil
		}
		if _, bad := r.unavailable[sourceType]; bad {
			return nil
		}
		return s.Search(query)
	}

	var out []model.SourceRecord
	for _, t := range r.Types() {
		if _, bad := r.unavailable[t]; bad {
			continue
		}
		out = append(out, r.sources[t].Search(query)...)
	}
	return out
}
