// Package source provides uniform, queryable access to the heterogeneous
// data sources a briefing is grounded on. Each concrete source type loads
// its own records behind one capability interface; the registry maps
// source_type strings to implementations so callers never depend on a
// source's shape.
package source

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/jwhan/marketbrief/internal/model"
)

// ErrNotFound is returned by Resolve when a reference does not match any
// loaded record. It is an expected outcome, not a failure.
var ErrNotFound = errors.New("source record not found")

// ErrUnavailable is returned when a source type failed to load and was
// marked unavailable for the rest of the run.
var ErrUnavailable = errors.New("source type unavailable")

// Source is the capability set every source type implements.
type Source interface {
	// Type returns the source type identifier (e.g., "macro", "news").
	Type() string

	// Load fills the internal index from the given locator. The dedupe
	// index is scoped to the load call; no process-wide state.
	Load(locator string, seen *DedupeIndex) error

	// Search performs keyword matching over denormalized text fields and
	// returns ranked candidates. An empty result is a valid outcome.
	Search(query string) []model.SourceRecord

	// Resolve returns the record a reference points at, or ErrNotFound.
	// Resolve is deterministic for identical inputs given an unchanged load.
	Resolve(ref model.SourceReference) (*model.SourceRecord, error)
}

// DedupeIndex tracks natural keys seen during one load pass. It is passed
// into and returned from loading, replacing any global seen-set, so
// re-runs and parallel loads of independent source types stay clean.
type DedupeIndex struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDedupeIndex creates an empty dedupe index.
func NewDedupeIndex() *DedupeIndex {
	return &DedupeIndex{seen: make(map[string]struct{})}
}

// Seen records the key and reports whether it was already present.
func (d *DedupeIndex) Seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

// Len returns the number of distinct keys recorded.
func (d *DedupeIndex) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// searchRecords is the shared substring search used by all source types.
// Records are ranked by the number of query terms they contain.
func searchRecords(records []model.SourceRecord, query string) []model.SourceRecord {
	terms := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	if len(terms) == 0 {
		return nil
	}

	type hit struct {
		rec   model.SourceRecord
		score int
	}

	var hits []hit
	for _, rec := range records {
		text := denormalize(rec)
		score := 0
		for _, term := range terms {
			if strings.Contains(text, term) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, hit{rec: rec, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]model.SourceRecord, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.rec)
	}
	return out
}

// denormalize flattens a record into one lowercase string for matching.
func denormalize(rec model.SourceRecord) string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(rec.NaturalKey))
	for _, v := range rec.Payload {
		sb.WriteByte(' ')
		sb.WriteString(strings.ToLower(v))
	}
	return sb.String()
}

// withinRange reports whether the record's as-of date falls inside the
// reference window. References without a window always pass.
func withinRange(rec *model.SourceRecord, ref model.SourceReference) bool {
	if !ref.HasDateRange() {
		return true
	}
	d := rec.AsOfDate
	return !d.Before(ref.DateFrom) && !d.After(ref.DateTo)
}
