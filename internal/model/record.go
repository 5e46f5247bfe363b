package model

import "time"

// SourceRecord is a normalized unit of evidence held by a source shard.
// Records are immutable once loaded.
type SourceRecord struct {
	SourceType string            `json:"source_type"`          // e.g., "macro", "news", "calendar"
	NaturalKey string            `json:"natural_key"`          // Identifier within the source type
	Payload    map[string]string `json:"payload"`              // Denormalized fields (value, unit, title, ...)
	AsOfDate   time.Time         `json:"as_of_date"`           // Date the record is valid for
	Origin     string            `json:"origin,omitempty"`     // File or locator the record came from
}

// Field returns a payload field, empty string if absent.
func (r *SourceRecord) Field(name string) string {
	if r.Payload == nil {
		return ""
	}
	return r.Payload[name]
}

// SourceReference is a claim's pointer into evidence, emitted during
// generation and consumed (never mutated) during validation.
//
// Three shapes occur in practice:
//   - content lookup: Key is a record identifier (news id, event id)
//   - time-series lookup: Key is an indicator name plus a date range
//   - event lookup: Key is an event identifier
type SourceReference struct {
	SourceType string    `json:"source_type"`
	Key        string    `json:"key"`             // Natural key or query string
	Title      string    `json:"title,omitempty"` // Display title from the tool result
	DateFrom   time.Time `json:"date_from,omitempty"`
	DateTo     time.Time `json:"date_to,omitempty"`
}

// HasDateRange reports whether the reference carries a time-series window.
func (r SourceReference) HasDateRange() bool {
	return !r.DateFrom.IsZero() && !r.DateTo.IsZero()
}

// String renders the reference in the citation tag form used in drafts.
func (r SourceReference) String() string {
	s := "[REF: " + r.SourceType + " | \"" + r.Key + "\""
	if r.HasDateRange() {
		s += " | " + r.DateFrom.Format("2006-01-02") + ".." + r.DateTo.Format("2006-01-02")
	}
	return s + "]"
}
