package source

import (
	"strings"

	"github.com/jwhan/marketbrief/internal/model"
)

// MacroSource holds macro indicator readings loaded from CSV exports.
// Natural key: "<indicator-slug>@<date>". Time-series lookups resolve by
// indicator name plus a date range.
type MacroSource struct {
	records []model.SourceRecord
	byKey   map[string]int
}

// NewMacroSource creates an empty macro indicator source.
func NewMacroSource() *MacroSource {
	return &MacroSource{byKey: make(map[string]int)}
}

// Type returns the source type identifier.
func (s *MacroSource) Type() string { return "macro" }

// Load reads indicator CSV files. Expected columns: indicator, country,
// value, unit, date.
func (s *MacroSource) Load(locator string, seen *DedupeIndex) error {
	return readCSVFiles(locator, func(row csvRow, origin string) error {
		name := row["indicator"]
		date, ok := parseDate(row["date"])
		if name == "" || !ok {
			return nil
		}

		key := slugify(name) + "@" + date.Format("2006-01-02")
		if seen.Seen(key) {
			return nil
		}

		rec := model.SourceRecord{
			SourceType: s.Type(),
			NaturalKey: key,
			AsOfDate:   date,
			Origin:     origin,
			Payload: map[string]string{
				"indicator": name,
				"country":   row["country"],
				"value":     row["value"],
				"unit":      row["unit"],
				"previous":  row["previous"],
			},
		}
		s.byKey[key] = len(s.records)
		s.records = append(s.records, rec)
		return nil
	})
}

// Search performs keyword matching over indicators.
func (s *MacroSource) Search(query string) []model.SourceRecord {
	return searchRecords(s.records, query)
}

// Resolve resolves a time-series lookup: exact natural key first, then the
// most recent reading of the named indicator inside the date window. The
// latest-inside-window pick keeps resolution deterministic for an
// unchanged load.
func (s *MacroSource) Resolve(ref model.SourceReference) (*model.SourceRecord, error) {
	if idx, ok := s.byKey[ref.Key]; ok {
		rec := s.records[idx]
		if withinRange(&rec, ref) {
			return &rec, nil
		}
		return nil, ErrNotFound
	}

	want := strings.ToLower(strings.TrimSpace(ref.Key))
	var best *model.SourceRecord
	for i := range s.records {
		rec := s.records[i]
		if !withinRange(&rec, ref) {
			continue
		}
		name := strings.ToLower(rec.Payload["indicator"])
		if name != want && !strings.Contains(name, want) {
			continue
		}
		if best == nil || rec.AsOfDate.After(best.AsOfDate) {
			r := rec
			best = &r
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}
