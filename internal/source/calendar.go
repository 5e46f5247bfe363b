package source

import (
	"strings"

	"github.com/jwhan/marketbrief/internal/model"
)

// CalendarSource holds economic calendar events loaded from CSV exports.
// Natural key: "<event-slug>@<date>".
type CalendarSource struct {
	records []model.SourceRecord
	byKey   map[string]int
}

// NewCalendarSource creates an empty calendar source.
func NewCalendarSource() *CalendarSource {
	return &CalendarSource{byKey: make(map[string]int)}
}

// Type returns the source type identifier.
func (s *CalendarSource) Type() string { return "calendar" }

// Load reads calendar CSV files. Expected columns: date, country, event,
// actual, previous, forecast, importance.
func (s *CalendarSource) Load(locator string, seen *DedupeIndex) error {
	return readCSVFiles(locator, func(row csvRow, origin string) error {
		event := row["event"]
		date, ok := parseDate(row["date"])
		if event == "" || !ok {
			return nil // skip incomplete rows
		}

		key := slugify(event) + "@" + date.Format("2006-01-02")
		if seen.Seen(key) {
			return nil
		}

		rec := model.SourceRecord{
			SourceType: s.Type(),
			NaturalKey: key,
			AsOfDate:   date,
			Origin:     origin,
			Payload: map[string]string{
				"event":      event,
				"country":    row["country"],
				"actual":     row["actual"],
				"previous":   row["previous"],
				"forecast":   row["forecast"],
				"importance": row["importance"],
				"value":      row["actual"],
				"unit":       row["unit"],
			},
		}
		s.byKey[key] = len(s.records)
		s.records = append(s.records, rec)
		return nil
	})
}

// Search performs keyword matching over events.
func (s *CalendarSource) Search(query string) []model.SourceRecord {
	return searchRecords(s.records, query)
}

// Resolve resolves an event lookup: exact natural key first, then event
// name match within the reference's date window.
func (s *CalendarSource) Resolve(ref model.SourceReference) (*model.SourceRecord, error) {
	if idx, ok := s.byKey[ref.Key]; ok {
		rec := s.records[idx]
		if withinRange(&rec, ref) {
			return &rec, nil
		}
		return nil, ErrNotFound
	}

	want := strings.ToLower(strings.TrimSpace(ref.Key))
	for i := range s.records {
		rec := s.records[i]
		if !withinRange(&rec, ref) {
			continue
		}
		if strings.Contains(strings.ToLower(rec.Payload["event"]), want) {
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}
