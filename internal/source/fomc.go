package source

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwhan/marketbrief/internal/model"
)

// fomcEvent mirrors the JSON shape delivered by the policy-meeting adapter.
type fomcEvent struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Title     string `json:"title"`
	Decision  string `json:"decision"`
	Statement string `json:"statement"`
}

// FOMCSource holds policy-meeting events loaded from JSON exports.
// Natural key: the event id, or "fomc-<date>" when the export omits one.
type FOMCSource struct {
	records []model.SourceRecord
	byKey   map[string]int
}

// NewFOMCSource creates an empty policy-meeting source.
func NewFOMCSource() *FOMCSource {
	return &FOMCSource{byKey: make(map[string]int)}
}

// Type returns the source type identifier.
func (s *FOMCSource) Type() string { return "fomc" }

// Load reads policy-meeting JSON files (an array of events per file).
func (s *FOMCSource) Load(locator string, seen *DedupeIndex) error {
	return readJSONFiles(locator, func(data []byte, origin string) error {
		var events []fomcEvent
		if err := json.Unmarshal(data, &events); err != nil {
			return fmt.Errorf("parse %s: %w", origin, err)
		}
		for _, ev := range events {
			date, ok := parseDate(ev.Date)
			if !ok {
				continue
			}
			key := ev.ID
			if key == "" {
				key = "fomc-" + date.Format("2006-01-02")
			}
			if seen.Seen(key) {
				continue
			}
			rec := model.SourceRecord{
				SourceType: s.Type(),
				NaturalKey: key,
				AsOfDate:   date,
				Origin:     origin,
				Payload: map[string]string{
					"title":     ev.Title,
					"decision":  ev.Decision,
					"statement": ev.Statement,
				},
			}
			s.byKey[key] = len(s.records)
			s.records = append(s.records, rec)
		}
		return nil
	})
}

// Search performs keyword matching over titles, decisions and statements.
func (s *FOMCSource) Search(query string) []model.SourceRecord {
	return searchRecords(s.records, query)
}

// Resolve resolves an event lookup: natural key first, then title or
// decision match within the date window.
func (s *FOMCSource) Resolve(ref model.SourceReference) (*model.SourceRecord, error) {
	if idx, ok := s.byKey[strings.TrimSpace(ref.Key)]; ok {
		rec := s.records[idx]
		return &rec, nil
	}

	want := strings.ToLower(strings.TrimSpace(ref.Key))
	for i := range s.records {
		rec := s.records[i]
		if !withinRange(&rec, ref) {
			continue
		}
		if strings.Contains(strings.ToLower(rec.Payload["title"]), want) ||
			strings.Contains(strings.ToLower(rec.Payload["decision"]), want) {
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}
