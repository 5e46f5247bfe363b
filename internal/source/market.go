package source

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwhan/marketbrief/internal/model"
)

// marketDay mirrors the JSON shape delivered by the market-summary adapter.
type marketDay struct {
	Date      string `json:"date"`
	Close     string `json:"close"`
	ChangePct string `json:"change_pct"`
	Volume    string `json:"volume"`
	Breadth   string `json:"breadth"`
	Notes     string `json:"notes"`
}

// MarketSource holds one market summary record per trading day.
// Natural key: the date in YYYY-MM-DD form; "latest" resolves to the most
// recent day loaded.
type MarketSource struct {
	records []model.SourceRecord
	byKey   map[string]int
	latest  string
}

// NewMarketSource creates an empty market summary source.
func NewMarketSource() *MarketSource {
	return &MarketSource{byKey: make(map[string]int)}
}

// Type returns the source type identifier.
func (s *MarketSource) Type() string { return "market" }

// Load reads market summary JSON files (an array of days per file).
func (s *MarketSource) Load(locator string, seen *DedupeIndex) error {
	return readJSONFiles(locator, func(data []byte, origin string) error {
		var days []marketDay
		if err := json.Unmarshal(data, &days); err != nil {
			return fmt.Errorf("parse %s: %w", origin, err)
		}
		for _, day := range days {
			date, ok := parseDate(day.Date)
			if !ok {
				continue
			}
			key := date.Format("2006-01-02")
			if seen.Seen(key) {
				continue
			}
			rec := model.SourceRecord{
				SourceType: s.Type(),
				NaturalKey: key,
				AsOfDate:   date,
				Origin:     origin,
				Payload: map[string]string{
					"close":      day.Close,
					"change_pct": day.ChangePct,
					"volume":     day.Volume,
					"breadth":    day.Breadth,
					"notes":      day.Notes,
					"value":      day.Close,
				},
			}
			s.byKey[key] = len(s.records)
			s.records = append(s.records, rec)
			if key > s.latest {
				s.latest = key
			}
		}
		return nil
	})
}

// Search performs keyword matching over summary fields.
func (s *MarketSource) Search(query string) []model.SourceRecord {
	return searchRecords(s.records, query)
}

// Resolve resolves by date key, with "latest" as an alias for the most
// recent day loaded.
func (s *MarketSource) Resolve(ref model.SourceReference) (*model.SourceRecord, error) {
	key := strings.TrimSpace(ref.Key)
	if strings.EqualFold(key, "latest") {
		key = s.latest
	}
	if idx, ok := s.byKey[key]; ok {
		rec := s.records[idx]
		if withinRange(&rec, ref) {
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}
