package source

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwhan/marketbrief/internal/model"
)

// newsItem mirrors the JSON shape delivered by the news adapter.
type newsItem struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Provider    string `json:"provider"`
	PublishedAt string `json:"published_at"`
	Summary     string `json:"summary"`
	URL         string `json:"url"`
}

// NewsSource holds news articles loaded from JSON exports.
// Natural key: "news-<id>". Content lookups resolve by id or exact title.
type NewsSource struct {
	records []model.SourceRecord
	byKey   map[string]int
}

// NewNewsSource creates an empty news source.
func NewNewsSource() *NewsSource {
	return &NewsSource{byKey: make(map[string]int)}
}

// Type returns the source type identifier.
func (s *NewsSource) Type() string { return "news" }

// Load reads news JSON files (an array of articles per file).
func (s *NewsSource) Load(locator string, seen *DedupeIndex) error {
	return readJSONFiles(locator, func(data []byte, origin string) error {
		var items []newsItem
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("parse %s: %w", origin, err)
		}
		for _, item := range items {
			key := fmt.Sprintf("news-%d", item.ID)
			if seen.Seen(key) {
				continue
			}
			date, _ := parseDate(item.PublishedAt)
			rec := model.SourceRecord{
				SourceType: s.Type(),
				NaturalKey: key,
				AsOfDate:   date,
				Origin:     origin,
				Payload: map[string]string{
					"title":    item.Title,
					"provider": item.Provider,
					"summary":  item.Summary,
					"url":      item.URL,
				},
			}
			s.byKey[key] = len(s.records)
			s.records = append(s.records, rec)
		}
		return nil
	})
}

// Search performs keyword matching over titles and summaries.
func (s *NewsSource) Search(query string) []model.SourceRecord {
	return searchRecords(s.records, query)
}

// Resolve resolves a content lookup: natural key, bare numeric id, or
// title match, in that order.
func (s *NewsSource) Resolve(ref model.SourceReference) (*model.SourceRecord, error) {
	key := strings.TrimSpace(ref.Key)
	if idx, ok := s.byKey[key]; ok {
		rec := s.records[idx]
		return &rec, nil
	}
	if idx, ok := s.byKey["news-"+key]; ok {
		rec := s.records[idx]
		return &rec, nil
	}

	want := strings.ToLower(key)
	for i := range s.records {
		rec := s.records[i]
		if !withinRange(&rec, ref) {
			continue
		}
		if strings.Contains(strings.ToLower(rec.Payload["title"]), want) {
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

// readJSONFiles reads every *.json under the locator (a file or a
// directory) and invokes fn once per file.
func readJSONFiles(locator string, fn func(data []byte, origin string) error) error {
	info, err := os.Stat(locator)
	if err != nil {
		return fmt.Errorf("stat locator: %w", err)
	}

	var files []string
	if info.IsDir() {
		matches, err := filepath.Glob(filepath.Join(locator, "*.json"))
		if err != nil {
			return fmt.Errorf("glob json files: %w", err)
		}
		files = matches
	} else {
		files = []string{locator}
	}

	if len(files) == 0 {
		return fmt.Errorf("no json files under %s", locator)
	}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		if err := fn(data, file); err != nil {
			return err
		}
	}
	return nil
}
