package source

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jwhan/marketbrief/internal/model"
)

// stubSource is a minimal in-memory source for registry tests.
type stubSource struct {
	typ     string
	records []model.SourceRecord
	loadErr error
}

func (s *stubSource) Type() string { return s.typ }

func (s *stubSource) Load(locator string, seen *DedupeIndex) error {
	if s.loadErr != nil {
		return s.loadErr
	}
	for _, rec := range s.records {
		seen.Seen(rec.NaturalKey)
	}
	return nil
}

func (s *stubSource) Search(query string) []model.SourceRecord {
	return searchRecords(s.records, query)
}

func (s *stubSource) Resolve(ref model.SourceReference) (*model.SourceRecord, error) {
	for i := range s.records {
		if s.records[i].NaturalKey == ref.Key {
			return &s.records[i], nil
		}
	}
	return nil, ErrNotFound
}

func stubRecord(typ, key string, payload map[string]string) model.SourceRecord {
	return model.SourceRecord{
		SourceType: typ,
		NaturalKey: key,
		Payload:    payload,
		AsOfDate:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestRegistry_LoadFailureIsolation(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubSource{typ: "macro", records: []model.SourceRecord{
		stubRecord("macro", "cpi@2024-03-15", map[string]string{"value": "3.2"}),
	}})
	reg.Register(&stubSource{typ: "news", loadErr: fmt.Errorf("corrupt file")})

	err := reg.Load(map[string]string{"macro": "macro.csv", "news": "news.json"})
	if err != nil {
		t.Fatalf("Expected load to succeed with one healthy source, got %v", err)
	}

	if len(reg.LoadErrors()) != 1 {
		t.Errorf("Expected 1 load error, got %d", len(reg.LoadErrors()))
	}
	if _, ok := reg.LoadErrors()["news"]; !ok {
		t.Error("Expected news to be marked unavailable")
	}
	if reg.Counts()["macro"] != 1 {
		t.Errorf("Expected 1 macro record, got %d", reg.Counts()["macro"])
	}

	// Unavailable type resolves to not found, not a hard failure.
	_, err = reg.Resolve(model.SourceReference{SourceType: "news", Key: "news-1"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unavailable source, got %v", err)
	}
}

func TestRegistry_LoadAllFailed(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubSource{typ: "macro", loadErr: fmt.Errorf("missing")})

	err := reg.Load(map[string]string{"macro": "macro.csv"})
	if err == nil {
		t.Fatal("Expected error when zero sources load")
	}
}

func TestRegistry_ResolveUnregisteredType(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Resolve(model.SourceReference{SourceType: "weather", Key: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unregistered type, got %v", err)
	}
}

func TestRegistry_SearchAcrossTypes(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubSource{typ: "macro", records: []model.SourceRecord{
		stubRecord("macro", "cpi@2024-03-15", map[string]string{"indicator": "CPI inflation"}),
	}})
	reg.Register(&stubSource{typ: "news", records: []model.SourceRecord{
		stubRecord("news", "news-1", map[string]string{"title": "Inflation cools in March"}),
	}})
	if err := reg.Load(map[string]string{"macro": "m", "news": "n"}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	hits := reg.Search("", "inflation")
	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits across types, got %d", len(hits))
	}

	hits = reg.Search("news", "inflation")
	if len(hits) != 1 || hits[0].SourceType != "news" {
		t.Errorf("Expected 1 news hit, got %d", len(hits))
	}

	if hits := reg.Search("weather", "storm"); hits != nil {
		t.Errorf("Expected nil for unknown type, got %d hits", len(hits))
	}
}

func TestDedupeIndex(t *testing.T) {
	idx := NewDedupeIndex()
	if idx.Seen("a") {
		t.Error("First occurrence should not be seen")
	}
	if !idx.Seen("a") {
		t.Error("Second occurrence should be seen")
	}
	idx.Seen("b")
	if idx.Len() != 2 {
		t.Errorf("Expected 2 distinct keys, got %d", idx.Len())
	}
}
