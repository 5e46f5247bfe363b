// Package tools exposes the source registry to the reasoning engine as a
// fixed catalog of named, schema-constrained tools. Provenance is
// established at read time: every record a tool returns is paired with the
// SourceReference that will later resolve it.
package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/jwhan/marketbrief/internal/engine"
	"github.com/jwhan/marketbrief/internal/model"
	"github.com/jwhan/marketbrief/internal/source"
)

// maxToolRecords bounds how many records one invocation returns.
const maxToolRecords = 10

// handler executes one tool against the registry.
type handler func(reg *source.Registry, args map[string]any) ([]model.SourceRecord, error)

// catalogEntry pairs a tool definition with its handler. Dispatch is by
// name through a fixed registration table; unknown names produce a
// structured error returned to the engine, never a crash.
type catalogEntry struct {
	def     engine.Tool
	handler handler
}

func querySchema(desc string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": desc,
			},
		},
	}
}

// catalog is the fixed tool table. One or more tools per source type plus
// a cross-source free-text search.
func catalog() []catalogEntry {
	return []catalogEntry{
		{
			def: engine.Tool{
				Name:        "get_market_summary",
				Description: "Get the market summary for a trading day. Pass a date (YYYY-MM-DD) or omit for the latest day.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"date": map[string]any{"type": "string", "description": "Trading day, YYYY-MM-DD. Omit for latest."},
					},
				},
			},
			handler: func(reg *source.Registry, args map[string]any) ([]model.SourceRecord, error) {
				key := stringArg(args, "date")
				if key == "" {
					key = "latest"
				}
				rec, err := reg.Resolve(model.SourceReference{SourceType: "market", Key: key})
				if err != nil {
					return nil, nil // empty result, not an error
				}
				return []model.SourceRecord{*rec}, nil
			},
		},
		{
			def: engine.Tool{
				Name:        "get_macro_indicators",
				Description: "Search macro indicator readings (CPI, unemployment, rates, ...) by name or keyword.",
				Parameters:  querySchema("Indicator name or keyword, e.g. \"CPI\"."),
			},
			handler: searchHandler("macro"),
		},
		{
			def: engine.Tool{
				Name:        "get_calendar_events",
				Description: "Search upcoming economic calendar events by keyword.",
				Parameters:  querySchema("Event keyword, e.g. \"nonfarm payrolls\"."),
			},
			handler: searchHandler("calendar"),
		},
		{
			def: engine.Tool{
				Name:        "get_news_articles",
				Description: "Search news articles by keyword.",
				Parameters:  querySchema("Headline or topic keyword."),
			},
			handler: searchHandler("news"),
		},
		{
			def: engine.Tool{
				Name:        "get_fomc_events",
				Description: "Search policy meeting (FOMC) events and decisions by keyword.",
				Parameters:  querySchema("Meeting or decision keyword, e.g. \"rate decision\"."),
			},
			handler: searchHandler("fomc"),
		},
		{
			def: engine.Tool{
				Name:        "search_sources",
				Description: "Free-text search across all loaded source types.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query":       map[string]any{"type": "string", "description": "Search keywords."},
						"source_type": map[string]any{"type": "string", "description": "Optional: restrict to one source type."},
					},
					"required": []string{"query"},
				},
			},
			handler: func(reg *source.Registry, args map[string]any) ([]model.SourceRecord, error) {
				query := stringArg(args, "query")
				if strings.TrimSpace(query) == "" {
					return nil, fmt.Errorf("query is required")
				}
				return reg.Search(stringArg(args, "source_type"), query), nil
			},
		},
	}
}

func searchHandler(sourceType string) handler {
	return func(reg *source.Registry, args map[string]any) ([]model.SourceRecord, error) {
		query := stringArg(args, "query")
		if strings.TrimSpace(query) == "" {
			return reg.Search(sourceType, ""), nil
		}
		return reg.Search(sourceType, query), nil
	}
}

func stringArg(args map[string]any, name string) string {
	if args == nil {
		return ""
	}
	if v, ok := args[name].(string); ok {
		return v
	}
	return ""
}

// referenceFor builds the citation a record will later resolve under.
func referenceFor(rec model.SourceRecord) model.SourceReference {
	title := rec.Field("title")
	if title == "" {
		title = rec.Field("event")
	}
	if title == "" {
		title = rec.Field("indicator")
	}
	return model.SourceReference{
		SourceType: rec.SourceType,
		Key:        rec.NaturalKey,
		Title:      title,
	}
}

// now is injectable for tests.
var now = time.Now
