// Package claimcheck turns a generated document into a judged set of
// source matches: it partitions text into atomic claims, resolves each
// attached reference through the source registry, and classifies every
// (claim, reference) pair.
package claimcheck

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jwhan/marketbrief/internal/model"
)

// refTagPattern matches the citation tag format emitted by generation:
// [REF: source_type | "key"] with an optional | from..to date range.
var refTagPattern = regexp.MustCompile(
	`\[REF:\s*([a-z_]+)\s*\|\s*"([^"]*)"(?:\s*\|\s*(\d{4}-\d{2}-\d{2})\.\.(\d{4}-\d{2}-\d{2}))?\s*\]`)

// minClaimLen filters out fragments too short to carry an assertion.
const minClaimLen = 15

// Extractor partitions document text into claims at sentence boundaries
// and binds citation tags to the span they appear in.
type Extractor struct{}

// NewExtractor creates a claim extractor.
func NewExtractor() *Extractor { return &Extractor{} }

// Extract splits the document into claims. Overlapping spans keep only
// the longest; strictly-contained shorter spans are discarded so the same
// assertion is not counted twice. A claim with zero references is kept;
// it is a citation gap, not a parse error.
func (e *Extractor) Extract(text string) []model.Claim {
	spans := splitSpans(text)

	claims := make([]model.Claim, 0, len(spans))
	for i, span := range spans {
		refs := parseRefs(span.text)
		clean := strings.TrimSpace(refTagPattern.ReplaceAllString(span.text, ""))
		clean = strings.Join(strings.Fields(clean), " ")
		if len(clean) < minClaimLen {
			continue
		}
		if !looksFactual(clean) {
			continue
		}
		claims = append(claims, model.Claim{
			Text:       clean,
			References: refs,
			Position:   i,
			Start:      span.start,
			End:        span.end,
		})
	}

	return dropContained(claims)
}

type span struct {
	text       string
	start, end int
}

// splitSpans partitions text at sentence and line boundaries.
func splitSpans(text string) []span {
	var spans []span
	start := 0
	depth := 0 // inside a [REF: ...] tag, don't split

	for i, r := range text {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '.', '!', '?', '\n':
			if depth > 0 {
				continue
			}
			// Avoid splitting decimals like "3.0%".
			if r == '.' && i+1 < len(text) && text[i+1] >= '0' && text[i+1] <= '9' {
				continue
			}
			s := strings.TrimSpace(text[start : i+1])
			if s != "" {
				spans = append(spans, span{text: s, start: start, end: i + 1})
			}
			start = i + 1
		}
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		spans = append(spans, span{text: rest, start: start, end: len(text)})
	}
	return spans
}

// looksFactual filters structural lines (headings, separators) that carry
// no assertion.
func looksFactual(s string) bool {
	trimmed := strings.TrimLeft(s, "#*->| ")
	if trimmed == "" {
		return false
	}
	return strings.ContainsAny(trimmed, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
}

// parseRefs extracts every citation tag inside a span.
func parseRefs(text string) []model.SourceReference {
	matches := refTagPattern.FindAllStringSubmatch(text, -1)
	refs := make([]model.SourceReference, 0, len(matches))
	for _, m := range matches {
		ref := model.SourceReference{
			SourceType: m[1],
			Key:        strings.TrimSpace(m[2]),
		}
		if m[3] != "" && m[4] != "" {
			if from, err := time.Parse("2006-01-02", m[3]); err == nil {
				if to, err := time.Parse("2006-01-02", m[4]); err == nil {
					ref.DateFrom = from
					ref.DateTo = to
				}
			}
		}
		refs = append(refs, ref)
	}
	return refs
}

// dropContained keeps the longest span among overlapping claims and
// discards spans strictly contained in another.
func dropContained(claims []model.Claim) []model.Claim {
	if len(claims) <= 1 {
		return claims
	}

	keep := make([]bool, len(claims))
	for i := range keep {
		keep[i] = true
	}
	for i := range claims {
		for j := range claims {
			if i == j || !keep[i] {
				continue
			}
			// i strictly contained in j
			if claims[j].Start <= claims[i].Start && claims[i].End <= claims[j].End &&
				(claims[j].End-claims[j].Start) > (claims[i].End-claims[i].Start) {
				keep[i] = false
			}
		}
	}

	var out []model.Claim
	for i, c := range claims {
		if keep[i] {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
