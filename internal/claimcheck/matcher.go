package claimcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jwhan/marketbrief/internal/cache"
	"github.com/jwhan/marketbrief/internal/engine"
	"github.com/jwhan/marketbrief/internal/model"
	"github.com/jwhan/marketbrief/internal/source"
)

// Judge is the single engine capability the matcher needs: a judgment
// call on a qualitative claim against fixture evidence. Keeping it an
// interface makes the judgment logic swappable and testable offline.
type Judge interface {
	Judge(ctx context.Context, claim string, evidence model.SourceRecord) (*engine.JudgeVerdict, error)
}

// Matcher classifies (claim, reference) pairs against resolved records.
type Matcher struct {
	registry  *source.Registry
	judge     Judge
	verdicts  cache.Cache
	tolerance float64
}

// NewMatcher creates a matcher. Judge verdicts are cached so validating
// the same immutable document twice yields identical match sets.
func NewMatcher(reg *source.Registry, judge Judge, verdicts cache.Cache, tolerance float64) *Matcher {
	if tolerance <= 0 {
		tolerance = 0.01
	}
	return &Matcher{
		registry:  reg,
		judge:     judge,
		verdicts:  verdicts,
		tolerance: tolerance,
	}
}

// Check produces one SourceMatch per (claim, reference) pair.
func (m *Matcher) Check(ctx context.Context, claims []model.Claim) []model.SourceMatch {
	var matches []model.SourceMatch
	for _, claim := range claims {
		for _, ref := range claim.References {
			matches = append(matches, m.checkPair(ctx, claim, ref))
		}
	}
	return matches
}

// ClaimStatus merges a claim's pair verdicts into one claim-level status:
// the weakest among its references.
func ClaimStatus(claim model.Claim, matches []model.SourceMatch) (model.MatchStatus, bool) {
	status := model.StatusValid
	found := false
	for _, sm := range matches {
		if sm.Claim != claim.Text {
			continue
		}
		found = true
		status = status.Worst(sm.Status)
	}
	return status, found
}

func (m *Matcher) checkPair(ctx context.Context, claim model.Claim, ref model.SourceReference) model.SourceMatch {
	sm := model.SourceMatch{Claim: claim.Text, Reference: ref}

	rec, err := m.registry.Resolve(ref)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) || errors.Is(err, source.ErrUnavailable) {
			sm.Status = model.StatusNotFound
			sm.Explanation = fmt.Sprintf("no %s record matches %q", ref.SourceType, ref.Key)
			return sm
		}
		sm.Status = model.StatusNotFound
		sm.Explanation = fmt.Sprintf("resolve failed: %v", err)
		return sm
	}

	sm.Record = rec

	// A reference window the resolved record falls outside of is a
	// factual defect, not a miss.
	if ref.HasDateRange() && (rec.AsOfDate.Before(ref.DateFrom) || rec.AsOfDate.After(ref.DateTo)) {
		sm.Status = model.StatusInvalid
		sm.Confidence = 0.9
		sm.Explanation = fmt.Sprintf("record is dated %s, outside the cited window %s..%s",
			rec.AsOfDate.Format("2006-01-02"), ref.DateFrom.Format("2006-01-02"), ref.DateTo.Format("2006-01-02"))
		return sm
	}

	claimNums := extractNumbers(claim.Text)
	recNums := recordNumbers(rec)

	if len(claimNums) > 0 && len(recNums) > 0 {
		return m.compareNumeric(sm, claim, rec, claimNums, recNums)
	}

	// Qualitative claim without a crisp comparison predicate: delegate
	// the judgment call to the engine.
	return m.judgePair(ctx, sm, claim, rec)
}

func (m *Matcher) compareNumeric(sm model.SourceMatch, claim model.Claim, rec *model.SourceRecord, claimNums, recNums []number) model.SourceMatch {
	var unmatched []number
	for _, cn := range claimNums {
		supported := false
		for _, rn := range recNums {
			if withinTolerance(cn.value, rn.value, m.tolerance) {
				supported = true
				break
			}
		}
		if !supported {
			unmatched = append(unmatched, cn)
		}
	}

	// Every number the claim states must be backed by the record. A
	// claim carrying even one figure the record cannot account for is
	// not fully supported, and one whose figures all miss, or that
	// leaves the record's primary value unaccounted for, contradicts it.
	if len(unmatched) > 0 {
		primarySupported := false
		for _, cn := range claimNums {
			if withinTolerance(cn.value, recNums[0].value, m.tolerance) {
				primarySupported = true
				break
			}
		}
		if !primarySupported {
			sm.Status = model.StatusInvalid
			sm.Confidence = 0.9
			sm.Explanation = fmt.Sprintf("claim states %s but the record holds %s",
				formatNumbers(claimNums), formatNumbers(recNums))
			sm.Correction = fmt.Sprintf("use the recorded value %s", recNums[0].raw)
			return sm
		}
		sm.Status = model.StatusPartial
		sm.Confidence = 0.6
		sm.Explanation = fmt.Sprintf("the record does not support %s", formatNumbers(unmatched))
		sm.Correction = fmt.Sprintf("drop or re-source %s; the record holds %s",
			formatNumbers(unmatched), formatNumbers(recNums))
		return sm
	}

	// Units must line up for a full match. A record that carries a unit
	// the claim never states is only partially supported.
	if unit := rec.Field("unit"); unit != "" && !claimMentionsUnit(claim.Text, unit) {
		sm.Status = model.StatusPartial
		sm.Confidence = 0.6
		sm.Explanation = fmt.Sprintf("value matches but the unit (%s) is not stated in the claim", unit)
		return sm
	}

	sm.Status = model.StatusValid
	sm.Confidence = 0.95
	sm.Explanation = fmt.Sprintf("all %d numeric values match the record within tolerance", len(claimNums))
	return sm
}

func (m *Matcher) judgePair(ctx context.Context, sm model.SourceMatch, claim model.Claim, rec *model.SourceRecord) model.SourceMatch {
	if verdict, ok := m.cachedVerdict(claim.Text, rec); ok {
		return applyVerdict(sm, verdict)
	}

	if m.judge == nil {
		sm.Status = model.StatusPartial
		sm.Confidence = 0.5
		sm.Explanation = "qualitative claim; no judge configured"
		return sm
	}

	verdict, err := m.judge.Judge(ctx, claim.Text, *rec)
	if err != nil {
		sm.Status = model.StatusPartial
		sm.Confidence = 0.4
		sm.Explanation = fmt.Sprintf("judgment unavailable: %v", err)
		return sm
	}

	m.storeVerdict(claim.Text, rec, verdict)
	return applyVerdict(sm, verdict)
}

// applyVerdict maps a judge verdict onto the match, enforcing the
// invariant that VALID requires confidence at or above the threshold.
func applyVerdict(sm model.SourceMatch, v *engine.JudgeVerdict) model.SourceMatch {
	sm.Status = v.Status
	sm.Confidence = v.Confidence
	sm.Explanation = v.Explanation
	sm.Correction = v.Correction
	if sm.Status == model.StatusValid && sm.Confidence < model.ValidThreshold {
		sm.Status = model.StatusPartial
	}
	if sm.Status == model.StatusNotFound {
		// The record did resolve; a judge cannot un-resolve it.
		sm.Status = model.StatusPartial
	}
	return sm
}

func (m *Matcher) cachedVerdict(claim string, rec *model.SourceRecord) (*engine.JudgeVerdict, bool) {
	if m.verdicts == nil {
		return nil, false
	}
	data, ok := m.verdicts.Get(verdictKey(claim, rec))
	if !ok {
		return nil, false
	}
	var v engine.JudgeVerdict
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false
	}
	return &v, true
}

func (m *Matcher) storeVerdict(claim string, rec *model.SourceRecord, v *engine.JudgeVerdict) {
	if m.verdicts == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = m.verdicts.Set(verdictKey(claim, rec), data, 0)
}

func verdictKey(claim string, rec *model.SourceRecord) string {
	fields := make([]string, 0, len(rec.Payload))
	for k, v := range rec.Payload {
		fields = append(fields, k+"="+v)
	}
	sort.Strings(fields)
	return cache.Key(append([]string{claim, rec.SourceType, rec.NaturalKey}, fields...)...)
}

// number is a numeric value parsed out of text, with the raw form kept
// for explanations.
type number struct {
	value float64
	raw   string
}

var numberPattern = regexp.MustCompile(`-?\d+(?:,\d{3})*(?:\.\d+)?%?`)

// extractNumbers pulls numeric values out of claim text, skipping years
// and date fragments.
func extractNumbers(text string) []number {
	var out []number
	for _, raw := range numberPattern.FindAllString(text, -1) {
		cleaned := strings.TrimSuffix(strings.ReplaceAll(raw, ",", ""), "%")
		v, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			continue
		}
		// Bare 4-digit integers read as years, not measurements.
		if !strings.Contains(cleaned, ".") && !strings.HasSuffix(raw, "%") && v >= 1900 && v <= 2100 {
			continue
		}
		out = append(out, number{value: v, raw: raw})
	}
	return out
}

// recordNumbers pulls numeric values out of a record's payload.
func recordNumbers(rec *model.SourceRecord) []number {
	var out []number
	for _, field := range []string{"value", "actual", "close", "change_pct", "previous", "forecast"} {
		raw := rec.Field(field)
		if raw == "" {
			continue
		}
		cleaned := strings.TrimSuffix(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""), "%")
		v, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			continue
		}
		out = append(out, number{value: v, raw: raw})
	}
	return out
}

func withinTolerance(a, b, tolerance float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	scale := b
	if scale < 0 {
		scale = -scale
	}
	if scale < 1 {
		scale = 1
	}
	return diff <= tolerance*scale
}

func claimMentionsUnit(text, unit string) bool {
	u := strings.ToLower(strings.TrimSpace(unit))
	t := strings.ToLower(text)
	if u == "%" || u == "percent" || u == "pct" {
		return strings.Contains(t, "%") || strings.Contains(t, "percent")
	}
	return strings.Contains(t, u)
}

func formatNumbers(nums []number) string {
	parts := make([]string, 0, len(nums))
	for _, n := range nums {
		parts = append(parts, n.raw)
	}
	return strings.Join(parts, ", ")
}
