package claimcheck

import (
	"testing"
	"time"
)

func TestExtractor_TaggedClaims(t *testing.T) {
	text := `The S&P 500 closed at 5117.09, down 0.6% on the day [REF: market | "2024-03-15"]. ` +
		`CPI rose 3.2% year over year in February [REF: macro | "cpi@2024-03-12" | 2024-03-10..2024-03-14].`

	claims := NewExtractor().Extract(text)
	if len(claims) != 2 {
		t.Fatalf("Expected 2 claims, got %d", len(claims))
	}

	first := claims[0]
	if len(first.References) != 1 {
		t.Fatalf("Expected 1 reference on first claim, got %d", len(first.References))
	}
	if first.References[0].SourceType != "market" || first.References[0].Key != "2024-03-15" {
		t.Errorf("Unexpected reference: %+v", first.References[0])
	}
	if first.References[0].HasDateRange() {
		t.Error("First reference should not carry a date range")
	}

	second := claims[1]
	ref := second.References[0]
	if !ref.HasDateRange() {
		t.Fatal("Expected date range on second reference")
	}
	if ref.DateFrom != time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC) {
		t.Errorf("Wrong DateFrom: %v", ref.DateFrom)
	}
	if ref.DateTo != time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC) {
		t.Errorf("Wrong DateTo: %v", ref.DateTo)
	}

	// Tags are stripped from the claim text.
	for _, c := range claims {
		if containsTag(c.Text) {
			t.Errorf("Claim text still contains a tag: %q", c.Text)
		}
	}
}

func containsTag(s string) bool {
	return refTagPattern.MatchString(s)
}

func TestExtractor_UncitedClaimKept(t *testing.T) {
	text := `Treasury yields moved higher across the curve on Friday afternoon.`

	claims := NewExtractor().Extract(text)
	if len(claims) != 1 {
		t.Fatalf("Expected 1 claim, got %d", len(claims))
	}
	if len(claims[0].References) != 0 {
		t.Errorf("Expected zero references, got %d", len(claims[0].References))
	}
}

func TestExtractor_DecimalNotSplit(t *testing.T) {
	text := `Headline inflation printed 3.2% while core held at 3.8% [REF: macro | "cpi@2024-03-12"].`

	claims := NewExtractor().Extract(text)
	if len(claims) != 1 {
		t.Fatalf("Decimal points split the sentence: got %d claims", len(claims))
	}
}

func TestExtractor_StructuralLinesDropped(t *testing.T) {
	text := "## Market Summary\n\n---\n\nEquities finished the week lower across every major index.\n"

	claims := NewExtractor().Extract(text)
	// The heading survives the factual filter (it has letters); the
	// separator must not.
	if len(claims) != 2 {
		t.Fatalf("Expected 2 claims, got %d", len(claims))
	}
	for _, c := range claims {
		if c.Text == "---" {
			t.Errorf("Separator kept as claim")
		}
	}
}

func TestExtractor_ShortFragmentsDropped(t *testing.T) {
	text := `Yes. Markets fell broadly on renewed rate concerns.`

	claims := NewExtractor().Extract(text)
	if len(claims) != 1 {
		t.Fatalf("Expected 1 claim, got %d", len(claims))
	}
	if claims[0].Text != "Markets fell broadly on renewed rate concerns." {
		t.Errorf("Unexpected claim text: %q", claims[0].Text)
	}
}

func TestDropContained(t *testing.T) {
	text := `The index fell 0.6% to 5117.09 on heavy volume [REF: market | "2024-03-15"].`
	claims := NewExtractor().Extract(text)
	if len(claims) != 1 {
		t.Fatalf("Expected 1 claim, got %d", len(claims))
	}

	// Positions are ordered by start offset after the containment pass.
	multi := NewExtractor().Extract(
		`First sentence about the market close today [REF: market | "latest"]. ` +
			`Second sentence about macro indicators this week [REF: macro | "cpi@2024-03-12"].`)
	if len(multi) != 2 {
		t.Fatalf("Expected 2 claims, got %d", len(multi))
	}
	if multi[0].Start > multi[1].Start {
		t.Error("Claims not ordered by start offset")
	}
}
