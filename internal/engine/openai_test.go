package engine

import (
	"testing"

	"github.com/jwhan/marketbrief/internal/model"
)

func TestParseJudgeVerdict(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    model.MatchStatus
		wantErr bool
	}{
		{
			name:  "plain json",
			input: `{"status": "valid", "confidence": 0.9, "explanation": "matches the record"}`,
			want:  model.StatusValid,
		},
		{
			name:  "fenced json",
			input: "```json\n{\"status\": \"invalid\", \"confidence\": 0.85, \"suggested_correction\": \"use 3.2%\"}\n```",
			want:  model.StatusInvalid,
		},
		{
			name:  "surrounded by prose",
			input: `Here is my verdict: {"status": "partial", "confidence": 0.6} as requested.`,
			want:  model.StatusPartial,
		},
		{
			name:    "no json",
			input:   "The claim looks fine to me.",
			wantErr: true,
		},
		{
			name:    "unknown status",
			input:   `{"status": "maybe", "confidence": 0.5}`,
			wantErr: true,
		},
		{
			name:    "confidence out of range",
			input:   `{"status": "valid", "confidence": 1.4}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := parseJudgeVerdict(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got %+v", v)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if v.Status != tt.want {
				t.Errorf("Status = %s, want %s", v.Status, tt.want)
			}
		})
	}
}

func TestParseJudgeVerdict_Correction(t *testing.T) {
	v, err := parseJudgeVerdict(`{"status": "invalid", "confidence": 0.8, "suggested_correction": "CPI rose 3.2%"}`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v.Correction != "CPI rose 3.2%" {
		t.Errorf("Correction not parsed: %q", v.Correction)
	}
}

func TestNewOpenAIEngine_RequiresKey(t *testing.T) {
	_, err := NewOpenAIEngine(model.EngineConfig{})
	if err == nil {
		t.Fatal("Expected error without API key")
	}
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	_, err := New(model.EngineConfig{Provider: "carrier-pigeon"})
	if err == nil {
		t.Fatal("Expected error for unknown provider")
	}
}

func TestTurnFinal(t *testing.T) {
	final := &Turn{Text: "done"}
	if !final.Final() {
		t.Error("Turn without tool calls must be final")
	}
	calling := &Turn{ToolCalls: []ToolCall{{Name: "get_market_summary"}}}
	if calling.Final() {
		t.Error("Turn with tool calls must not be final")
	}
}
