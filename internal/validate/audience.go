package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwhan/marketbrief/internal/engine"
	"github.com/jwhan/marketbrief/internal/model"
)

const audienceSystemPrompt = `You evaluate whether a market briefing fits its target audience.
Judge tone, relevance and accessibility only, never factual accuracy.
Respond with a single JSON object:
{"fitness": "excellent" | "good" | "fair" | "poor",
 "feedback": "one or two sentences of concrete advice"}`

// AudienceValidator judges tone, relevance and accessibility against the
// configured audience profile. Orthogonal to factuality; advisory unless
// configured as blocking.
type AudienceValidator struct {
	engine  engine.Engine
	profile string
}

// NewAudienceValidator creates an audience-fitness validator.
func NewAudienceValidator(e engine.Engine, profile string) *AudienceValidator {
	return &AudienceValidator{engine: e, profile: profile}
}

// Name returns the validator identifier.
func (v *AudienceValidator) Name() string { return "audience" }

// Validate asks the engine to grade the draft for the target audience.
func (v *AudienceValidator) Validate(ctx context.Context, input Input) (*Verdict, error) {
	turn, err := v.engine.Converse(ctx, engine.ConverseRequest{
		System: audienceSystemPrompt,
		Messages: []engine.Message{{
			Role: "user",
			Content: fmt.Sprintf("Target audience: %s\n\nBriefing draft:\n%s", v.profile, input.Draft),
		}},
		MaxTokens:   400,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, err
	}

	av, err := parseAudienceVerdict(turn.Text)
	if err != nil {
		return nil, err
	}

	verdict := &Verdict{
		Validator: v.Name(),
		Audience:  av,
		Pass:      av.Fitness.Acceptable(),
	}
	if av.Feedback != "" && !av.Fitness.Acceptable() {
		verdict.Feedback = append(verdict.Feedback, av.Feedback)
	}
	return verdict, nil
}

func parseAudienceVerdict(text string) (*model.AudienceVerdict, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in audience response")
	}

	var av model.AudienceVerdict
	if err := json.Unmarshal([]byte(text[start:end+1]), &av); err != nil {
		return nil, err
	}
	switch av.Fitness {
	case model.FitnessExcellent, model.FitnessGood, model.FitnessFair, model.FitnessPoor:
	default:
		return nil, fmt.Errorf("unknown fitness grade %q", av.Fitness)
	}
	return &av, nil
}
