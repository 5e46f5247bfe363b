package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/jwhan/marketbrief/internal/model"
)

// OpenAIEngine implements Engine on the OpenAI chat completions API with
// native tool calling. An OpenAI-compatible deployment (e.g. a local
// server) is reachable through BaseURL.
type OpenAIEngine struct {
	client  *openai.Client
	config  model.EngineConfig
	limiter *rate.Limiter
}

// NewOpenAIEngine creates a new OpenAI engine.
func NewOpenAIEngine(cfg model.EngineConfig) (*OpenAIEngine, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 4
	}

	return &OpenAIEngine{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

// Name returns the provider name.
func (e *OpenAIEngine) Name() string { return "openai" }

// IsAvailable checks if the provider is properly configured.
func (e *OpenAIEngine) IsAvailable(ctx context.Context) bool {
	_, err := e.client.ListModels(ctx)
	return err == nil
}

// Converse runs one chat completion, translating tool definitions and any
// returned tool calls. Malformed tool arguments are retried once with a
// corrective message before the call is treated as failed.
func (e *OpenAIEngine) Converse(ctx context.Context, req ConverseRequest) (*Turn, error) {
	chatReq := e.buildRequest(req)

	turn, parseErr, err := e.completeOnce(ctx, chatReq)
	if err != nil {
		return nil, err
	}
	if parseErr == nil {
		return turn, nil
	}

	// One corrective round-trip: tell the engine what was malformed.
	chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: fmt.Sprintf("Your previous tool call had malformed arguments (%v). Repeat the call with valid JSON arguments matching the tool schema.", parseErr),
	})
	turn, parseErr, err = e.completeOnce(ctx, chatReq)
	if err != nil {
		return nil, err
	}
	if parseErr != nil {
		return nil, fmt.Errorf("engine invocation error after corrective retry: %w", parseErr)
	}
	return turn, nil
}

func (e *OpenAIEngine) buildRequest(req ConverseRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		msg := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			args, _ := json.Marshal(tc.Arguments)
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(args),
				},
			})
		}
		messages = append(messages, msg)
	}

	var tools []openai.Tool
	for _, t := range req.Tools {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = e.config.MaxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = e.config.Temperature
	}

	return openai.ChatCompletionRequest{
		Model:       e.config.Model,
		Messages:    messages,
		Tools:       tools,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

// completeOnce performs one API call. The middle return value carries a
// tool-argument parse error that the caller may correct and retry.
func (e *OpenAIEngine) completeOnce(ctx context.Context, chatReq openai.ChatCompletionRequest) (*Turn, error, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	timeout := e.config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(callCtx, chatReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, nil, ErrTimeout
		}
		return nil, nil, fmt.Errorf("openai api: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil, fmt.Errorf("no response from openai")
	}

	msg := resp.Choices[0].Message
	turn := &Turn{
		Text:       strings.TrimSpace(msg.Content),
		TokensUsed: resp.Usage.TotalTokens,
	}

	for _, tc := range msg.ToolCalls {
		var args map[string]any
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return turn, fmt.Errorf("tool %s: %w", tc.Function.Name, err), nil
			}
		}
		turn.ToolCalls = append(turn.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	return turn, nil, nil
}

const judgeSystemPrompt = `You judge whether a factual claim is supported by a supplied evidence record.
You never consult outside knowledge; the record is the only admissible evidence.
Respond with a single JSON object:
{"status": "valid" | "partial" | "invalid" | "not_found",
 "confidence": 0.0-1.0,
 "explanation": "one or two sentences",
 "suggested_correction": "corrected phrasing, only when status is invalid"}
Use "valid" only when the record clearly supports the claim, "invalid" when it
contradicts it, and "partial" when the claim is qualitative or only loosely
covered by the record.`

// Judge asks the engine to compare a claim against a resolved record and
// parses the strict-JSON verdict. A malformed response is retried once
// with a corrective message.
func (e *OpenAIEngine) Judge(ctx context.Context, claim string, evidence model.SourceRecord) (*JudgeVerdict, error) {
	payload, _ := json.Marshal(evidence.Payload)
	user := fmt.Sprintf("Claim:\n%s\n\nEvidence record (%s, key %s, as of %s):\n%s",
		claim, evidence.SourceType, evidence.NaturalKey,
		evidence.AsOfDate.Format("2006-01-02"), string(payload))

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: judgeSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: user},
	}

	for attempt := 0; attempt < 2; attempt++ {
		turn, _, err := e.completeOnce(ctx, openai.ChatCompletionRequest{
			Model:       e.config.Model,
			Messages:    messages,
			MaxTokens:   500,
			Temperature: 0.1,
		})
		if err != nil {
			return nil, err
		}

		verdict, parseErr := parseJudgeVerdict(turn.Text)
		if parseErr == nil {
			return verdict, nil
		}
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: turn.Text},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: "That was not the required JSON object. Respond with only the JSON object."},
		)
	}
	return nil, fmt.Errorf("judge returned unparseable verdict")
}

// parseJudgeVerdict extracts the verdict JSON, tolerating fenced or
// surrounded output.
func parseJudgeVerdict(text string) (*JudgeVerdict, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var v JudgeVerdict
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		return nil, err
	}
	switch v.Status {
	case model.StatusValid, model.StatusPartial, model.StatusInvalid, model.StatusNotFound:
	default:
		return nil, fmt.Errorf("unknown status %q", v.Status)
	}
	if v.Confidence < 0 || v.Confidence > 1 {
		return nil, fmt.Errorf("confidence %f out of range", v.Confidence)
	}
	return &v, nil
}
