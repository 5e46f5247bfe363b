package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jwhan/marketbrief/internal/engine"
	"github.com/jwhan/marketbrief/internal/tools"
)

const draftSystemPrompt = `You write a daily market closing briefing for the stated date.
Every number and fact in the briefing MUST come from data you retrieved through the tools; never rely on prior knowledge.
Work through the data first: market summary, then news, then macro indicators, then calendar and policy meeting events.
Cite every factual statement with the exact cite_as tag the tool result provides, in the form [REF: source_type | "key"].
A statement you cannot back with a tool result must be left out.
Write clear prose for a general audience; explain any technical term in plain words.`

const reviseSystemPrompt = `You revise a market closing briefing based on validation feedback.
Re-check every questioned fact through the tools before restating it; correct or remove anything you cannot verify.
Keep the citation format [REF: source_type | "key"] on every factual statement, using the exact cite_as tags from tool results.
Preserve the parts of the draft the feedback does not question.`

// maxToolRounds bounds the converse loop independently of the invocation
// caps, so a pathological engine cannot spin the conversation forever.
const maxToolRounds = 8

// Writer drives draft and revision turns of the reasoning engine with the
// tool bridge attached.
type Writer struct {
	engine   engine.Engine
	executor *tools.Executor
}

// NewWriter creates a writer over the given engine and tool executor.
func NewWriter(e engine.Engine, x *tools.Executor) *Writer {
	return &Writer{engine: e, executor: x}
}

// Draft produces the initial briefing text.
func (w *Writer) Draft(ctx context.Context, date string, counts map[string]int) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Briefing date: %s\n\nWrite today's market closing briefing.\n\nAvailable data:\n", date)
	for _, t := range sortedKeys(counts) {
		fmt.Fprintf(&sb, "- %s: %d records\n", t, counts[t])
	}
	sb.WriteString("\nRetrieve what you need through the tools and cite every fact.")

	return w.converse(ctx, draftSystemPrompt, sb.String())
}

// Revise produces a new draft from the previous one and the validator
// feedback.
func (w *Writer) Revise(ctx context.Context, draft string, feedback []string) (string, error) {
	var sb strings.Builder
	sb.WriteString("## Draft needing revision:\n\n")
	sb.WriteString(draft)
	sb.WriteString("\n\n## Validation feedback:\n\n")
	for _, fb := range feedback {
		sb.WriteString("- ")
		sb.WriteString(fb)
		sb.WriteByte('\n')
	}
	sb.WriteString("\nRevise the briefing to resolve every item above.")

	return w.converse(ctx, reviseSystemPrompt, sb.String())
}

// converse runs the engine until it emits a final turn, executing tool
// invocations in between. A budget breach ends tool access for the rest
// of the turn: the engine answers with the evidence it already has.
func (w *Writer) converse(ctx context.Context, system, user string) (string, error) {
	w.executor.BeginTurn()

	messages := []engine.Message{{Role: "user", Content: user}}
	available := w.executor.Catalog()

	for round := 0; round < maxToolRounds; round++ {
		turn, err := w.engine.Converse(ctx, engine.ConverseRequest{
			System:   system,
			Messages: messages,
			Tools:    available,
		})
		if err != nil {
			return "", err
		}
		if turn.Final() {
			if strings.TrimSpace(turn.Text) == "" {
				return "", fmt.Errorf("engine produced no output")
			}
			return turn.Text, nil
		}

		messages = append(messages, engine.Message{
			Role:      "assistant",
			Content:   turn.Text,
			ToolCalls: turn.ToolCalls,
		})

		budgetHit := false
		for _, call := range turn.ToolCalls {
			var content string
			res, err := w.executor.Execute(call.Name, call.Arguments)
			switch {
			case errors.Is(err, tools.ErrBudgetExhausted):
				budgetHit = true
				content = `{"error":"tool budget exhausted; produce the final briefing now with the evidence already retrieved"}`
			case err != nil:
				content = fmt.Sprintf(`{"error":%q}`, err.Error())
			default:
				content = tools.FormatForEngine(res)
			}
			messages = append(messages, engine.Message{
				Role:       "tool",
				Content:    content,
				ToolCallID: call.ID,
			})
		}
		if budgetHit {
			available = nil // force a final answer
		}
	}

	// Conversation never settled; one last forced answer without tools.
	messages = append(messages, engine.Message{
		Role:    "user",
		Content: "Produce the final briefing now using only the evidence already retrieved.",
	})
	turn, err := w.engine.Converse(ctx, engine.ConverseRequest{System: system, Messages: messages})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(turn.Text) == "" {
		return "", fmt.Errorf("engine produced no output")
	}
	return turn.Text, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
