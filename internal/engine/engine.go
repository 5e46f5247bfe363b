// Package engine defines the reasoning-engine boundary. The core treats
// the engine as a black-box capability: it produces free text possibly
// interleaved with tool invocations, and it can judge a claim against
// supplied evidence. No prompt format or model vendor leaks past this
// package.
package engine

import (
	"context"
	"errors"

	"github.com/jwhan/marketbrief/internal/model"
)

// ErrTimeout marks an engine call that exceeded its step timeout. The
// caller decides whether it is fatal (a draft) or degrades to an
// abstention (a validator).
var ErrTimeout = errors.New("engine call timed out")

// Tool is a schema-constrained capability offered to the engine.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON schema object
}

// ToolCall is an invocation request emitted by the engine.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Message is one turn of a conversation.
type Message struct {
	Role       string // "user", "assistant" or "tool"
	Content    string
	ToolCalls  []ToolCall // Set on assistant messages requesting tools
	ToolCallID string     // Set on tool result messages
}

// ConverseRequest is one engine invocation within a conversation.
type ConverseRequest struct {
	System      string
	Messages    []Message
	Tools       []Tool
	MaxTokens   int
	Temperature float32
}

// Turn is the engine's reply: final text, or tool invocations to satisfy
// before the conversation continues.
type Turn struct {
	Text       string
	ToolCalls  []ToolCall
	TokensUsed int
}

// Final reports whether the turn carries no further tool invocations.
func (t *Turn) Final() bool { return len(t.ToolCalls) == 0 }

// JudgeVerdict is the engine's judgment of one claim against evidence.
type JudgeVerdict struct {
	Status      model.MatchStatus `json:"status"`
	Confidence  float64           `json:"confidence"`
	Explanation string            `json:"explanation"`
	Correction  string            `json:"suggested_correction,omitempty"`
}

// Engine is the single capability the core requires of a reasoning engine.
type Engine interface {
	// Name returns the provider name.
	Name() string

	// Converse runs one engine invocation. Callers repeat it, feeding tool
	// results back, until the engine emits a final turn.
	Converse(ctx context.Context, req ConverseRequest) (*Turn, error)

	// Judge compares a claim against resolved evidence and returns a
	// typed verdict. Used for qualitative claims without a crisp
	// comparison predicate.
	Judge(ctx context.Context, claim string, evidence model.SourceRecord) (*JudgeVerdict, error)

	// IsAvailable checks whether the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}
