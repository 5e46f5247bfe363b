package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jwhan/marketbrief/internal/engine"
	"github.com/jwhan/marketbrief/internal/model"
	"github.com/jwhan/marketbrief/internal/source"
)

// ErrBudgetExhausted signals that a tool-call cap was reached. The current
// generation turn ends and the engine must answer with the evidence it
// already retrieved (fail-soft, not fail-fatal).
var ErrBudgetExhausted = errors.New("tool call budget exhausted")

// Result is one tool execution outcome handed back to the engine.
type Result struct {
	Records    []model.SourceRecord    `json:"records,omitempty"`
	References []model.SourceReference `json:"references,omitempty"`
	Count      int                     `json:"count"`
	Error      string                  `json:"error,omitempty"`
}

// Executor dispatches tool invocations by name, enforces the per-turn and
// per-run caps, and keeps the ordered invocation log that is the only
// source of truth for which sources were actually consulted.
type Executor struct {
	registry *source.Registry
	entries  map[string]catalogEntry
	defs     []engine.Tool

	perTurnCap int
	perRunCap  int

	mu        sync.Mutex
	turnCount int
	runCount  int
	log       []model.ToolInvocation
	refs      []model.SourceReference
	refSeen   map[string]struct{}
}

// NewExecutor creates an executor over the given registry with the
// configured caps. Non-positive caps fall back to defaults.
func NewExecutor(reg *source.Registry, cfg model.ToolsConfig) *Executor {
	perTurn := cfg.PerTurnCap
	if perTurn <= 0 {
		perTurn = 10
	}
	perRun := cfg.PerRunCap
	if perRun <= 0 {
		perRun = 40
	}

	entries := make(map[string]catalogEntry)
	var defs []engine.Tool
	for _, e := range catalog() {
		entries[e.def.Name] = e
		defs = append(defs, e.def)
	}

	return &Executor{
		registry:   reg,
		entries:    entries,
		defs:       defs,
		perTurnCap: perTurn,
		perRunCap:  perRun,
		refSeen:    make(map[string]struct{}),
	}
}

// Catalog returns the fixed tool definitions offered to the engine.
func (x *Executor) Catalog() []engine.Tool {
	return x.defs
}

// BeginTurn resets the per-turn counter. Called once per engine turn.
func (x *Executor) BeginTurn() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.turnCount = 0
}

// Execute runs one named invocation. Unknown names and handler failures
// come back as a structured Result.Error for the engine to read; only a
// cap breach returns ErrBudgetExhausted to the caller.
func (x *Executor) Execute(name string, args map[string]any) (*Result, error) {
	x.mu.Lock()
	if x.turnCount >= x.perTurnCap || x.runCount >= x.perRunCap {
		x.mu.Unlock()
		return nil, ErrBudgetExhausted
	}
	x.turnCount++
	x.runCount++
	seq := len(x.log) + 1
	x.mu.Unlock()

	res := x.execute(name, args)

	x.mu.Lock()
	x.log = append(x.log, model.ToolInvocation{
		Seq:       seq,
		Tool:      name,
		Arguments: args,
		Records:   res.Count,
		Error:     res.Error,
		At:        now(),
	})
	for _, ref := range res.References {
		id := ref.SourceType + "|" + ref.Key
		if _, ok := x.refSeen[id]; ok {
			continue
		}
		x.refSeen[id] = struct{}{}
		x.refs = append(x.refs, ref)
	}
	x.mu.Unlock()

	return res, nil
}

func (x *Executor) execute(name string, args map[string]any) *Result {
	entry, ok := x.entries[name]
	if !ok {
		return &Result{Error: fmt.Sprintf("unknown tool: %s", name)}
	}

	records, err := entry.handler(x.registry, args)
	if err != nil {
		return &Result{Error: err.Error()}
	}
	if len(records) > maxToolRecords {
		records = records[:maxToolRecords]
	}

	res := &Result{Records: records, Count: len(records)}
	for _, rec := range records {
		res.References = append(res.References, referenceFor(rec))
	}
	return res
}

// Log returns a copy of the invocation log in iteration order.
func (x *Executor) Log() []model.ToolInvocation {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make([]model.ToolInvocation, len(x.log))
	copy(out, x.log)
	return out
}

// References returns every reference handed to the engine so far,
// deduplicated, in first-seen order.
func (x *Executor) References() []model.SourceReference {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make([]model.SourceReference, len(x.refs))
	copy(out, x.refs)
	return out
}

// FormatForEngine renders a result as the JSON the engine reads. Citation
// guidance rides along so the engine emits resolvable references.
func FormatForEngine(res *Result) string {
	if res.Error != "" {
		b, _ := json.Marshal(map[string]string{"error": res.Error})
		return string(b)
	}

	type recordView struct {
		Key     string            `json:"natural_key"`
		AsOf    string            `json:"as_of,omitempty"`
		Payload map[string]string `json:"payload"`
		Cite    string            `json:"cite_as"`
	}
	views := make([]recordView, 0, len(res.Records))
	for i, rec := range res.Records {
		view := recordView{
			Key:     rec.NaturalKey,
			Payload: rec.Payload,
			Cite:    res.References[i].String(),
		}
		if !rec.AsOfDate.IsZero() {
			view.AsOf = rec.AsOfDate.Format("2006-01-02")
		}
		views = append(views, view)
	}

	b, _ := json.Marshal(map[string]any{
		"count":   res.Count,
		"records": views,
	})
	return string(b)
}
