package engine

import (
	"fmt"
	"strings"

	"github.com/jwhan/marketbrief/internal/model"
)

// New creates a reasoning engine from configuration. Tool calling is
// required of every provider, so only OpenAI-compatible chat APIs are
// supported; a local deployment is selected by setting BaseURL.
func New(cfg model.EngineConfig) (Engine, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		return NewOpenAIEngine(cfg)
	default:
		return nil, fmt.Errorf("unknown engine provider: %s (supported: openai)", cfg.Provider)
	}
}
