package model

import "time"

// Config is the complete runtime configuration.
//
// Hierarchy (highest to lowest priority): CLI flags, environment variables
// (MARKETBRIEF_*), config file (~/.marketbrief/config.yaml), defaults.
type Config struct {
	Run      RunConfig      `yaml:"run" mapstructure:"run"`
	Tools    ToolsConfig    `yaml:"tools" mapstructure:"tools"`
	Engine   EngineConfig   `yaml:"engine" mapstructure:"engine"`
	Sources  SourcesConfig  `yaml:"sources" mapstructure:"sources"`
	Audience AudienceConfig `yaml:"audience" mapstructure:"audience"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// RunConfig bounds the revision loop.
type RunConfig struct {
	MaxIterations      int           `yaml:"max_iterations" mapstructure:"max_iterations"`
	StepTimeout        time.Duration `yaml:"step_timeout" mapstructure:"step_timeout"`
	AdvisoryValidators []string      `yaml:"advisory_validators" mapstructure:"advisory_validators"`
	NumericTolerance   float64       `yaml:"numeric_tolerance" mapstructure:"numeric_tolerance"`
}

// ToolsConfig bounds tool usage by the reasoning engine.
type ToolsConfig struct {
	PerTurnCap int `yaml:"per_turn_cap" mapstructure:"per_turn_cap"`
	PerRunCap  int `yaml:"per_run_cap" mapstructure:"per_run_cap"`
}

// EngineConfig configures the reasoning engine provider.
type EngineConfig struct {
	Provider          string        `yaml:"provider" mapstructure:"provider"`
	Model             string        `yaml:"model" mapstructure:"model"`
	APIKey            string        `yaml:"-" mapstructure:"api_key"`
	BaseURL           string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens         int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float32       `yaml:"temperature" mapstructure:"temperature"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
}

// SourcesConfig maps source types to their locators (files or directories).
type SourcesConfig struct {
	Calendar string `yaml:"calendar" mapstructure:"calendar"`
	Macro    string `yaml:"macro" mapstructure:"macro"`
	News     string `yaml:"news" mapstructure:"news"`
	FOMC     string `yaml:"fomc" mapstructure:"fomc"`
	Market   string `yaml:"market" mapstructure:"market"`
}

// Locators returns the configured locators keyed by source type,
// omitting empty entries.
func (s SourcesConfig) Locators() map[string]string {
	out := make(map[string]string)
	for k, v := range map[string]string{
		"calendar": s.Calendar,
		"macro":    s.Macro,
		"news":     s.News,
		"fomc":     s.FOMC,
		"market":   s.Market,
	} {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// AudienceConfig describes the target audience for the briefing.
type AudienceConfig struct {
	Profile string `yaml:"profile" mapstructure:"profile"`
}

// OutputConfig controls artifact persistence.
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			MaxIterations:      3,
			StepTimeout:        2 * time.Minute,
			AdvisoryValidators: []string{"consistency", "audience"},
			NumericTolerance:   0.01,
		},
		Tools: ToolsConfig{
			PerTurnCap: 10,
			PerRunCap:  40,
		},
		Engine: EngineConfig{
			Provider:          "openai",
			Model:             "gpt-4o-mini",
			Timeout:           60 * time.Second,
			MaxTokens:         4000,
			Temperature:       0.3,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Audience: AudienceConfig{
			Profile: "retail investors following a daily market closing briefing; plain language, no jargon without explanation",
		},
		Output: OutputConfig{
			Dir: "output/briefings",
		},
	}
}
