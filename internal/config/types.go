// Package config provides configuration loading and management for contentpipe.
//
// Configuration is loaded using Viper, supporting YAML config files, a .env
// file and environment variable overrides. The defaults work out of the box
// in mock mode or with an API key in the environment.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//   - [BackendConfig] selects and tunes the generative backend
//   - [ClaudeConfig] contains Claude CLI binary settings
//
// Configuration priority (highest to lowest):
//  1. Environment variables (CONTENTPIPE_ prefix, plus the legacy
//     MOCK_MODE, LLM_PROVIDER, GROQ_API_KEY and GROQ_MODEL names)
//  2. Variables from ./.env that are not already set
//  3. Config file specified by CONTENTPIPE_CONFIG_PATH
//  4. User config directory (platform-standard), e.g.
//     ~/.config/contentpipe/contentpipe.yaml on Linux
//  5. ./config/contentpipe.yaml
//  6. ./contentpipe.yaml
//  7. [DefaultConfig] defaults
package config

import (
	"errors"
	"fmt"
	"time"
)

// Backend providers.
const (
	ProviderHTTP   = "http"
	ProviderClaude = "claude"
	ProviderMock   = "mock"
)

// ErrUnknownProvider is returned by [Config.Validate] for an unsupported
// backend.provider.
var ErrUnknownProvider = errors.New("unknown backend provider")

// Config represents the root configuration structure.
type Config struct {
	Backend   BackendConfig   `mapstructure:"backend"`
	Claude    ClaudeConfig    `mapstructure:"claude"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Quality   QualityConfig   `mapstructure:"quality"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// BackendConfig selects the generative backend and its retry policy.
type BackendConfig struct {
	// Provider is "http" (OpenAI-compatible chat API), "claude" (local
	// Claude CLI) or "mock" (canned offline answers).
	Provider string `mapstructure:"provider"`

	// BaseURL, APIKey and Model configure the http provider.
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`

	Temperature    float64 `mapstructure:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`

	// MaxAttempts bounds the calls per request. Default: 3
	MaxAttempts int `mapstructure:"max_attempts"`

	// BackoffSeconds is the base wait after a throttled attempt; the wait
	// grows linearly with the attempt number. Default: 30
	BackoffSeconds int `mapstructure:"backoff_seconds"`
}

// Timeout returns the HTTP request timeout.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Backoff returns the base retry wait.
func (b BackendConfig) Backoff() time.Duration {
	return time.Duration(b.BackoffSeconds) * time.Second
}

// ClaudeConfig contains Claude CLI configuration.
type ClaudeConfig struct {
	// OutputFormat is the output format passed to Claude CLI.
	// Should be "stream-json" for structured event parsing.
	OutputFormat string `mapstructure:"output_format"`

	// BinaryPath is the path to the Claude CLI binary.
	// Can be overridden with the CONTENTPIPE_CLAUDE_PATH environment variable.
	BinaryPath string `mapstructure:"binary_path"`
}

// PipelineConfig controls step pacing.
type PipelineConfig struct {
	// StepPauseSeconds is the pause before each backend step after the
	// first. Zero disables pacing. Default: 5
	StepPauseSeconds int `mapstructure:"step_pause_seconds"`
}

// StepPause returns the pause between backend steps.
func (p PipelineConfig) StepPause() time.Duration {
	return time.Duration(p.StepPauseSeconds) * time.Second
}

// QualityConfig holds the minimums the final quality check enforces.
type QualityConfig struct {
	MinFAQItems       int `mapstructure:"min_faq_items"`
	MinBenefits       int `mapstructure:"min_benefits"`
	MinComparisonRows int `mapstructure:"min_comparison_rows"`
}

// OutputConfig controls where generated pages are written.
type OutputConfig struct {
	Dir         string `mapstructure:"dir"`
	SummaryFile string `mapstructure:"summary_file"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	// Level is a zap level name: debug, info, warn or error.
	Level string `mapstructure:"level"`

	// File, when set, receives JSON logs in addition to the console.
	File string `mapstructure:"file"`
}

// TelemetryConfig configures OpenTelemetry export. An empty endpoint
// disables export.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
	Insecure     bool   `mapstructure:"insecure"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Provider:       ProviderHTTP,
			BaseURL:        "https://api.groq.com/openai/v1",
			Model:          "llama-3.1-8b-instant",
			Temperature:    0.7,
			TimeoutSeconds: 120,
			MaxAttempts:    3,
			BackoffSeconds: 30,
		},
		Claude: ClaudeConfig{
			OutputFormat: "stream-json",
			BinaryPath:   "claude",
		},
		Pipeline: PipelineConfig{
			StepPauseSeconds: 5,
		},
		Quality: QualityConfig{
			MinFAQItems:       15,
			MinBenefits:       2,
			MinComparisonRows: 4,
		},
		Output: OutputConfig{
			Dir:         "output",
			SummaryFile: "run-summary.yaml",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "contentpipe",
		},
	}
}

// Validate checks settings that have no usable fallback.
func (c *Config) Validate() error {
	switch c.Backend.Provider {
	case ProviderHTTP, ProviderClaude, ProviderMock:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Backend.Provider)
	}
	if c.Backend.Provider == ProviderHTTP && c.Backend.APIKey == "" {
		return fmt.Errorf("backend.api_key is required for the %s provider (set GROQ_API_KEY or CONTENTPIPE_BACKEND_API_KEY)", ProviderHTTP)
	}
	return nil
}
