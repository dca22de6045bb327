package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	appName        = "contentpipe"
	configFileName = "contentpipe.yaml"
	envPrefix      = "CONTENTPIPE"
	configPathEnv  = "CONTENTPIPE_CONFIG_PATH"
)

// legacyEnv binds config keys to extra environment variable names, checked
// in order.
var legacyEnv = map[string][]string{
	"backend.api_key":    {"CONTENTPIPE_BACKEND_API_KEY", "GROQ_API_KEY"},
	"backend.model":      {"CONTENTPIPE_BACKEND_MODEL", "GROQ_MODEL"},
	"backend.provider":   {"CONTENTPIPE_BACKEND_PROVIDER", "LLM_PROVIDER"},
	"claude.binary_path": {"CONTENTPIPE_CLAUDE_PATH", "CONTENTPIPE_CLAUDE_BINARY_PATH"},
}

// Loader handles configuration loading with Viper.
//
// Use [NewLoader] to create an instance, then call [Loader.Load] for the
// standard lookup or [Loader.LoadFromFile] for an explicit file.
type Loader struct {
	v       *viper.Viper
	envFile string
}

// NewLoader creates a Loader with defaults and environment bindings
// registered.
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}

	return &Loader{v: v, envFile: ".env"}
}

// SetEnvFile sets the dotenv file read by [Loader.Load]. Empty disables it.
func (l *Loader) SetEnvFile(path string) {
	l.envFile = path
}

// Load reads the .env file, finds the config file (see the package doc for
// the lookup order) and returns the merged configuration. A missing config
// file is not an error.
func (l *Loader) Load() (*Config, error) {
	if err := l.loadEnvFile(); err != nil {
		return nil, err
	}

	if path := os.Getenv(configPathEnv); path != "" {
		l.v.SetConfigFile(path)
	} else if path, err := DefaultConfigPath(); err == nil && fileExists(path) {
		l.v.SetConfigFile(path)
	} else {
		l.v.SetConfigName(strings.TrimSuffix(configFileName, filepath.Ext(configFileName)))
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath("./config")
		l.v.AddConfigPath(".")
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.unmarshal()
}

// LoadFromFile loads configuration from the given file. The format follows
// the file extension.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	applyLegacy(cfg)
	return cfg, nil
}

func (l *Loader) loadEnvFile() error {
	if l.envFile == "" || !fileExists(l.envFile) {
		return nil
	}
	if err := godotenv.Load(l.envFile); err != nil {
		return fmt.Errorf("error reading env file %s: %w", l.envFile, err)
	}
	return nil
}

// applyLegacy maps the legacy provider names and MOCK_MODE switch.
func applyLegacy(cfg *Config) {
	switch p := strings.ToLower(strings.TrimSpace(cfg.Backend.Provider)); p {
	case "groq", "openai":
		cfg.Backend.Provider = ProviderHTTP
	default:
		cfg.Backend.Provider = p
	}
	if strings.EqualFold(os.Getenv("MOCK_MODE"), "true") {
		cfg.Backend.Provider = ProviderMock
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("backend.provider", cfg.Backend.Provider)
	v.SetDefault("backend.base_url", cfg.Backend.BaseURL)
	v.SetDefault("backend.api_key", cfg.Backend.APIKey)
	v.SetDefault("backend.model", cfg.Backend.Model)
	v.SetDefault("backend.temperature", cfg.Backend.Temperature)
	v.SetDefault("backend.timeout_seconds", cfg.Backend.TimeoutSeconds)
	v.SetDefault("backend.max_attempts", cfg.Backend.MaxAttempts)
	v.SetDefault("backend.backoff_seconds", cfg.Backend.BackoffSeconds)

	v.SetDefault("claude.output_format", cfg.Claude.OutputFormat)
	v.SetDefault("claude.binary_path", cfg.Claude.BinaryPath)

	v.SetDefault("pipeline.step_pause_seconds", cfg.Pipeline.StepPauseSeconds)

	v.SetDefault("quality.min_faq_items", cfg.Quality.MinFAQItems)
	v.SetDefault("quality.min_benefits", cfg.Quality.MinBenefits)
	v.SetDefault("quality.min_comparison_rows", cfg.Quality.MinComparisonRows)

	v.SetDefault("output.dir", cfg.Output.Dir)
	v.SetDefault("output.summary_file", cfg.Output.SummaryFile)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)

	v.SetDefault("telemetry.otlp_endpoint", cfg.Telemetry.OTLPEndpoint)
	v.SetDefault("telemetry.service_name", cfg.Telemetry.ServiceName)
	v.SetDefault("telemetry.insecure", cfg.Telemetry.Insecure)
}

// ConfigDir returns the platform-standard config directory for contentpipe.
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config directory: %w", err)
	}
	return filepath.Join(dir, appName), nil
}

// DefaultConfigPath returns the config file path inside [ConfigDir].
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
