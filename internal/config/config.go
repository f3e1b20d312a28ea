// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.jmxpilot/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Security: the API key is only ever read from the environment and is masked
// in MarshalJSON; config directory uses 0750 permissions.
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("validating configuration: %w", err)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidMaxHistory indicates the max history messages value is out of range.
	ErrInvalidMaxHistory = errors.New("invalid max history messages")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidArtifactDir indicates the artifact directory is invalid.
	ErrInvalidArtifactDir = errors.New("invalid artifact directory")
)

const (
	// DefaultModelName is the model used when no override is configured.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultMaxHistoryMessages is the default conversation history bound.
	DefaultMaxHistoryMessages = 100

	// MaxAllowedHistoryMessages is the absolute maximum to prevent OOM.
	MaxAllowedHistoryMessages = 10000

	// MinHistoryMessages is the minimum allowed value for MaxHistoryMessages.
	MinHistoryMessages = 1
)

// Config stores application configuration.
// SECURITY: APIKey is masked in MarshalJSON(). When adding new sensitive
// fields, update MarshalJSON.
type Config struct {
	// Model configuration
	ModelName string `mapstructure:"model_name" json:"model_name"` // e.g. "gemini-2.5-flash"
	APIKey    string `mapstructure:"api_key" json:"api_key"`       // SENSITIVE: env only, masked in MarshalJSON

	// Conversation history bound
	MaxHistoryMessages int `mapstructure:"max_history_messages" json:"max_history_messages"`

	// Artifact storage
	ArtifactDir string `mapstructure:"artifact_dir" json:"artifact_dir"`

	// Logging
	LogLevel string `mapstructure:"log_level" json:"log_level"` // debug, info, warn, error
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	// Configuration directory: ~/.jmxpilot/
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".jmxpilot")

	// Ensure directory exists (use 0750 permission for better security)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults(configDir)
	bindEnvVariables()

	// Read configuration file (if exists)
	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Fail-fast: surface bad values before any component is wired
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(configDir string) {
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("max_history_messages", DefaultMaxHistoryMessages)
	viper.SetDefault("artifact_dir", filepath.Join(configDir, "artifacts"))
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", false)
}

// bindEnvVariables binds environment variables explicitly.
// GEMINI_API_KEY is the only secret; it is never read from the config file.
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail).
	// If this panics, it's a BUG in our code, not a runtime error.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("api_key", "GEMINI_API_KEY")
	mustBind("model_name", "JMXPILOT_MODEL_NAME")
	mustBind("max_history_messages", "JMXPILOT_MAX_HISTORY")
	mustBind("artifact_dir", "JMXPILOT_ARTIFACT_DIR")
	mustBind("log_level", "JMXPILOT_LOG_LEVEL")
	mustBind("log_json", "JMXPILOT_LOG_JSON")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.APIKey == "" {
		return fmt.Errorf("%w: set GEMINI_API_KEY", ErrMissingAPIKey)
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}

	if c.MaxHistoryMessages < MinHistoryMessages || c.MaxHistoryMessages > MaxAllowedHistoryMessages {
		return fmt.Errorf("%w: %d (must be between %d and %d)",
			ErrInvalidMaxHistory, c.MaxHistoryMessages, MinHistoryMessages, MaxAllowedHistoryMessages)
	}

	if strings.TrimSpace(c.ArtifactDir) == "" {
		return fmt.Errorf("%w: artifact directory must not be empty", ErrInvalidArtifactDir)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q (must be debug, info, warn or error)", ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}

// SlogLevel maps the configured log level to a slog.Level.
// Validate must have been called; unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// MarshalJSON masks the API key so the config can be logged safely.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config // avoid recursion
	a := alias(c)
	if a.APIKey != "" {
		a.APIKey = maskedValue
	}
	return json.Marshal(a)
}
