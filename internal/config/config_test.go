package config

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// TestLoadDefaults tests that default configuration values are loaded correctly.
func TestLoadDefaults(t *testing.T) {
	// Reset Viper singleton to avoid interference from other tests
	viper.Reset()

	// Set HOME to temp directory (no existing config.yaml = pure defaults)
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("GEMINI_API_KEY", "test-api-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ModelName != DefaultModelName {
		t.Errorf("expected default ModelName %q, got %q", DefaultModelName, cfg.ModelName)
	}
	if cfg.MaxHistoryMessages != DefaultMaxHistoryMessages {
		t.Errorf("expected default MaxHistoryMessages %d, got %d",
			DefaultMaxHistoryMessages, cfg.MaxHistoryMessages)
	}
	wantArtifacts := filepath.Join(tmpDir, ".jmxpilot", "artifacts")
	if cfg.ArtifactDir != wantArtifacts {
		t.Errorf("expected default ArtifactDir %q, got %q", wantArtifacts, cfg.ArtifactDir)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default LogLevel 'info', got %q", cfg.LogLevel)
	}
	if cfg.LogJSON {
		t.Error("expected default LogJSON false")
	}
}

// TestLoadEnvOverrides tests that environment variables override defaults.
func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "test-api-key")
	t.Setenv("JMXPILOT_MODEL_NAME", "gemini-2.5-pro")
	t.Setenv("JMXPILOT_MAX_HISTORY", "250")
	t.Setenv("JMXPILOT_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ModelName != "gemini-2.5-pro" {
		t.Errorf("expected ModelName 'gemini-2.5-pro', got %q", cfg.ModelName)
	}
	if cfg.MaxHistoryMessages != 250 {
		t.Errorf("expected MaxHistoryMessages 250, got %d", cfg.MaxHistoryMessages)
	}
	if cfg.APIKey != "test-api-key" {
		t.Errorf("expected APIKey from GEMINI_API_KEY, got %q", cfg.APIKey)
	}
}

// TestLoadMissingAPIKey tests that Load fails fast without an API key.
func TestLoadMissingAPIKey(t *testing.T) {
	viper.Reset()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		ModelName:          DefaultModelName,
		APIKey:             "key",
		MaxHistoryMessages: DefaultMaxHistoryMessages,
		ArtifactDir:        "/tmp/artifacts",
		LogLevel:           "info",
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"missing api key", func(c *Config) { c.APIKey = "" }, ErrMissingAPIKey},
		{"blank model name", func(c *Config) { c.ModelName = "  " }, ErrInvalidModelName},
		{"history too low", func(c *Config) { c.MaxHistoryMessages = 0 }, ErrInvalidMaxHistory},
		{"history too high", func(c *Config) { c.MaxHistoryMessages = 99999 }, ErrInvalidMaxHistory},
		{"blank artifact dir", func(c *Config) { c.ArtifactDir = "" }, ErrInvalidArtifactDir},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNil(t *testing.T) {
	var cfg *Config
	if !errors.Is(cfg.Validate(), ErrConfigNil) {
		t.Error("expected ErrConfigNil for nil config")
	}
}

// TestMarshalJSONMasksAPIKey ensures the API key never appears in logged config.
func TestMarshalJSONMasksAPIKey(t *testing.T) {
	cfg := Config{
		ModelName: DefaultModelName,
		APIKey:    "super-secret-key",
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	if strings.Contains(string(data), "super-secret-key") {
		t.Errorf("API key leaked in JSON output: %s", data)
	}
	if !strings.Contains(string(data), maskedValue) {
		t.Errorf("expected masked placeholder in JSON output: %s", data)
	}
}
