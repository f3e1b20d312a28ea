// Package gemini implements the copilot.Transport interface on top of the
// Gemini API (google.golang.org/genai). Each session keeps its own content
// history client-side and replays it on every request, which is how the
// Gemini API models a stateful conversation.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/jmxpilot/jmxpilot/internal/copilot"
)

// DefaultModel is used when a session is created without a model name.
const DefaultModel = "gemini-2.5-flash"

// Config holds transport construction parameters.
type Config struct {
	// APIKey authenticates against the Gemini API. Required.
	APIKey string

	// Logger receives transport diagnostics (nil = slog.Default()).
	Logger *slog.Logger
}

// Transport is a copilot.Transport backed by the Gemini API.
type Transport struct {
	apiKey string
	logger *slog.Logger
	client *genai.Client
}

// New creates an unstarted Transport.
func New(cfg Config) (*Transport, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{apiKey: cfg.APIKey, logger: logger}, nil
}

// Start creates the API client. Idempotent.
func (t *Transport) Start(ctx context.Context) error {
	if t.client != nil {
		return nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  t.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("creating Gemini client: %w", err)
	}
	t.client = client
	return nil
}

// CreateSession opens a conversation session.
func (t *Transport) CreateSession(_ context.Context, cfg copilot.SessionConfig) (copilot.Session, error) {
	if t.client == nil {
		return nil, errors.New("transport not started")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	genCfg := &genai.GenerateContentConfig{}
	if cfg.SystemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(cfg.SystemPrompt, genai.RoleUser)
	}

	return newSession(t.client, model, genCfg, t.logger.With("model", model)), nil
}

// Close releases the transport. The underlying API client holds no
// persistent connection, so this only invalidates the handle.
func (t *Transport) Close() error {
	t.client = nil
	return nil
}
