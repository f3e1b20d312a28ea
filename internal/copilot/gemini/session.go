package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"google.golang.org/genai"

	"github.com/jmxpilot/jmxpilot/internal/copilot"
)

// session is a stateful Gemini conversation. The content history is
// appended only after a response fully succeeds, so an aborted or failed
// exchange leaves the conversation exactly as it was.
type session struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
	logger *slog.Logger
	events chan copilot.Event

	mu      sync.Mutex
	history []*genai.Content
	cancel  context.CancelFunc // cancels the in-flight stream, nil when idle
	closed  bool
	wg      sync.WaitGroup
}

func newSession(client *genai.Client, model string, cfg *genai.GenerateContentConfig, logger *slog.Logger) *session {
	return &session{
		client: client,
		model:  model,
		config: cfg,
		logger: logger,
		events: make(chan copilot.Event, 64),
	}
}

// Send starts streaming a response. Deltas and the terminal message are
// delivered on Events.
func (s *session) Send(ctx context.Context, prompt string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("session closed")
	}
	if s.cancel != nil {
		s.mu.Unlock()
		return errors.New("a response is already in flight")
	}

	streamCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	contents := s.contentsWith(prompt)
	s.mu.Unlock()

	s.wg.Add(1)
	go s.stream(streamCtx, prompt, contents)
	return nil
}

// stream consumes the response iterator and emits events.
func (s *session) stream(ctx context.Context, prompt string, contents []*genai.Content) {
	defer s.wg.Done()
	defer s.finishStream()

	var full string
	for resp, err := range s.client.Models.GenerateContentStream(ctx, s.model, contents, s.config) {
		if err != nil {
			if ctx.Err() != nil {
				// Aborted locally: the orchestrator has already discarded
				// the response, nothing to report.
				s.logger.Debug("stream cancelled")
				return
			}
			s.emit(copilot.Event{Type: copilot.EventError, Err: err})
			return
		}
		chunk := resp.Text()
		if chunk == "" {
			continue
		}
		full += chunk
		s.emit(copilot.Event{Type: copilot.EventDelta, Delta: chunk})
	}

	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	s.history = append(s.history,
		genai.NewContentFromText(prompt, genai.RoleUser),
		genai.NewContentFromText(full, genai.RoleModel))
	s.mu.Unlock()

	s.emit(copilot.Event{Type: copilot.EventMessage, Content: full})
}

// SendAndWait performs a synchronous, non-streaming exchange. No events are
// emitted for it.
func (s *session) SendAndWait(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", errors.New("session closed")
	}
	if s.cancel != nil {
		s.mu.Unlock()
		return "", errors.New("a response is already in flight")
	}
	contents := s.contentsWith(prompt)
	s.mu.Unlock()

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, s.config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	s.mu.Lock()
	s.history = append(s.history,
		genai.NewContentFromText(prompt, genai.RoleUser),
		genai.NewContentFromText(text, genai.RoleModel))
	s.mu.Unlock()

	return text, nil
}

// Abort cancels the in-flight stream, if any.
func (s *session) Abort(context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// Events returns the inbound event channel. Closed by Close.
func (s *session) Events() <-chan copilot.Event { return s.events }

// Close cancels any in-flight stream, waits for it to drain, and closes the
// event channel. Idempotent.
func (s *session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	close(s.events)
	return nil
}

// emit delivers an event to the orchestrator's pump. The channel is only
// closed after the stream goroutine has drained, so this never sends on a
// closed channel.
func (s *session) emit(ev copilot.Event) {
	s.events <- ev
}

// contentsWith returns the conversation history plus the new prompt.
// Caller holds s.mu.
func (s *session) contentsWith(prompt string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(s.history)+1)
	contents = append(contents, s.history...)
	return append(contents, genai.NewContentFromText(prompt, genai.RoleUser))
}

// finishStream clears the in-flight marker after a stream goroutine ends.
func (s *session) finishStream() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}

var _ copilot.Session = (*session)(nil)
