// Package copilot provides the session orchestrator for jmxpilot: a state
// machine coordinating connect, send, streamed deltas, completed messages,
// abort, and conversation reset against a pluggable chat Transport.
package copilot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/jmxpilot/jmxpilot/internal/chat"
)

// StreamHandler receives each response delta in arrival order.
type StreamHandler func(delta string)

// MessageHandler receives each completed assistant message exactly once.
type MessageHandler func(msg chat.Message)

// Config contains all required parameters for the Service.
type Config struct {
	Transport Transport
	Logger    *slog.Logger

	// Model is the initial model name, consulted only at session creation.
	Model string

	// MaxHistoryMessages bounds the conversation history (<=0 uses the
	// chat package default).
	MaxHistoryMessages int

	// RateLimiter proactively throttles sends (nil = default limiter).
	RateLimiter *rate.Limiter
}

func (cfg Config) validate() error {
	if cfg.Transport == nil {
		return errors.New("transport is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Service owns the conversation session lifecycle. All shared state (state,
// history, delta buffer, handlers) is guarded by one mutex; inbound events
// are consumed by a single pump goroutine per session, so handlers are
// invoked sequentially in arrival order.
type Service struct {
	transport Transport
	logger    *slog.Logger
	limiter   *rate.Limiter

	mu             sync.Mutex
	state          State
	connected      bool
	closed         bool
	model          string
	history        *chat.History
	buffer         strings.Builder
	inflight       bool
	session        Session
	pumpDone       chan struct{}
	streamHandler  StreamHandler
	messageHandler MessageHandler
}

// New creates a Service. The transport is not contacted until Connect.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	limiter := cfg.RateLimiter
	if limiter == nil {
		// 10 requests/sec sustained, burst of 30.
		limiter = rate.NewLimiter(10, 30)
	}

	return &Service{
		transport: cfg.Transport,
		logger:    cfg.Logger,
		limiter:   limiter,
		state:     StateDisconnected,
		model:     cfg.Model,
		history:   chat.NewHistory(cfg.MaxHistoryMessages),
	}, nil
}

// SetStreamHandler registers the consumer of response deltas.
func (s *Service) SetStreamHandler(h StreamHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamHandler = h
}

// SetMessageHandler registers the consumer of completed assistant messages.
func (s *Service) SetMessageHandler(h MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageHandler = h
}

// SetModel sets the model used for sessions created from now on. An
// in-flight response is unaffected; the new value takes effect at the next
// Connect or ClearConversation.
func (s *Service) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

// Model returns the currently configured model name.
func (s *Service) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// State returns the current session state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether a live session exists.
func (s *Service) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// History returns a read-only snapshot of the conversation.
func (s *Service) History() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Messages()
}

// PendingResponse returns the partial content buffered for the in-flight
// response, or "" when nothing is streaming.
func (s *Service) PendingResponse() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.String()
}

// Connect starts the transport and opens a session with the fixed
// configuration (streaming on, system instruction appended). On failure the
// service returns to Disconnected so the caller may retry.
func (s *Service) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateDisconnected && s.state != StateError {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.state = StateConnecting
	model := s.model
	s.mu.Unlock()

	if err := s.transport.Start(ctx); err != nil {
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
		return fmt.Errorf("starting transport: %w", err)
	}

	sess, err := s.openSession(ctx, model)
	if err != nil {
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
		return fmt.Errorf("creating session: %w", err)
	}

	s.mu.Lock()
	s.adoptSession(sess)
	s.connected = true
	s.state = StateReady
	s.mu.Unlock()

	s.logger.Info("connected", "model", model)
	return nil
}

// Send forwards the prompt to the session and returns once it is accepted.
// The response arrives asynchronously through the registered handlers.
// Fails immediately, without mutating history or state, when no session is
// ready.
func (s *Service) Send(ctx context.Context, prompt string) error {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrNotReady
	}
	s.mu.Unlock()

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrNotReady
	}
	sess := s.session
	s.history.Add(chat.NewMessage(chat.RoleUser, prompt))
	s.state = StateStreaming
	s.inflight = true
	s.buffer.Reset()
	s.mu.Unlock()

	if err := sess.Send(ctx, prompt); err != nil {
		s.mu.Lock()
		s.inflight = false
		s.state = StateReady
		s.mu.Unlock()
		return fmt.Errorf("sending prompt: %w", err)
	}
	return nil
}

// SendAndWait sends the prompt and blocks for the complete response text.
// No delta events are produced; the completed exchange is recorded in
// history like a streamed one.
func (s *Service) SendAndWait(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return "", ErrNotReady
	}
	s.mu.Unlock()

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return "", ErrNotReady
	}
	sess := s.session
	s.history.Add(chat.NewMessage(chat.RoleUser, prompt))
	s.state = StateStreaming
	s.mu.Unlock()

	content, err := sess.SendAndWait(ctx, prompt)

	s.mu.Lock()
	if s.state == StateStreaming {
		s.state = StateReady
	}
	if err == nil && strings.TrimSpace(content) != "" {
		s.history.Add(chat.NewMessage(chat.RoleAssistant, content))
	}
	s.mu.Unlock()

	if err != nil {
		return "", fmt.Errorf("sending prompt: %w", err)
	}
	return content, nil
}

// Abort cancels the in-flight response. Cancellation is best-effort on the
// transport side but unconditional locally: after Abort returns, the state
// is Ready, the delta buffer is discarded, and no message for the aborted
// response will be appended to history even if its events still arrive.
func (s *Service) Abort(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateStreaming {
		s.mu.Unlock()
		return ErrNotStreaming
	}
	sess := s.session
	s.state = StateAborting
	// Cut the response off locally before asking the transport: events that
	// race with the cancellation must already find nothing in flight.
	s.inflight = false
	s.buffer.Reset()
	s.mu.Unlock()

	err := sess.Abort(ctx)

	s.mu.Lock()
	s.state = StateReady
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("aborting response: %w", err)
	}
	return nil
}

// ClearConversation wipes the history and replaces the session. When
// connected, a fresh session with the same configuration is opened; when
// not, the service is left disconnected with an empty history.
func (s *Service) ClearConversation(ctx context.Context) error {
	s.mu.Lock()
	s.history.Clear()
	s.buffer.Reset()
	s.inflight = false
	old := s.session
	oldDone := s.pumpDone
	s.session = nil
	s.pumpDone = nil
	wasConnected := s.connected
	model := s.model
	if !wasConnected {
		s.state = StateDisconnected
	}
	s.mu.Unlock()

	s.retireSession(old, oldDone)

	if !wasConnected {
		return nil
	}

	sess, err := s.openSession(ctx, model)
	if err != nil {
		s.mu.Lock()
		s.connected = false
		s.state = StateError
		s.mu.Unlock()
		return fmt.Errorf("reopening session: %w", err)
	}

	s.mu.Lock()
	s.adoptSession(sess)
	s.state = StateReady
	s.mu.Unlock()

	s.logger.Debug("conversation cleared, session replaced")
	return nil
}

// Close shuts the service down. Idempotent and never fails: close errors
// are logged, not returned.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.connected = false
	sess := s.session
	done := s.pumpDone
	s.session = nil
	s.pumpDone = nil
	s.state = StateDisconnected
	s.mu.Unlock()

	s.retireSession(sess, done)

	if err := s.transport.Close(); err != nil {
		s.logger.Debug("closing transport", "error", err)
	}
}

// openSession creates a session with the fixed configuration.
func (s *Service) openSession(ctx context.Context, model string) (Session, error) {
	return s.transport.CreateSession(ctx, SessionConfig{
		Model:        model,
		SystemPrompt: systemPrompt,
		Streaming:    true,
	})
}

// adoptSession installs the session and starts its event pump.
// Caller holds s.mu.
func (s *Service) adoptSession(sess Session) {
	done := make(chan struct{})
	s.session = sess
	s.pumpDone = done
	go s.pump(sess, done)
}

// retireSession closes a session and waits for its pump to drain.
func (s *Service) retireSession(sess Session, done chan struct{}) {
	if sess == nil {
		return
	}
	if err := sess.Close(); err != nil {
		s.logger.Debug("closing session", "error", err)
	}
	if done != nil {
		<-done
	}
}

// pump consumes session events until the event channel closes. It is the
// only goroutine that reads events, so deltas are forwarded in arrival
// order with none dropped or reordered.
func (s *Service) pump(sess Session, done chan struct{}) {
	defer close(done)
	for ev := range sess.Events() {
		s.handleEvent(ev)
	}

	// The channel closed underneath an in-flight response (session retired
	// or transport died): discard the partial buffer.
	s.mu.Lock()
	if s.inflight {
		s.inflight = false
		s.buffer.Reset()
		if s.state == StateStreaming {
			s.state = StateReady
		}
	}
	s.mu.Unlock()
}

// handleEvent dispatches one inbound event. Events that do not belong to an
// in-flight response (late deltas after an abort, the aborted response's
// terminal message, unknown types) are discarded.
func (s *Service) handleEvent(ev Event) {
	switch ev.Type {
	case EventDelta:
		s.mu.Lock()
		if !s.inflight {
			s.mu.Unlock()
			return
		}
		s.buffer.WriteString(ev.Delta)
		h := s.streamHandler
		s.mu.Unlock()

		if h != nil {
			h(ev.Delta)
		}

	case EventMessage:
		s.mu.Lock()
		if !s.inflight {
			s.mu.Unlock()
			return
		}
		s.inflight = false
		s.buffer.Reset()

		var msg chat.Message
		delivered := strings.TrimSpace(ev.Content) != ""
		if delivered {
			msg = chat.NewMessage(chat.RoleAssistant, ev.Content)
			s.history.Add(msg)
		}
		if s.state == StateStreaming {
			s.state = StateReady
		}
		h := s.messageHandler
		s.mu.Unlock()

		if delivered && h != nil {
			h(msg)
		}

	case EventError:
		s.logger.Warn("session error event", "error", ev.Err)
		s.mu.Lock()
		if s.inflight {
			s.inflight = false
			s.buffer.Reset()
			if s.state == StateStreaming {
				s.state = StateReady
			}
		}
		s.mu.Unlock()

	default:
		s.logger.Warn("ignoring unknown session event", "type", int(ev.Type))
	}
}
