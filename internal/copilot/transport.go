package copilot

import "context"

// SessionConfig is the fixed configuration a session is created with.
// The Service always enables streaming and appends its system instruction.
type SessionConfig struct {
	Model        string
	SystemPrompt string
	Streaming    bool
}

// Transport abstracts the chat backend. The Service depends only on this
// shape, never on a concrete SDK.
type Transport interface {
	// Start establishes the client connection. Idempotent.
	Start(ctx context.Context) error

	// CreateSession opens a conversation session with the given config.
	CreateSession(ctx context.Context, cfg SessionConfig) (Session, error)

	// Close releases the client. Sessions created from the transport are
	// invalid afterwards.
	Close() error
}

// Session is a single conversation with the backend.
//
// Send is asynchronous: the response arrives on Events() as zero or more
// EventDelta events followed by exactly one terminal EventMessage (or an
// EventError). SendAndWait is synchronous and emits no events.
//
// Events() delivers events in arrival order and is closed when the session
// is closed.
type Session interface {
	Send(ctx context.Context, prompt string) error
	SendAndWait(ctx context.Context, prompt string) (string, error)
	Abort(ctx context.Context) error
	Events() <-chan Event
	Close() error
}
