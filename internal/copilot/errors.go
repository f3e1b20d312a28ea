package copilot

import "errors"

// Sentinel errors for orchestrator operations, checked with errors.Is().
var (
	// ErrNotReady indicates an operation that requires a ready session was
	// attempted while disconnected or mid-response.
	ErrNotReady = errors.New("not connected: call Connect first")

	// ErrAlreadyConnected indicates Connect was called on a live session.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrNotStreaming indicates Abort was called with no response in flight.
	ErrNotStreaming = errors.New("no response is streaming")
)
