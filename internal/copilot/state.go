package copilot

// State is the session lifecycle state owned by the Service.
//
// Transitions: Disconnected → Connecting → Ready → Streaming → Ready, with
// Aborting as a side transition out of Streaming and Error reachable from a
// failed session reopen. Connect retries are allowed from Error.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
	StateStreaming
	StateAborting
	StateError
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateStreaming:
		return "streaming"
	case StateAborting:
		return "aborting"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
