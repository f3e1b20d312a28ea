package copilot

// EventType discriminates inbound session events.
type EventType int

const (
	// EventDelta carries a partial chunk of the in-flight response.
	EventDelta EventType = iota

	// EventMessage carries the complete response text and is the terminal
	// event for a response.
	EventMessage

	// EventError reports a transport-side failure of the in-flight response.
	EventError
)

// Event is a tagged inbound session event. The Type field selects which of
// the payload fields is meaningful; events are dispatched by a single
// exhaustive switch in the Service.
type Event struct {
	Type    EventType
	Delta   string // EventDelta
	Content string // EventMessage
	Err     error  // EventError
}
