package chat

// DefaultMaxMessages is the history bound used when none is configured.
const DefaultMaxMessages = 100

// History is an ordered, size-bounded store of conversation messages.
// Insertion order is chronological order. When the bound is exceeded the
// oldest messages are evicted first; the bound is fixed at construction.
//
// History has exactly one writer (the session orchestrator) and performs no
// internal locking. Readers receive defensive copies, so the bound invariant
// cannot be broken from outside.
type History struct {
	messages    []Message
	maxMessages int
}

// NewHistory creates a history bounded to maxMessages.
// Values <= 0 fall back to DefaultMaxMessages.
func NewHistory(maxMessages int) *History {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &History{
		messages:    make([]Message, 0, maxMessages),
		maxMessages: maxMessages,
	}
}

// Add appends a message and evicts from the front if the bound is exceeded.
func (h *History) Add(msg Message) {
	h.messages = append(h.messages, msg)
	if excess := len(h.messages) - h.maxMessages; excess > 0 {
		// Shift in place rather than reslicing so the evicted prefix does
		// not pin the backing array forever.
		n := copy(h.messages, h.messages[excess:])
		h.messages = h.messages[:n]
	}
}

// Messages returns a snapshot of the conversation in chronological order.
// Mutating the returned slice does not affect the history.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Size returns the number of stored messages.
func (h *History) Size() int { return len(h.messages) }

// MaxMessages returns the bound fixed at construction.
func (h *History) MaxMessages() int { return h.maxMessages }

// Clear removes all messages. The bound is unchanged.
func (h *History) Clear() {
	h.messages = h.messages[:0]
}

// Last returns the most recent message, if any.
func (h *History) Last() (Message, bool) {
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// LastAssistant returns the most recent assistant message, if any.
func (h *History) LastAssistant() (Message, bool) {
	for i := len(h.messages) - 1; i >= 0; i-- {
		if h.messages[i].IsFromAssistant() {
			return h.messages[i], true
		}
	}
	return Message{}, false
}

// ByRole returns all messages with the given role, in chronological order.
func (h *History) ByRole(role Role) []Message {
	var out []Message
	for _, m := range h.messages {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}
