package chat

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_AddAndSize(t *testing.T) {
	t.Parallel()

	h := NewHistory(10)
	assert.Equal(t, 0, h.Size())

	h.Add(NewMessage(RoleUser, "hello"))
	h.Add(NewMessage(RoleAssistant, "hi"))

	assert.Equal(t, 2, h.Size())
}

func TestHistory_DefaultBound(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultMaxMessages, NewHistory(0).MaxMessages())
	assert.Equal(t, DefaultMaxMessages, NewHistory(-5).MaxMessages())
	assert.Equal(t, 3, NewHistory(3).MaxMessages())
}

func TestHistory_EvictsOldestFirst(t *testing.T) {
	t.Parallel()

	const bound = 5
	const extra = 3

	h := NewHistory(bound)
	for i := 0; i < bound+extra; i++ {
		h.Add(NewMessage(RoleUser, fmt.Sprintf("msg-%d", i)))
	}

	require.Equal(t, bound, h.Size())

	msgs := h.Messages()
	// The oldest `extra` messages are gone; the rest keep relative order.
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("msg-%d", i+extra), m.Content)
	}
}

func TestHistory_MessagesSnapshotIsIndependent(t *testing.T) {
	t.Parallel()

	h := NewHistory(10)
	h.Add(NewMessage(RoleUser, "original"))

	snapshot := h.Messages()
	snapshot[0] = NewMessage(RoleSystem, "tampered")

	msgs := h.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "original", msgs[0].Content)
	assert.Equal(t, RoleUser, msgs[0].Role)
}

func TestHistory_Clear(t *testing.T) {
	t.Parallel()

	h := NewHistory(10)
	h.Add(NewMessage(RoleUser, "one"))
	h.Add(NewMessage(RoleAssistant, "two"))

	h.Clear()

	assert.Equal(t, 0, h.Size())
	_, ok := h.Last()
	assert.False(t, ok)

	// Still usable after clearing.
	h.Add(NewMessage(RoleUser, "three"))
	assert.Equal(t, 1, h.Size())
}

func TestHistory_Last(t *testing.T) {
	t.Parallel()

	h := NewHistory(10)

	_, ok := h.Last()
	assert.False(t, ok)

	h.Add(NewMessage(RoleUser, "first"))
	h.Add(NewMessage(RoleAssistant, "second"))

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, "second", last.Content)
}

func TestHistory_LastAssistant(t *testing.T) {
	t.Parallel()

	h := NewHistory(10)
	h.Add(NewMessage(RoleUser, "U"))
	h.Add(NewMessage(RoleAssistant, "A1"))
	h.Add(NewMessage(RoleUser, "U2"))
	h.Add(NewMessage(RoleAssistant, "A2"))

	msg, ok := h.LastAssistant()
	require.True(t, ok)
	assert.Equal(t, "A2", msg.Content)
}

func TestHistory_LastAssistant_NoneFound(t *testing.T) {
	t.Parallel()

	h := NewHistory(10)
	h.Add(NewMessage(RoleUser, "only users here"))
	h.Add(NewMessage(RoleSystem, "and a notice"))

	_, ok := h.LastAssistant()
	assert.False(t, ok)
}

func TestHistory_ByRole(t *testing.T) {
	t.Parallel()

	h := NewHistory(10)
	h.Add(NewMessage(RoleUser, "u1"))
	h.Add(NewMessage(RoleAssistant, "a1"))
	h.Add(NewMessage(RoleUser, "u2"))

	users := h.ByRole(RoleUser)
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].Content)
	assert.Equal(t, "u2", users[1].Content)

	assert.Empty(t, h.ByRole(RoleSystem))
}

func TestMessage_Equality(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := NewMessageAt(RoleUser, "same", ts)
	b := NewMessageAt(RoleUser, "same", ts)

	assert.Equal(t, a, b)
	assert.True(t, a == b)
}

func TestMessage_RolePredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, NewMessage(RoleUser, "x").IsFromUser())
	assert.True(t, NewMessage(RoleAssistant, "x").IsFromAssistant())
	assert.True(t, NewMessage(RoleSystem, "x").IsFromSystem())
	assert.False(t, NewMessage(RoleUser, "x").IsFromAssistant())
}
