// Package history implements the process-wide conversation buffer shared by
// every handler.
//
// The buffer is a bounded ring: appending beyond capacity evicts the oldest
// turn. It is passed explicitly into the router and each handler rather
// than living as a package-level singleton, so tests can run isolated
// buffers side by side.
package history

import (
	"fmt"
	"sync"
	"time"
)

// Role identifies which side of the conversation produced a turn.
type Role string

// Valid turn roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultCapacity is the number of turns kept when no capacity is configured.
const DefaultCapacity = 20

// Turn is a single utterance in the shared conversation. Turns are immutable
// once appended.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// String renders the turn the way it is embedded into prompts.
func (t Turn) String() string {
	return fmt.Sprintf("%s: %s", t.Role, t.Text)
}

// Buffer is a fixed-capacity, append-only sequence of recent turns.
//
// Buffer is safe for concurrent use. Append and eviction happen under a
// single mutex so concurrent sessions can never corrupt ordering or grow
// the buffer past its capacity.
type Buffer struct {
	mu       sync.Mutex
	capacity int
	turns    []Turn
}

// NewBuffer creates a buffer holding at most capacity turns.
// A non-positive capacity falls back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		turns:    make([]Turn, 0, capacity),
	}
}

// Append adds a turn, evicting the oldest entry when the buffer is full.
func (b *Buffer) Append(role Role, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.turns) == b.capacity {
		copy(b.turns, b.turns[1:])
		b.turns = b.turns[:b.capacity-1]
	}
	b.turns = append(b.turns, Turn{Role: role, Text: text, Timestamp: time.Now()})
}

// AppendExchange records a completed user/assistant turn pair.
func (b *Buffer) AppendExchange(question, answer string) {
	b.Append(RoleUser, question)
	b.Append(RoleAssistant, answer)
}

// Turns returns a copy of the current contents, oldest first.
func (b *Buffer) Turns() []Turn {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Turn, len(b.turns))
	copy(out, b.turns)
	return out
}

// Strings returns the buffer contents as plain "role: text" lines, the flat
// projection persisted into session state.
func (b *Buffer) Strings() []string {
	turns := b.Turns()
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = t.String()
	}
	return out
}

// Len returns the number of buffered turns.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.turns)
}

// Capacity returns the fixed maximum length.
func (b *Buffer) Capacity() int {
	return b.capacity
}
