// Package session keeps per-conversation state for the chat loop: the
// running message history handed to the model on every turn, plus session
// identity for tracing and eval reports.
package session

import (
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
)

// Session identifies one chat conversation.
type Session struct {
	ID        uuid.UUID
	StartedAt time.Time
	History   *History
}

// New creates a fresh session with an empty history.
func New() *Session {
	return &Session{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		History:   NewHistory(),
	}
}

// History holds the conversation messages with thread-safe access.
// The zero value is not useful; use NewHistory.
type History struct {
	mu       sync.RWMutex
	messages []*ai.Message
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{messages: make([]*ai.Message, 0)}
}

// AddTurn appends a user message and the assistant answer for it.
func (h *History) AddTurn(userInput, assistantAnswer string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages,
		ai.NewUserMessage(ai.NewTextPart(userInput)),
		ai.NewModelMessage(ai.NewTextPart(assistantAnswer)),
	)
}

// AddMessage appends a single message. Nil messages are ignored.
func (h *History) AddMessage(msg *ai.Message) {
	if msg == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

// Messages returns a copy of the history for thread-safe handoff to the
// model client.
func (h *History) Messages() []*ai.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*ai.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Count returns the number of stored messages.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Clear removes all messages, keeping the session alive.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = h.messages[:0]
}

// TrimTo drops the oldest messages until at most n remain. Whole turns are
// kept: n is rounded down to an even count so a user message is never left
// without its answer.
func (h *History) TrimTo(n int) {
	if n < 0 {
		n = 0
	}
	n -= n % 2
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.messages) <= n {
		return
	}
	kept := make([]*ai.Message, n)
	copy(kept, h.messages[len(h.messages)-n:])
	h.messages = kept
}
