package domain

import (
	"sync"
	"time"
)

// Role identifies the speaker of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// History is the ordered sequence of turns of one conversation.
type History []Turn

// Append returns a new History with turns added.
// The receiver is never modified.
func (h History) Append(turns ...Turn) History {
	out := make(History, 0, len(h)+len(turns))
	out = append(out, h...)
	return append(out, turns...)
}

// Session is the state of one conversation.
// Turns on a session are serialised; reading the history never waits
// for a turn in progress.
type Session struct {
	// ID is the opaque conversation identifier.
	ID string

	// CreatedAt is when the session was first seen.
	CreatedAt time.Time

	turn sync.Mutex

	mu        sync.Mutex
	history   History
	updatedAt time.Time
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{ID: id, CreatedAt: now, updatedAt: now}
}

// History returns a copy of the session's turns.
func (s *Session) History() History {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Append()
}

// UpdatedAt returns when the history last changed.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Update runs fn with the current history, one turn at a time.
// The history returned by fn replaces the stored one only when fn succeeds.
func (s *Session) Update(fn func(History) (History, error)) error {
	s.turn.Lock()
	defer s.turn.Unlock()

	next, err := fn(s.History())
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.history = next
	s.updatedAt = time.Now()
	s.mu.Unlock()
	return nil
}
