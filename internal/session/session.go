// Package session keeps per-conversation chat history in memory.
//
// History is bounded: each session retains at most the configured number of
// recent exchanges (a user message and the assistant reply), with the
// oldest exchange dropped first. Sessions are created lazily and identified
// by UUID.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/coursechat/coursechat/internal/llm"
)

// Store holds all active sessions. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]llm.Message
	maxTurns int
}

// NewStore creates a session store keeping at most maxTurns exchanges per
// session. maxTurns must be positive.
func NewStore(maxTurns int) *Store {
	if maxTurns <= 0 {
		maxTurns = 1
	}
	return &Store{
		sessions: make(map[string][]llm.Message),
		maxTurns: maxTurns,
	}
}

// Create allocates a new empty session and returns its ID.
func (s *Store) Create() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = nil
	s.mu.Unlock()
	return id
}

// History returns a copy of the session's messages in chronological order.
// An unknown session yields an empty history.
func (s *Store) History(id string) []llm.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.sessions[id]
	out := make([]llm.Message, len(msgs))
	copy(out, msgs)
	return out
}

// Append records one completed exchange. The session is created on first
// use if the ID is unknown. When the history exceeds the turn limit the
// oldest exchange is dropped.
func (s *Store) Append(id, userText, assistantText string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := append(s.sessions[id],
		llm.Message{Role: llm.RoleUser, Text: userText},
		llm.Message{Role: llm.RoleAssistant, Text: assistantText},
	)
	if max := s.maxTurns * 2; len(msgs) > max {
		msgs = msgs[len(msgs)-max:]
	}
	s.sessions[id] = msgs
}

// Clear removes a session and its history.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len reports the number of active sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
