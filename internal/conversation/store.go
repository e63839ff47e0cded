// Package conversation keeps short-lived chat history per session.
package conversation

import (
	"sync"

	"laptoprag/internal/domain"
)

// DefaultMaxTurns is the number of turns retained per session.
const DefaultMaxTurns = 20

// Store maps session ids to a bounded, ordered list of turns. Older turns
// are evicted first. History lives only as long as the process.
//
// Each operation is atomic, but a caller that reads with Get and later
// calls Append is not serialized against other requests for the same
// session: concurrent messages in one session may interleave their turns.
type Store struct {
	mu       sync.RWMutex
	maxTurns int
	sessions map[string][]domain.Turn
}

// NewStore creates an empty store. maxTurns <= 0 selects DefaultMaxTurns.
func NewStore(maxTurns int) *Store {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Store{maxTurns: maxTurns, sessions: make(map[string][]domain.Turn)}
}

// MaxTurns returns the per-session capacity.
func (s *Store) MaxTurns() int { return s.maxTurns }

// Get returns a copy of the session history, empty if the session is unseen.
func (s *Store) Get(sessionID string) []domain.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.sessions[sessionID]
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out
}

// Append adds turns to the session and truncates it to the last MaxTurns
// entries. The stored slice is replaced, never mutated in place, so copies
// handed out by Get stay valid.
func (s *Store) Append(sessionID string, turns ...domain.Turn) []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.sessions[sessionID]
	next := make([]domain.Turn, 0, len(prev)+len(turns))
	next = append(next, prev...)
	next = append(next, turns...)
	if len(next) > s.maxTurns {
		next = next[len(next)-s.maxTurns:]
	}
	s.sessions[sessionID] = next

	out := make([]domain.Turn, len(next))
	copy(out, next)
	return out
}

// Reset forgets a session.
func (s *Store) Reset(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len returns the number of known sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
