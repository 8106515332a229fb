package memory

import (
	"sync"

	"github.com/PabloGalante/fable-engine/internal/domain"
)

// SessionStore is the volatile, single-process session map. Sessions are
// created on first touch and live for the process lifetime.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[domain.SessionID]*domain.Session),
	}
}

// GetOrCreate returns the existing session or atomically creates one with
// the fixed default game state. Creation never fails.
func (s *SessionStore) GetOrCreate(id domain.SessionID) *domain.Session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have won the race between the two locks.
	if sess, ok := s.sessions[id]; ok {
		return sess
	}

	sess = &domain.Session{
		ID:    id,
		State: domain.NewGameState(),
	}
	s.sessions[id] = sess
	return sess
}

// ReplaceState exclusively overwrites the session's canonical state.
// Version-guard correctness is the caller's responsibility.
func (s *SessionStore) ReplaceState(id domain.SessionID, state *domain.GameState) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return
	}
	sess.State = state
}
