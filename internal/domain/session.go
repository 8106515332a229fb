package domain

import "sync"

// Exchange is one verbatim player-action/scene pair awaiting compaction.
type Exchange struct {
	Action string `json:"action"`
	Scene  string `json:"scene"`
}

// Session is the mutable per-player record. It lives for the process
// lifetime and is owned by the session store; the turn service and the
// summary compactor are its only writers.
type Session struct {
	ID SessionID

	// Summary is the rolling compressed memory. It is replaced, never
	// appended to, when the recent buffer folds into it.
	Summary string

	// Recent holds the short-term exchange buffer in turn order. It is
	// cleared atomically after folding.
	Recent []Exchange

	// LastScene is the full text of the most recent narration.
	LastScene string

	// State is the canonical versioned game state.
	State *GameState

	mu sync.Mutex
}

// Lock serializes turns against this session. Concurrent turns on one
// session execute strictly in order; the /version test op in each patch
// still guards against stale snapshots.
func (s *Session) Lock() { s.mu.Lock() }

func (s *Session) Unlock() { s.mu.Unlock() }
