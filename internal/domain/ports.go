package domain

import "context"

// Prompt is the pair of instruction blocks sent to the model.
type Prompt struct {
	System string
	User   string
}

// StoryModel defines how the core application talks to an LLM service.
type StoryModel interface {
	// StreamBundle generates the schema-constrained structured payload for a
	// turn, invoking onChunk for every raw text fragment as it arrives, and
	// returns the complete buffered payload.
	StreamBundle(ctx context.Context, p Prompt, onChunk func(text string)) (string, error)

	// Complete runs a single non-streaming completion (summary folding).
	Complete(ctx context.Context, p Prompt) (string, error)
}

// SessionStore defines session persistence. Creation never fails; the
// store hands out the one live Session per id.
type SessionStore interface {
	GetOrCreate(id SessionID) *Session
	ReplaceState(id SessionID, state *GameState)
}
