package llm

import (
	"context"
	"sync"

	"github.com/PabloGalante/fable-engine/internal/domain"
)

// NewScriptedModel returns a scripted model with a plausible first-turn
// bundle, good enough to exercise the full pipeline without credentials.
func NewScriptedModel() *ScriptedModel {
	return &ScriptedModel{
		BundleJSON: `{
  "schema_version": "1.2",
  "operation_id": "scripted-turn",
  "base_version": 1,
  "scene": "You stand at a windswept crossroads. A crow eyes you from a leaning signpost; one arm points toward distant smoke.",
  "patch": [
    {"op": "test", "path": "/version", "value": 1},
    {"op": "replace", "path": "/player/location", "value": "crossroads_signpost"},
    {"op": "replace", "path": "/version", "value": 2}
  ],
  "next_actions": ["Follow the smoke", "Question the crow"],
  "mechanics": {
    "skill_used": "athletics",
    "skill_value": 10,
    "difficulty": 0.2,
    "rand": 0.1,
    "p": 0.05,
    "outcome": "fail",
    "notes": "scripted response"
  }
}`,
		SummaryText: "- The journey began at a windswept crossroads marked by a leaning signpost.",
	}
}

// ScriptedModel replays canned responses. It backs FABLE_USE_MOCK_LLM in
// dev and every test that needs a deterministic model.
type ScriptedModel struct {
	// BundleJSON is replayed by StreamBundle in ChunkSize pieces.
	BundleJSON string

	// SummaryText is returned by Complete.
	SummaryText string

	// ChunkSize controls streaming granularity; defaults to 7 bytes to
	// exercise chunk boundaries inside escapes and runes.
	ChunkSize int

	StreamErr   error
	CompleteErr error

	mu            sync.Mutex
	prompts       []domain.Prompt
	completeCalls int
}

func (m *ScriptedModel) StreamBundle(ctx context.Context, p domain.Prompt, onChunk func(text string)) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, p)
	m.mu.Unlock()

	if m.StreamErr != nil {
		return "", m.StreamErr
	}

	size := m.ChunkSize
	if size <= 0 {
		size = 7
	}
	for i := 0; i < len(m.BundleJSON); i += size {
		end := min(i+size, len(m.BundleJSON))
		onChunk(m.BundleJSON[i:end])
	}
	return m.BundleJSON, nil
}

func (m *ScriptedModel) Complete(ctx context.Context, p domain.Prompt) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, p)
	m.completeCalls++
	m.mu.Unlock()

	if m.CompleteErr != nil {
		return "", m.CompleteErr
	}
	return m.SummaryText, nil
}

// Prompts returns every prompt the model has seen, in call order.
func (m *ScriptedModel) Prompts() []domain.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Prompt(nil), m.prompts...)
}

// CompleteCalls reports how many times Complete ran.
func (m *ScriptedModel) CompleteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completeCalls
}
