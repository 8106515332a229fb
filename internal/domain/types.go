package domain

type SessionID string

// Character carries the per-turn player overrides sent by the client.
// Skills is optional; when present every value is clamped before it
// touches session state.
type Character struct {
	Name      string   `json:"name"`
	Class     string   `json:"class"`
	Traits    []string `json:"traits"`
	Backstory string   `json:"backstory"`
	Language  string   `json:"language"` // "en" or "nl"
	Skills    *Skills  `json:"skills,omitempty"`
}
