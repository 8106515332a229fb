package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Outcome is the resolved result of a skill check.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFail    Outcome = "fail"
	OutcomeBlocked Outcome = "blocked"
)

// Mechanics is the transparent skill-check computation the model must
// disclose each turn. It is surfaced to the client and never persisted.
type Mechanics struct {
	SkillUsed  string  `json:"skill_used"`
	SkillValue int     `json:"skill_value"`
	Difficulty float64 `json:"difficulty"`
	Rand       float64 `json:"rand"`
	P          float64 `json:"p"`
	Outcome    Outcome `json:"outcome"`
	Notes      string  `json:"notes"`
}

// PatchBundle is the complete structured payload the model emits per turn.
type PatchBundle struct {
	SchemaVersion string    `json:"schema_version"`
	OperationID   string    `json:"operation_id"`
	BaseVersion   int       `json:"base_version"`
	Scene         string    `json:"scene"`
	Patch         []PatchOp `json:"patch"`
	NextActions   []string  `json:"next_actions"`
	Mechanics     Mechanics `json:"mechanics"`
}

// DecodeBundle parses and sanity-checks a complete structured payload.
// Anything malformed is an error; the caller degrades to narration-only.
func DecodeBundle(raw []byte) (*PatchBundle, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, fmt.Errorf("empty structured payload")
	}

	var b PatchBundle
	if err := json.Unmarshal([]byte(trimmed), &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}

	if b.Scene == "" {
		return nil, fmt.Errorf("bundle missing scene")
	}
	if b.BaseVersion < 1 {
		return nil, fmt.Errorf("bundle has invalid base_version %d", b.BaseVersion)
	}
	if len(b.Patch) == 0 {
		return nil, fmt.Errorf("bundle missing patch")
	}
	switch b.Mechanics.Outcome {
	case OutcomeSuccess, OutcomeFail, OutcomeBlocked:
	default:
		return nil, fmt.Errorf("bundle has invalid outcome %q", b.Mechanics.Outcome)
	}

	// Suggestions are advisory; keep at most two.
	if len(b.NextActions) > 2 {
		b.NextActions = b.NextActions[:2]
	}

	return &b, nil
}
