package story

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PabloGalante/fable-engine/internal/app/locale"
	"github.com/PabloGalante/fable-engine/internal/domain"
)

// Character budgets keep prompt size bounded regardless of how long a
// session has been running.
const (
	summaryBudget   = 1000
	lastSceneBudget = 600
	exchangeBudget  = 350
)

// PromptInputs is everything the prompt builder needs for one turn. The
// two random draws are injected so the builder stays deterministic.
type PromptInputs struct {
	State     *domain.GameState
	Character domain.Character
	Action    string
	Summary   string
	LastScene string
	Recent    []domain.Exchange

	Difficulty float64
	Roll       float64
}

// BuildPrompt produces the system and user instruction blocks. It is a
// pure function of its inputs.
func BuildPrompt(in PromptInputs) domain.Prompt {
	loc := locale.For(in.Character.Language)

	return domain.Prompt{
		System: buildSystemPrompt(loc),
		User:   buildUserPrompt(in, loc),
	}
}

func buildSystemPrompt(loc locale.Strings) string {
	var b strings.Builder

	b.WriteString(loc.NarratorIntro)
	b.WriteString("\n\n")
	b.WriteString(`Authoritative mechanics (YOU decide success/fail):
- Each turn you receive: SKILLS (0..100 per skill), a player action, RAND in [0,1], DIFFICULTY in [0,1].
- Determine the most relevant skill for the action.
- Compute success probability p using this exact formula (NO other factors):
    base  = SKILLS[relevant] / 100
    p_raw = base - DIFFICULTY
    p     = clamp(p_raw, 0.05, 0.95)
  Success = (RAND < p)
- If the action is blatantly implausible given common sense or world state, set outcome to "blocked" (no rewards; time may advance).

Response contract — respond with ONE JSON object and nothing else:
{
  "schema_version": "1.2",
  "operation_id": "<unique id for this turn>",
  "base_version": <the version from the game state snapshot>,
  "scene": "<narration, max 40 words>",
  "patch": [ ...RFC 6902 ops... ],
  "next_actions": [ ...up to 2 short suggestions... ],
  "mechanics": {
    "skill_used": "<string>", "skill_value": <0..100>,
    "difficulty": <0..1>, "rand": <0..1>, "p": <0..1>,
    "outcome": "success" | "fail" | "blocked",
    "notes": "<short reasoning>"
  }
}

Patch rules:
- The FIRST patch op MUST be {"op":"test","path":"/version","value": <base_version>}.
- If you change anything, the LAST state op must replace /version with base_version + 1.
- Patch only existing fields (use "replace", not "add"); use "add"/"remove" only for inventory entries.
- Reference inventory rows by the exact indices in the inventory table; append new items at "/player/inventory/-".
- Never leave an inventory entry with qty <= 0: remove the row instead.
- Keep the patch minimal and consistent with mechanics.outcome. Never put prose inside the patch.

`)
	b.WriteString(loc.NarrationLanguage)
	b.WriteString("\nMaintain continuity with the summary and last scene. Do not contradict established facts.")

	return b.String()
}

func buildUserPrompt(in PromptInputs, loc locale.Strings) string {
	var b strings.Builder

	section := func(title, body string) {
		b.WriteString("=== ")
		b.WriteString(title)
		b.WriteString(" ===\n")
		if body == "" {
			body = "(none)"
		}
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	section(loc.SectionSummary, TruncateTail(in.Summary, summaryBudget))
	section(loc.SectionRecent, formatRecent(in.Recent))
	section(loc.SectionLastScene, TruncateTail(in.LastScene, lastSceneBudget))
	section(loc.SectionAction, in.Action)

	stateJSON, _ := json.Marshal(in.State)
	charJSON, _ := json.Marshal(in.Character)
	section(loc.SectionState,
		string(stateJSON)+"\n\nCharacter sheet:\n"+string(charJSON)+
			"\n\nInventory table (reference rows by these indices):\n"+formatInventoryTable(in.State.Player.Inventory))

	mechJSON, _ := json.Marshal(map[string]any{
		"skills":       in.State.Player.Skills,
		"rand":         in.Roll,
		"difficulty":   in.Difficulty,
		"base_version": in.State.Version,
	})
	section(loc.SectionMechanics, string(mechJSON))

	section(loc.SectionRules, fmt.Sprintf(`- Resolve the action with the mechanics formula; outcome = success/fail/blocked.
- If blocked: explain briefly in the scene, propose only minimal non-reward changes (e.g. a time or flag field).
- If fail: fail forward where logical (small setback, clue, noise); modest costs only.
- If success: propose logical progress and rewards (items, flags, quest steps).
- Use base_version = %d and make the first patch op the /version test.`, in.State.Version))

	return strings.TrimSpace(b.String())
}

func formatRecent(recent []domain.Exchange) string {
	if len(recent) == 0 {
		return ""
	}
	parts := make([]string, 0, len(recent))
	for i, ex := range recent {
		entry := fmt.Sprintf("#%d Player: %s\nScene: %s", i+1, ex.Action, ex.Scene)
		parts = append(parts, TruncateTail(entry, exchangeBudget))
	}
	return strings.Join(parts, "\n\n")
}

// formatInventoryTable lists id -> index and quantity so the model can
// patch rows by exact position instead of guessing.
func formatInventoryTable(inv []domain.InventoryItem) string {
	if len(inv) == 0 {
		return "(empty)"
	}
	var b strings.Builder
	for i, item := range inv {
		fmt.Fprintf(&b, "%s -> /player/inventory/%d (qty %d)\n", item.ID, i, item.Qty)
	}
	return strings.TrimRight(b.String(), "\n")
}

// TruncateTail bounds s to at most budget bytes, keeping the tail and
// discarding a leading partial word so truncation never splits a word.
// Truncating an already-truncated string is a no-op.
func TruncateTail(s string, budget int) string {
	if budget <= 0 {
		return ""
	}
	if len(s) <= budget {
		return s
	}
	t := s[len(s)-budget:]
	if i := strings.IndexByte(t, ' '); i >= 0 {
		return strings.TrimLeft(t[i+1:], " ")
	}
	// No word boundary; at least do not split a rune.
	for len(t) > 0 && !utf8.RuneStart(t[0]) {
		t = t[1:]
	}
	return t
}
