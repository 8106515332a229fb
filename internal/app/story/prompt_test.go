package story

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/fable-engine/internal/domain"
)

func promptInputs() PromptInputs {
	return PromptInputs{
		State:      domain.NewGameState(),
		Character:  domain.Character{Name: "Mira", Class: "rogue", Language: "en"},
		Action:     "pick the lock",
		Summary:    "- Mira owes the innkeeper a favor.",
		LastScene:  "The cellar door looms, padlocked.",
		Difficulty: 0.4,
		Roll:       0.2,
	}
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	in := promptInputs()
	a := BuildPrompt(in)
	b := BuildPrompt(in)
	assert.Equal(t, a, b)
}

func TestBuildPromptStatesMechanicsContract(t *testing.T) {
	p := BuildPrompt(promptInputs())

	assert.Contains(t, p.System, "p     = clamp(p_raw, 0.05, 0.95)")
	assert.Contains(t, p.System, `{"op":"test","path":"/version","value": <base_version>}`)
	assert.Contains(t, p.System, "max 40 words")
	assert.Contains(t, p.User, `"difficulty":0.4`)
	assert.Contains(t, p.User, `"rand":0.2`)
	assert.Contains(t, p.User, `"base_version":1`)
}

func TestBuildPromptEmitsInventoryIndexTable(t *testing.T) {
	in := promptInputs()
	in.State.Player.Inventory = []domain.InventoryItem{
		{ID: "rusty_dagger", Qty: 1},
		{ID: "healing_potion", Qty: 3},
	}

	p := BuildPrompt(in)
	assert.Contains(t, p.User, "rusty_dagger -> /player/inventory/0 (qty 1)")
	assert.Contains(t, p.User, "healing_potion -> /player/inventory/1 (qty 3)")
}

func TestBuildPromptBoundsArbitraryInputs(t *testing.T) {
	in := promptInputs()
	in.Summary = strings.Repeat("lorem ipsum ", 2000)
	in.LastScene = strings.Repeat("dolor sit amet ", 500)
	in.Recent = []domain.Exchange{
		{Action: strings.Repeat("run ", 400), Scene: strings.Repeat("far ", 400)},
	}

	p := BuildPrompt(in)

	summarySegment := sectionBody(t, p.User, "CANON SUMMARY (compact memory of prior story)")
	assert.LessOrEqual(t, len(summarySegment), 1000)

	lastSceneSegment := sectionBody(t, p.User, "LAST SCENE")
	assert.LessOrEqual(t, len(lastSceneSegment), 600)

	recentSegment := sectionBody(t, p.User, "RECENT EXCHANGES (oldest first)")
	assert.LessOrEqual(t, len(recentSegment), 350)
}

func sectionBody(t *testing.T, prompt, title string) string {
	t.Helper()
	marker := "=== " + title + " ===\n"
	i := strings.Index(prompt, marker)
	require.GreaterOrEqual(t, i, 0, "section %q missing", title)
	body := prompt[i+len(marker):]
	if j := strings.Index(body, "=== "); j >= 0 {
		body = body[:j]
	}
	return strings.TrimSpace(body)
}

func TestBuildPromptUsesDutchTemplates(t *testing.T) {
	in := promptInputs()
	in.Character.Language = "nl"

	p := BuildPrompt(in)
	assert.Contains(t, p.System, "Vertel in het Nederlands")
	assert.Contains(t, p.User, "VERHAAL SAMENVATTING")
	assert.NotContains(t, p.User, "CANON SUMMARY")
}

func TestTruncateTail(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		budget int
		want   string
	}{
		{"fits", "short", 10, "short"},
		{"keeps tail and drops partial word", "alpha beta gamma", 10, "gamma"},
		{"zero budget", "anything", 0, ""},
		{"exact fit", "12345", 5, "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateTail(tt.s, tt.budget))
		})
	}
}

func TestTruncateTailIsIdempotent(t *testing.T) {
	long := strings.Repeat("some words here ", 200)
	once := TruncateTail(long, 1000)
	twice := TruncateTail(once, 1000)
	assert.Equal(t, once, twice)
	assert.LessOrEqual(t, len(once), 1000)
}

func TestTruncateTailWithoutWordBoundaryKeepsRunesIntact(t *testing.T) {
	long := strings.Repeat("héllo", 100) // no spaces at all
	got := TruncateTail(long, 7)
	assert.True(t, len(got) <= 7)
	assert.True(t, strings.HasSuffix(long, got))
	for _, r := range got {
		assert.NotEqual(t, '�', r)
	}
}
