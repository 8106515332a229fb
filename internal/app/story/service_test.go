package story_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/fable-engine/internal/adapters/llm"
	memstore "github.com/PabloGalante/fable-engine/internal/adapters/storage/memory"
	"github.com/PabloGalante/fable-engine/internal/app/story"
	"github.com/PabloGalante/fable-engine/internal/app/summary"
	"github.com/PabloGalante/fable-engine/internal/domain"
)

// frameRecorder collects every frame in emission order.
type frameRecorder struct {
	frames []story.Frame
}

func (r *frameRecorder) Send(f story.Frame) error {
	r.frames = append(r.frames, f)
	return nil
}

func (r *frameRecorder) ofType(t story.FrameType) []story.Frame {
	var out []story.Frame
	for _, f := range r.frames {
		if f.Type == t {
			out = append(out, f)
		}
	}
	return out
}

func (r *frameRecorder) deltaText() string {
	var b strings.Builder
	for _, f := range r.ofType(story.FrameDelta) {
		b.WriteString(f.Text)
	}
	return b.String()
}

func scriptedBundle(t *testing.T, baseVersion int, scene string, ops []map[string]any, mech map[string]any) string {
	t.Helper()
	if mech == nil {
		mech = map[string]any{
			"skill_used": "stealth", "skill_value": 10,
			"difficulty": 0.3, "rand": 0.1, "p": 0.05,
			"outcome": "fail", "notes": "test",
		}
	}
	raw, err := json.Marshal(map[string]any{
		"schema_version": "1.2",
		"operation_id":   "op-test",
		"base_version":   baseVersion,
		"scene":          scene,
		"patch":          ops,
		"next_actions":   []string{"Look around", "Leave"},
		"mechanics":      mech,
	})
	require.NoError(t, err)
	return string(raw)
}

func newService(model domain.StoryModel, recentLimit int) (*story.Service, *memstore.SessionStore) {
	store := memstore.NewSessionStore()
	svc := story.NewService(model, store, summary.New(model), story.ServiceConfig{
		RecentLimit: recentLimit,
		Roll:        func() float64 { return 0.5 },
	})
	return svc, store
}

func turnInput(session string) story.TurnInput {
	return story.TurnInput{
		SessionID: domain.SessionID(session),
		Character: domain.Character{Name: "Mira", Language: "en"},
		Action:    "look around",
	}
}

func TestTurnRejectsInvalidInput(t *testing.T) {
	svc, _ := newService(&llm.ScriptedModel{}, 3)

	tests := []struct {
		name string
		in   story.TurnInput
	}{
		{"empty session", story.TurnInput{Action: "go"}},
		{"empty action", story.TurnInput{SessionID: "s1"}},
		{"whitespace action", story.TurnInput{SessionID: "s1", Action: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &frameRecorder{}
			err := svc.Turn(context.Background(), tt.in, rec)
			assert.ErrorIs(t, err, story.ErrInvalidInput)
			assert.Empty(t, rec.frames, "no frames before validation")
		})
	}
}

func TestTurnStreamsAndAppliesPatch(t *testing.T) {
	scene := "You scan the crossroads. Wind stirs the grass; the signpost creaks toward distant smoke."
	model := &llm.ScriptedModel{
		BundleJSON: scriptedBundle(t, 1, scene, []map[string]any{
			{"op": "test", "path": "/version", "value": 1},
			{"op": "replace", "path": "/player/location", "value": "crossroads_east"},
			{"op": "replace", "path": "/version", "value": 2},
		}, nil),
		ChunkSize: 5,
	}
	svc, store := newService(model, 3)

	rec := &frameRecorder{}
	require.NoError(t, svc.Turn(context.Background(), turnInput("s1"), rec))

	// First frame is the status, last frame is done.
	require.NotEmpty(t, rec.frames)
	assert.Equal(t, story.FrameStatus, rec.frames[0].Type)
	assert.Equal(t, "Generating story...", rec.frames[0].Message)
	assert.Equal(t, story.FrameDone, rec.frames[len(rec.frames)-1].Type)

	// Concatenated deltas reproduce the scene exactly.
	assert.Equal(t, scene, rec.deltaText())

	// Exactly one state frame with the updated state and suggestions.
	states := rec.ofType(story.FrameState)
	require.Len(t, states, 1)
	assert.Equal(t, 2, states[0].State.Version)
	assert.Equal(t, "crossroads_east", states[0].State.Player.Location)
	assert.Equal(t, []string{"Look around", "Leave"}, states[0].NextActions)
	require.NotNil(t, states[0].Mechanics)
	assert.Equal(t, domain.OutcomeFail, states[0].Mechanics.Outcome)

	// Session state replaced and exchange recorded.
	sess := store.GetOrCreate("s1")
	assert.Equal(t, 2, sess.State.Version)
	assert.Equal(t, scene, sess.LastScene)
	require.Len(t, sess.Recent, 1)
	assert.Equal(t, "look around", sess.Recent[0].Action)
}

func TestTurnAppliesCharacterOverridesBeforePrompt(t *testing.T) {
	model := &llm.ScriptedModel{
		BundleJSON: scriptedBundle(t, 1, "A scene.", []map[string]any{
			{"op": "test", "path": "/version", "value": 1},
		}, nil),
	}
	svc, store := newService(model, 3)

	in := turnInput("s1")
	in.Character.Skills = &domain.Skills{Sword: 150, Stealth: -5, Lockpicking: 80}
	require.NoError(t, svc.Turn(context.Background(), in, &frameRecorder{}))

	sess := store.GetOrCreate("s1")
	assert.Equal(t, 100, sess.State.Player.Skills.Sword)
	assert.Equal(t, 0, sess.State.Player.Skills.Stealth)
	assert.Equal(t, 80, sess.State.Player.Skills.Lockpicking)
	assert.Equal(t, "Mira", sess.State.Player.Name)

	prompts := model.Prompts()
	require.NotEmpty(t, prompts)
	assert.Contains(t, prompts[0].User, `"lockpicking":80`)
}

func TestTurnBlockedOutcomeLeavesInventoryUntouched(t *testing.T) {
	// Scenario: blocked actions may only touch non-reward fields.
	model := &llm.ScriptedModel{
		BundleJSON: scriptedBundle(t, 1, "You cannot fly; the wind mocks you.", []map[string]any{
			{"op": "test", "path": "/version", "value": 1},
			{"op": "replace", "path": "/player/location", "value": "crossroads"},
			{"op": "replace", "path": "/version", "value": 2},
		}, map[string]any{
			"skill_used": "athletics", "skill_value": 10,
			"difficulty": 0.9, "rand": 0.4, "p": 0.05,
			"outcome": "blocked", "notes": "implausible",
		}),
	}
	svc, store := newService(model, 3)

	rec := &frameRecorder{}
	require.NoError(t, svc.Turn(context.Background(), turnInput("s1"), rec))

	states := rec.ofType(story.FrameState)
	require.Len(t, states, 1)
	assert.Equal(t, domain.OutcomeBlocked, states[0].Mechanics.Outcome)

	sess := store.GetOrCreate("s1")
	assert.Equal(t, []domain.InventoryItem{{ID: "rusty_dagger", Qty: 1}}, sess.State.Player.Inventory)
}

func TestTurnStaleBundleKeepsNarrationDropsPatch(t *testing.T) {
	// Scenario: the bundle's base_version no longer matches live state.
	scene := "You slip past the guard."
	model := &llm.ScriptedModel{
		BundleJSON: scriptedBundle(t, 5, scene, []map[string]any{
			{"op": "test", "path": "/version", "value": 5},
			{"op": "replace", "path": "/player/location", "value": "keep"},
			{"op": "replace", "path": "/version", "value": 6},
		}, nil),
	}
	svc, store := newService(model, 3)

	rec := &frameRecorder{}
	require.NoError(t, svc.Turn(context.Background(), turnInput("s1"), rec))

	// Narration delivered, no state frame, turn still done.
	assert.Equal(t, scene, rec.deltaText())
	assert.Empty(t, rec.ofType(story.FrameState))
	assert.Equal(t, story.FrameDone, rec.frames[len(rec.frames)-1].Type)

	statuses := rec.ofType(story.FrameStatus)
	require.GreaterOrEqual(t, len(statuses), 2)
	assert.Contains(t, statuses[len(statuses)-1].Message, "update skipped")

	// State untouched.
	sess := store.GetOrCreate("s1")
	assert.Equal(t, 1, sess.State.Version)
	assert.Equal(t, "crossroads", sess.State.Player.Location)
}

func TestTurnMalformedPayloadRecovers(t *testing.T) {
	model := &llm.ScriptedModel{BundleJSON: `{"scene":"A fragment of a tale`}
	svc, store := newService(model, 3)

	rec := &frameRecorder{}
	require.NoError(t, svc.Turn(context.Background(), turnInput("s1"), rec))

	// The partial scene streamed, the turn ends with done, not error.
	assert.Equal(t, "A fragment of a tale", rec.deltaText())
	assert.Empty(t, rec.ofType(story.FrameState))
	assert.Equal(t, story.FrameDone, rec.frames[len(rec.frames)-1].Type)

	sess := store.GetOrCreate("s1")
	assert.Equal(t, 1, sess.State.Version)
}

func TestTurnModelFailureIsTerminalError(t *testing.T) {
	model := &llm.ScriptedModel{StreamErr: errors.New("upstream down")}
	svc, store := newService(model, 3)

	rec := &frameRecorder{}
	require.NoError(t, svc.Turn(context.Background(), turnInput("s1"), rec))

	last := rec.frames[len(rec.frames)-1]
	assert.Equal(t, story.FrameError, last.Type)
	assert.Empty(t, rec.ofType(story.FrameDone))

	// Session untouched, nothing recorded.
	sess := store.GetOrCreate("s1")
	assert.Equal(t, 1, sess.State.Version)
	assert.Empty(t, sess.Recent)
}

func TestTurnFoldsSummaryAtThreshold(t *testing.T) {
	// Scenario: the third turn trips compaction exactly once and clears
	// the buffer.
	model := &llm.ScriptedModel{
		BundleJSON: scriptedBundle(t, 1, "A scene unfolds.", []map[string]any{
			{"op": "test", "path": "/version", "value": 1},
		}, nil),
		SummaryText: "- The traveler explored the crossroads.",
	}
	svc, store := newService(model, 3)

	for range 3 {
		rec := &frameRecorder{}
		require.NoError(t, svc.Turn(context.Background(), turnInput("s1"), rec))
	}

	sess := store.GetOrCreate("s1")
	assert.Empty(t, sess.Recent)
	assert.Equal(t, "- The traveler explored the crossroads.", sess.Summary)
	assert.Equal(t, 1, model.CompleteCalls())
}

func TestTurnFoldFailureKeepsSummaryClearsBuffer(t *testing.T) {
	model := &llm.ScriptedModel{
		BundleJSON: scriptedBundle(t, 1, "A scene unfolds.", []map[string]any{
			{"op": "test", "path": "/version", "value": 1},
		}, nil),
		CompleteErr: errors.New("summarizer down"),
	}
	svc, store := newService(model, 3)

	for range 3 {
		rec := &frameRecorder{}
		require.NoError(t, svc.Turn(context.Background(), turnInput("s1"), rec))
	}

	sess := store.GetOrCreate("s1")
	assert.Empty(t, sess.Recent, "buffer cleared even on fold failure")
	assert.Empty(t, sess.Summary, "prior summary retained")
}

func TestTurnMechanicsAreValidatedServerSide(t *testing.T) {
	model := &llm.ScriptedModel{
		BundleJSON: scriptedBundle(t, 1, "A scene.", []map[string]any{
			{"op": "test", "path": "/version", "value": 1},
		}, map[string]any{
			"skill_used": "stealth", "skill_value": 400,
			"difficulty": 3.0, "rand": 0.5, "p": 0.99,
			"outcome": "success", "notes": "exaggerated",
		}),
	}
	svc, _ := newService(model, 3)

	rec := &frameRecorder{}
	require.NoError(t, svc.Turn(context.Background(), turnInput("s1"), rec))

	states := rec.ofType(story.FrameState)
	require.Len(t, states, 1)
	mech := states[0].Mechanics
	// skill_value re-read from the live sheet (default stealth 10),
	// difficulty clamped to 1, p recomputed: clamp(0.1-1) -> 0.05.
	assert.Equal(t, 10, mech.SkillValue)
	assert.Equal(t, 1.0, mech.Difficulty)
	assert.InDelta(t, 0.05, mech.P, 1e-9)
}
