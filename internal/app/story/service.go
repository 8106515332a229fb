// Package story drives one player turn end to end: prompt construction,
// model streaming, scene demultiplexing, patch application and summary
// folding, emitting SSE frames to the caller as it goes.
package story

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/PabloGalante/fable-engine/internal/app/patch"
	"github.com/PabloGalante/fable-engine/internal/app/summary"
	"github.com/PabloGalante/fable-engine/internal/domain"
	"github.com/PabloGalante/fable-engine/internal/observability"
)

// ErrInvalidInput marks turn requests rejected before any model call.
var ErrInvalidInput = errors.New("invalid turn input")

const statusGenerating = "Generating story..."

// TurnInput is one player action against one session.
type TurnInput struct {
	SessionID domain.SessionID
	Character domain.Character
	Action    string
}

// ServiceConfig tunes the turn service; zero values get defaults.
type ServiceConfig struct {
	// RecentLimit is the exchange-buffer threshold that triggers summary
	// folding. Defaults to 3.
	RecentLimit int

	// Roll draws mechanics entropy in [0, 1). Defaults to a shared
	// process-wide PCG source; tests inject a deterministic one.
	Roll func() float64
}

type Service struct {
	model       domain.StoryModel
	store       domain.SessionStore
	compactor   *summary.Compactor
	recentLimit int
	roll        func() float64
}

func NewService(model domain.StoryModel, store domain.SessionStore, compactor *summary.Compactor, cfg ServiceConfig) *Service {
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 3
	}
	if cfg.Roll == nil {
		cfg.Roll = rand.Float64
	}
	return &Service{
		model:       model,
		store:       store,
		compactor:   compactor,
		recentLimit: cfg.RecentLimit,
		roll:        cfg.Roll,
	}
}

// Turn runs one full turn, writing every frame to w. The returned error
// is for logging; the client always sees a terminal done or error frame
// once streaming has started.
func (s *Service) Turn(ctx context.Context, in TurnInput, w FrameWriter) error {
	if in.SessionID == "" || strings.TrimSpace(in.Action) == "" {
		return fmt.Errorf("%w: sessionId and action are required", ErrInvalidInput)
	}

	turnID := ulid.Make().String()
	ctx = observability.WithTurnID(ctx, turnID)
	log := observability.LoggerFromContext(ctx).With("session_id", in.SessionID)

	sess := s.store.GetOrCreate(in.SessionID)

	// Serialize turns per session; the /version test op still guards
	// patches computed against stale snapshots.
	sess.Lock()
	defer sess.Unlock()

	applyCharacter(sess.State, in.Character)

	if err := w.Send(StatusFrame(statusGenerating)); err != nil {
		return err
	}

	difficulty := s.roll()
	roll := s.roll()
	prompt := BuildPrompt(PromptInputs{
		State:      sess.State,
		Character:  in.Character,
		Action:     in.Action,
		Summary:    sess.Summary,
		LastScene:  sess.LastScene,
		Recent:     sess.Recent,
		Difficulty: difficulty,
		Roll:       roll,
	})

	log.Info("turn started", "action", in.Action)

	scanner := &sceneScanner{}
	raw, err := s.model.StreamBundle(ctx, prompt, func(chunk string) {
		if delta := scanner.Feed(chunk); delta != "" {
			_ = w.Send(DeltaFrame(delta))
		}
	})
	if err != nil {
		log.Error("model stream failed", "error", err)
		return w.Send(ErrorFrame("Error generating story"))
	}
	if delta := scanner.Feed(""); delta != "" {
		_ = w.Send(DeltaFrame(delta))
	}
	scene := scanner.Scene()

	bundle, err := domain.DecodeBundle([]byte(raw))
	if err != nil {
		// Narration already reached the client; the turn survives with
		// state untouched.
		log.Warn("structured payload rejected", "error", err)
		_ = w.Send(StatusFrame("Story update could not be applied."))
		s.recordExchange(ctx, log, sess, in.Action, scene, in.Character.Language)
		return w.Send(DoneFrame())
	}
	if scene == "" {
		scene = bundle.Scene
	}

	mech := normalizeMechanics(bundle.Mechanics, sess.State.Player.Skills)

	next, err := patch.Apply(sess.State, bundle.Patch)
	if err != nil {
		log.Warn("patch rejected", "error", err, "operation_id", bundle.OperationID)
		_ = w.Send(StatusFrame(rejectionMessage(err)))
	} else {
		s.store.ReplaceState(sess.ID, next)
		_ = w.Send(StateFrame(next, &mech, bundle.NextActions))
		log.Info("state updated", "version", next.Version, "outcome", mech.Outcome)
	}

	s.recordExchange(ctx, log, sess, in.Action, scene, in.Character.Language)
	return w.Send(DoneFrame())
}

// recordExchange folds the turn into the session's short-term memory and
// triggers compaction when the buffer reaches the threshold. Compaction
// failure keeps the prior summary; the buffer is cleared either way,
// trading detail loss for turn survival.
func (s *Service) recordExchange(ctx context.Context, log *slog.Logger, sess *domain.Session, action, scene, lang string) {
	sess.LastScene = scene
	sess.Recent = append(sess.Recent, domain.Exchange{Action: action, Scene: scene})

	if len(sess.Recent) < s.recentLimit {
		return
	}

	folded, err := s.compactor.Fold(ctx, sess.Summary, sess.Recent, sess.State, lang)
	if err != nil {
		log.Error("summary fold failed, keeping prior summary", "error", err)
	} else {
		sess.Summary = folded
	}
	sess.Recent = nil
}

// applyCharacter overlays the client's character sheet onto the player
// before the prompt is built, so the model reasons over current skills.
func applyCharacter(state *domain.GameState, c domain.Character) {
	if c.Name != "" {
		state.Player.Name = c.Name
	}
	if c.Skills != nil {
		sk := *c.Skills
		sk.Clamp()
		state.Player.Skills = sk
	}
}

// normalizeMechanics validates the model-derived mechanics server-side:
// the skill value is re-read from the live sheet, inputs are clamped to
// their ranges and p is recomputed when it drifts from the formula.
func normalizeMechanics(m domain.Mechanics, skills domain.Skills) domain.Mechanics {
	if v, ok := skills.Value(m.SkillUsed); ok {
		m.SkillValue = v
	}
	m.SkillValue = domain.ClampSkill(m.SkillValue)
	m.Difficulty = clamp01(m.Difficulty)
	m.Rand = clamp01(m.Rand)

	p := float64(m.SkillValue)/100 - m.Difficulty
	p = math.Min(math.Max(p, 0.05), 0.95)
	if math.Abs(m.P-p) > 0.01 {
		m.P = p
	}
	return m
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, patch.ErrStaleVersion):
		return "World state moved on during this turn; update skipped."
	case errors.Is(err, patch.ErrMissingVersionTest):
		return "Story update was missing its version check; update skipped."
	case errors.Is(err, patch.ErrInventoryInvariant):
		return "Story update would corrupt the inventory; update skipped."
	default:
		return "Story update could not be applied."
	}
}
