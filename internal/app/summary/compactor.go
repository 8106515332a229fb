// Package summary folds the short-term exchange buffer into the rolling
// session summary with one model call.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PabloGalante/fable-engine/internal/app/locale"
	"github.com/PabloGalante/fable-engine/internal/domain"
)

type Compactor struct {
	model domain.StoryModel
}

func New(model domain.StoryModel) *Compactor {
	return &Compactor{model: model}
}

// Fold merges the recent exchanges into oldSummary and returns the new
// summary. An empty buffer is a no-op and never reaches the model. On
// error the caller keeps the prior summary.
func (c *Compactor) Fold(ctx context.Context, oldSummary string, recent []domain.Exchange, state *domain.GameState, lang string) (string, error) {
	if len(recent) == 0 {
		return oldSummary, nil
	}

	out, err := c.model.Complete(ctx, buildFoldPrompt(oldSummary, recent, state, lang))
	if err != nil {
		return "", fmt.Errorf("fold summary: %w", err)
	}

	folded := strings.TrimSpace(out)
	if folded == "" {
		return oldSummary, nil
	}
	return folded, nil
}

func buildFoldPrompt(oldSummary string, recent []domain.Exchange, state *domain.GameState, lang string) domain.Prompt {
	loc := locale.For(lang)

	var b strings.Builder
	b.WriteString(loc.SummaryRules)
	b.WriteString("\n\n")

	section := func(title, body string) {
		b.WriteString("=== ")
		b.WriteString(title)
		b.WriteString(" ===\n")
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	prev := oldSummary
	if prev == "" {
		prev = "(none)"
	}
	section(loc.SummaryPrevious, prev)

	var turns []string
	for i, ex := range recent {
		turns = append(turns, fmt.Sprintf("Turn %d - Player: %s\nScene: %s", i+1, ex.Action, ex.Scene))
	}
	section(loc.SummaryNew, strings.Join(turns, "\n\n"))

	stateJSON, _ := json.Marshal(state)
	section(loc.SummaryState, string(stateJSON))

	b.WriteString(loc.SummaryReturn)

	return domain.Prompt{
		System: loc.SummaryIntro,
		User:   strings.TrimSpace(b.String()),
	}
}
