package summary_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/fable-engine/internal/adapters/llm"
	"github.com/PabloGalante/fable-engine/internal/app/summary"
	"github.com/PabloGalante/fable-engine/internal/domain"
)

var exchanges = []domain.Exchange{
	{Action: "enter the tavern", Scene: "Smoke and lute music greet you."},
	{Action: "talk to the innkeeper", Scene: "She slides you a key and a warning."},
}

func TestFoldEmptyBufferIsNoOp(t *testing.T) {
	model := &llm.ScriptedModel{SummaryText: "should never be used"}
	c := summary.New(model)

	got, err := c.Fold(context.Background(), "- old facts.", nil, domain.NewGameState(), "en")
	require.NoError(t, err)
	assert.Equal(t, "- old facts.", got)
	assert.Zero(t, model.CompleteCalls(), "empty buffer must not reach the model")
}

func TestFoldReplacesSummary(t *testing.T) {
	model := &llm.ScriptedModel{SummaryText: "- Key obtained; innkeeper wary."}
	c := summary.New(model)

	got, err := c.Fold(context.Background(), "- old facts.", exchanges, domain.NewGameState(), "en")
	require.NoError(t, err)
	assert.Equal(t, "- Key obtained; innkeeper wary.", got)

	prompts := model.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0].User, "- old facts.")
	assert.Contains(t, prompts[0].User, "enter the tavern")
	assert.Contains(t, prompts[0].User, "do not remove earlier items")
	assert.Contains(t, prompts[0].System, "compress an ongoing interactive story")
}

func TestFoldPropagatesModelError(t *testing.T) {
	model := &llm.ScriptedModel{CompleteErr: errors.New("quota exceeded")}
	c := summary.New(model)

	_, err := c.Fold(context.Background(), "- old facts.", exchanges, domain.NewGameState(), "en")
	assert.Error(t, err)
}

func TestFoldEmptyModelOutputKeepsOldSummary(t *testing.T) {
	model := &llm.ScriptedModel{SummaryText: "   \n"}
	c := summary.New(model)

	got, err := c.Fold(context.Background(), "- old facts.", exchanges, domain.NewGameState(), "en")
	require.NoError(t, err)
	assert.Equal(t, "- old facts.", got)
}

func TestFoldUsesDutchTemplates(t *testing.T) {
	model := &llm.ScriptedModel{SummaryText: "- Sleutel verkregen."}
	c := summary.New(model)

	_, err := c.Fold(context.Background(), "", exchanges, domain.NewGameState(), "nl")
	require.NoError(t, err)

	prompts := model.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0].User, "VORIGE SAMENVATTING")
	assert.Contains(t, prompts[0].System, "comprimeert")
}
