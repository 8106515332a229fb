package main

import (
	"context"
	"net/http"
	"os"

	httpadapter "github.com/PabloGalante/fable-engine/internal/adapters/http"
	"github.com/PabloGalante/fable-engine/internal/adapters/llm"
	memstore "github.com/PabloGalante/fable-engine/internal/adapters/storage/memory"
	"github.com/PabloGalante/fable-engine/internal/app/story"
	"github.com/PabloGalante/fable-engine/internal/app/summary"
	"github.com/PabloGalante/fable-engine/internal/config"
	"github.com/PabloGalante/fable-engine/internal/domain"
	"github.com/PabloGalante/fable-engine/internal/observability"
	"github.com/PabloGalante/fable-engine/internal/random"
)

func main() {
	ctx := context.Background()
	log := observability.Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var model domain.StoryModel
	if cfg.UseMockLLM {
		log.Info("using scripted mock model")
		model = llm.NewScriptedModel()
	} else {
		log.Info("using Gemini model", "story_model", cfg.StoryModel, "summary_model", cfg.SummaryModel)
		model, err = llm.NewGeminiClient(ctx, llm.GeminiConfig{
			Project:      cfg.GCPProject,
			Location:     cfg.GCPLocation,
			StoryModel:   cfg.StoryModel,
			SummaryModel: cfg.SummaryModel,
		})
		if err != nil {
			log.Error("initializing Gemini client", "error", err)
			os.Exit(1)
		}
	}

	roll, err := random.Roller()
	if err != nil {
		log.Error("initializing entropy source", "error", err)
		os.Exit(1)
	}

	store := memstore.NewSessionStore()
	compactor := summary.New(model)
	svc := story.NewService(model, store, compactor, story.ServiceConfig{
		RecentLimit: cfg.RecentLimit,
		Roll:        roll,
	})

	handler := httpadapter.NewServer(svc)

	addr := ":" + cfg.Port
	log.Info("fable API listening", "addr", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
