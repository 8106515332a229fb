package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/PabloGalante/fable-engine/internal/domain"
)

// GeminiClient implements domain.StoryModel on Vertex AI (Gemini), with
// JSON-schema-constrained output for the turn stream and a plain
// completion for summary folding.
type GeminiClient struct {
	client       *genai.Client
	storyModel   string
	summaryModel string
}

type GeminiConfig struct {
	Project      string
	Location     string
	StoryModel   string
	SummaryModel string
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.Project == "" || cfg.Location == "" {
		return nil, fmt.Errorf("gemini client requires project and location")
	}
	if cfg.StoryModel == "" {
		cfg.StoryModel = "gemini-2.5-flash"
	}
	if cfg.SummaryModel == "" {
		cfg.SummaryModel = cfg.StoryModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.Project,
		Location: cfg.Location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &GeminiClient{
		client:       client,
		storyModel:   cfg.StoryModel,
		summaryModel: cfg.SummaryModel,
	}, nil
}

// StreamBundle streams the structured turn payload, invoking onChunk for
// every text fragment, and returns the full buffered payload.
func (g *GeminiClient) StreamBundle(ctx context.Context, p domain.Prompt, onChunk func(text string)) (string, error) {
	temp := float32(0.8)
	topP := float32(0.9)
	outputTokens := int32(2048)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.System, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   outputTokens,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    bundleSchema,
	}

	var full strings.Builder
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.storyModel, genai.Text(p.User), cfg) {
		if err != nil {
			return "", fmt.Errorf("gemini stream: %w", err)
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		full.WriteString(text)
		onChunk(text)
	}

	return full.String(), nil
}

// Complete implements the non-streaming completion used by the summary
// compactor.
func (g *GeminiClient) Complete(ctx context.Context, p domain.Prompt) (string, error) {
	temp := float32(0.3)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.System, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   1024,
	}

	res, err := g.client.Models.GenerateContent(ctx, g.summaryModel, genai.Text(p.User), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}

// bundleSchema constrains the streamed output to the PatchBundle shape.
// Patch op values stay unconstrained: RFC 6902 values are heterogeneous.
var bundleSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"schema_version": {Type: genai.TypeString},
		"operation_id":   {Type: genai.TypeString},
		"base_version":   {Type: genai.TypeInteger},
		"scene":          {Type: genai.TypeString},
		"patch": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"op": {
						Type: genai.TypeString,
						Enum: []string{"add", "remove", "replace", "move", "copy", "test"},
					},
					"path": {Type: genai.TypeString},
					"from": {Type: genai.TypeString},
					"value": {
						AnyOf: []*genai.Schema{
							{Type: genai.TypeString},
							{Type: genai.TypeNumber},
							{Type: genai.TypeBoolean},
							{
								Type: genai.TypeObject,
								Properties: map[string]*genai.Schema{
									"id":  {Type: genai.TypeString},
									"qty": {Type: genai.TypeInteger},
								},
								Required: []string{"id", "qty"},
							},
						},
					},
				},
				Required: []string{"op", "path"},
			},
		},
		"next_actions": {
			Type:     genai.TypeArray,
			Items:    &genai.Schema{Type: genai.TypeString},
			MaxItems: genai.Ptr(int64(2)),
		},
		"mechanics": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"skill_used":  {Type: genai.TypeString},
				"skill_value": {Type: genai.TypeInteger},
				"difficulty":  {Type: genai.TypeNumber},
				"rand":        {Type: genai.TypeNumber},
				"p":           {Type: genai.TypeNumber},
				"outcome": {
					Type: genai.TypeString,
					Enum: []string{"success", "fail", "blocked"},
				},
				"notes": {Type: genai.TypeString},
			},
			Required: []string{"skill_used", "skill_value", "difficulty", "rand", "p", "outcome"},
		},
	},
	Required: []string{"schema_version", "operation_id", "base_version", "scene", "patch", "mechanics"},
}
