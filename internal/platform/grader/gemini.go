package grader

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/lingdou-api/internal/config"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

type geminiProvider struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

func newGeminiProvider(ctx context.Context, cfg config.GraderConfig) (*geminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrInvalidConfig, err)
	}

	return &geminiProvider{
		client:    client,
		model:     resolveModel(cfg.Model, defaultGeminiModel),
		maxTokens: int32(maxTokens(cfg)),
	}, nil
}

func (p *geminiProvider) name() string { return "gemini" }

func (p *geminiProvider) complete(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens:  p.maxTokens,
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiRubricSchema(),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
	}
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return "", mapGeminiError(err)
	}
	return result.Text(), nil
}

// geminiRubricSchema is rubricSchema in the SDK's schema type. Range checks
// are left to the JSON schema validation of the reply.
func geminiRubricSchema() *genai.Schema {
	score := &genai.Schema{Type: genai.TypeInteger}
	text := &genai.Schema{Type: genai.TypeString}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"passed":                {Type: genai.TypeBoolean},
			"comment":               text,
			"strength":              text,
			"weakness":              text,
			"problem_understanding": score,
			"principle_application": score,
			"knowledge_mastery":     score,
			"logical_coherence":     score,
			"fluency":               score,
		},
		Required: []string{
			"passed", "comment", "strength", "weakness",
			"problem_understanding", "principle_application", "knowledge_mastery",
			"logical_coherence", "fluency",
		},
	}
}

func mapGeminiError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: "gemini", Status: apiErr.Code, Err: err}
	}
	var apiVal genai.APIError
	if errors.As(err, &apiVal) {
		return &ProviderError{Provider: "gemini", Status: apiVal.Code, Err: err}
	}
	return &ProviderError{Provider: "gemini", Err: err}
}
