package grader

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/phrazzld/lingdou-api/internal/config"
)

const defaultAnthropicModel = "claude-haiku-4-5-20251001"

type anthropicProvider struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

func newAnthropicProvider(cfg config.GraderConfig) (*anthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key cannot be empty", ErrInvalidConfig)
	}
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &anthropicProvider{
		client:    &client,
		model:     resolveModel(cfg.Model, defaultAnthropicModel),
		maxTokens: int64(maxTokens(cfg)),
	}, nil
}

func (p *anthropicProvider) name() string { return "anthropic" }

func (p *anthropicProvider) complete(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{{
			Role:    anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(prompt)},
		}},
		OutputConfig: anthropic.OutputConfigParam{
			Format: anthropic.JSONOutputFormatParam{
				Schema: schemaDefinition(),
			},
		},
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", mapAnthropicError(err)
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", &InvalidResponseError{Err: errors.New("no text content in Anthropic response")}
}

func mapAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: "anthropic", Status: apiErr.StatusCode, Err: err}
	}
	return &ProviderError{Provider: "anthropic", Err: err}
}
