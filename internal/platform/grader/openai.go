package grader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/phrazzld/lingdou-api/internal/config"
	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

type openAIProvider struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func newOpenAIProvider(cfg config.GraderConfig) (*openAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", ErrInvalidConfig)
	}
	return &openAIProvider{
		client:    openai.NewClientWithConfig(openai.DefaultConfig(cfg.APIKey)),
		model:     resolveModel(cfg.Model, defaultOpenAIModel),
		maxTokens: maxTokens(cfg),
	}, nil
}

func (p *openAIProvider) name() string { return "openai" }

func (p *openAIProvider) complete(ctx context.Context, system, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxCompletionTokens: p.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: json.RawMessage(rubricSchema),
				Strict: true,
			},
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &InvalidResponseError{Err: errors.New("no choices in OpenAI response")}
	}
	return resp.Choices[0].Message.Content, nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: "openai", Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{Provider: "openai", Status: reqErr.HTTPStatusCode, Err: err}
	}
	return &ProviderError{Provider: "openai", Err: err}
}
