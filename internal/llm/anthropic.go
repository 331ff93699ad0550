package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sievemod/sieve/internal/config"
	"github.com/sievemod/sieve/internal/model"
)

// anthropicProvider implements the Provider interface for the Anthropic
// API. Text only: image content is handled by the OpenAI provider or the
// fallback, so image submissions skip this provider entirely.
type anthropicProvider struct {
	client    anthropic.Client
	model     string
	available bool
}

// NewAnthropicProvider creates the Anthropic classification provider.
func NewAnthropicProvider(cfg config.ProviderConfig) Provider {
	m := cfg.Model
	if m == "" {
		m = "claude-sonnet-4-20250514"
	}

	return &anthropicProvider{
		model:     m,
		available: cfg.Available(),
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
	}
}

func (p *anthropicProvider) Name() string {
	return "anthropic"
}

func (p *anthropicProvider) Available() bool {
	return p.available
}

func (p *anthropicProvider) Supports(kind model.ContentKind) bool {
	return kind == model.KindText
}

// Classify sends a classification request to Anthropic.
func (p *anthropicProvider) Classify(ctx context.Context, content string, kind model.ContentKind) (*model.Classification, error) {
	if kind != model.KindText {
		return nil, fmt.Errorf("anthropic provider does not support %s content", kind)
	}

	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 300,
		System: []anthropic.TextBlockParam{
			{Text: moderationSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(content)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("no text content in Anthropic response")
	}

	classification, err := parseClassification(text, p.Name())
	if err != nil {
		return nil, err
	}
	classification.RawResponse = json.RawMessage(message.RawJSON())
	return classification, nil
}
