package llm

import (
	"context"
	"encoding/json"

	"github.com/sievemod/sieve/internal/model"
)

// FallbackReasoning marks results produced without any real provider.
const FallbackReasoning = "no classification provider available; defaulting to safe"

// fallbackProvider is the deterministic last-resort provider. It is always
// available, supports every content kind, never calls the network, and
// never fails: it answers safe with confidence 0 so the gateway cannot
// raise for configuration reasons alone.
type fallbackProvider struct{}

// NewFallbackProvider creates the deterministic fallback provider.
func NewFallbackProvider() Provider {
	return fallbackProvider{}
}

func (fallbackProvider) Name() string {
	return "fallback"
}

func (fallbackProvider) Available() bool {
	return true
}

func (fallbackProvider) Supports(model.ContentKind) bool {
	return true
}

func (fallbackProvider) Classify(_ context.Context, _ string, _ model.ContentKind) (*model.Classification, error) {
	raw, _ := json.Marshal(map[string]any{
		"provider_used": "fallback",
		"mock":          true,
	})
	return &model.Classification{
		Label:       model.LabelSafe,
		Confidence:  0,
		Reasoning:   FallbackReasoning,
		RawResponse: raw,
		Provider:    "fallback",
	}, nil
}
