// Package llm implements the classifier gateway and its providers.
//
// Providers are a small closed set behind one interface. The gateway walks
// them in priority order per content kind, skipping any provider whose
// credential is absent, and normalizes whichever answer it gets first.
package llm

import (
	"context"
	"strings"

	"github.com/sievemod/sieve/internal/model"
)

// Provider is one classification capability. Implementations must be
// stateless so classify calls can be retried safely.
type Provider interface {
	// Name identifies the provider in logs and in raw_response audit data.
	Name() string
	// Available reports whether the provider's credential is configured.
	// Unavailable providers are skipped without any network call.
	Available() bool
	// Supports reports whether the provider handles the given content kind.
	Supports(kind model.ContentKind) bool
	// Classify sends the content for classification.
	Classify(ctx context.Context, content string, kind model.ContentKind) (*model.Classification, error)
}

// moderationSystemPrompt instructs every real provider to answer in a
// shared JSON shape so parsing stays provider-independent.
const moderationSystemPrompt = "You are a content moderation classifier. " +
	"Classify the submitted content as one of: safe, toxic, spam, harassment. " +
	"You MUST respond with ONLY a valid JSON object of the form " +
	`{"classification": "...", "confidence": 0.0, "reasoning": "..."} ` +
	"with confidence between 0 and 1. Do not include any text outside the JSON."

// cleanMarkdownWrapper strips a ```json fenced block if the model wrapped
// its answer in one.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}
	return content
}
