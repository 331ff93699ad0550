package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sievemod/sieve/internal/common"
	"github.com/sievemod/sieve/internal/config"
	"github.com/sievemod/sieve/internal/model"
)

// Gateway tries classification providers in fixed priority order until one
// succeeds. It is stateless beyond its provider list, so Classify can be
// retried safely.
type Gateway struct {
	logger    *slog.Logger
	providers []Provider
}

// NewGateway builds the gateway with the standard provider order:
// OpenAI, then Anthropic, then the deterministic fallback. Anthropic is
// text-only, so image submissions go straight from OpenAI to fallback.
func NewGateway(cfg config.ProvidersConfig, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		logger: logger,
		providers: []Provider{
			NewOpenAIProvider(cfg.OpenAI),
			NewAnthropicProvider(cfg.Anthropic),
			NewFallbackProvider(),
		},
	}
}

// NewGatewayWithProviders builds a gateway over an explicit provider list.
func NewGatewayWithProviders(logger *slog.Logger, providers ...Provider) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{logger: logger, providers: providers}
}

// Classify walks the provider list in order. Unavailable providers and
// providers that do not support the content kind are skipped without any
// call. A transient provider error logs and falls through to the next
// provider; only if every provider errors does Classify fail, with
// common.ErrClassificationUnavailable.
func (g *Gateway) Classify(ctx context.Context, content string, kind model.ContentKind) (*model.Classification, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown content kind %q", common.ErrInvalidConfig, kind)
	}

	var lastErr error
	for _, p := range g.providers {
		if !p.Available() {
			g.logger.Debug("provider not configured, skipping",
				"provider", p.Name())
			continue
		}
		if !p.Supports(kind) {
			g.logger.Debug("provider does not support content kind, skipping",
				"provider", p.Name(),
				"kind", kind)
			continue
		}

		classification, err := p.Classify(ctx, content, kind)
		if err != nil {
			lastErr = err
			g.logger.Warn("provider classification failed, trying next",
				"provider", p.Name(),
				"kind", kind,
				"error", err)
			continue
		}

		g.logger.Debug("classification succeeded",
			"provider", p.Name(),
			"label", classification.Label,
			"confidence", classification.Confidence)
		return classification, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrClassificationUnavailable, lastErr)
	}
	return nil, common.ErrClassificationUnavailable
}
