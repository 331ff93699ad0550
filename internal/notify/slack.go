package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"

	"github.com/sievemod/sieve/internal/common"
	"github.com/sievemod/sieve/internal/config"
	"github.com/sievemod/sieve/internal/model"
)

// slackChannel posts moderation alerts to a Slack incoming webhook.
type slackChannel struct {
	httpClient *http.Client
	webhookURL string
}

// NewSlackChannel creates the Slack webhook channel.
func NewSlackChannel(cfg config.SlackConfig) Channel {
	return &slackChannel{
		webhookURL: cfg.WebhookURL,
		httpClient: common.RobustHTTPClient(),
	}
}

func (s *slackChannel) Name() model.NotificationChannel {
	return model.ChannelSlack
}

// Send posts a flagged-content alert to the configured webhook.
func (s *slackChannel) Send(ctx context.Context, request *model.ModerationRequest, result *model.ModerationResult) error {
	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf(":rotating_light: %s content from %s flagged as *%s* (confidence %.2f)\n> %s",
			request.Kind, request.Submitter, result.Label, result.Confidence, result.Reasoning),
	}

	if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.httpClient, msg); err != nil {
		return fmt.Errorf("slack webhook error: %w", err)
	}
	return nil
}
