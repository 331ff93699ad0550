package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sievemod/sieve/internal/common"
	"github.com/sievemod/sieve/internal/config"
	"github.com/sievemod/sieve/internal/model"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// emailChannel delivers moderation alerts through the Brevo transactional
// email API.
type emailChannel struct {
	httpClient *http.Client
	apiKey     string
	sender     string
	senderName string
	endpoint   string
	retryOpts  common.RetryOptions
}

// NewEmailChannel creates the Brevo email channel.
func NewEmailChannel(cfg config.EmailConfig) Channel {
	return &emailChannel{
		apiKey:     cfg.APIKey,
		sender:     cfg.SenderEmail,
		senderName: cfg.SenderName,
		endpoint:   brevoEndpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		retryOpts: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
		},
	}
}

func (e *emailChannel) Name() model.NotificationChannel {
	return model.ChannelEmail
}

// Send emails the submitter that their content was flagged.
func (e *emailChannel) Send(ctx context.Context, request *model.ModerationRequest, result *model.ModerationResult) error {
	subject := fmt.Sprintf("Content flagged as %s", result.Label)
	body := fmt.Sprintf(
		"<p>Your %s submission was flagged as <b>%s</b> (confidence %.2f).</p><p>%s</p>",
		request.Kind, result.Label, result.Confidence, result.Reasoning)

	requestBody := map[string]any{
		"sender": map[string]string{
			"name":  e.senderName,
			"email": e.sender,
		},
		"to": []map[string]string{
			{"email": request.Submitter},
		},
		"subject":     subject,
		"htmlContent": body,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	return common.WithRetry(ctx, func() error {
		return e.post(ctx, string(jsonBody))
	}, e.retryOpts)
}

func (e *emailChannel) post(ctx context.Context, jsonBody string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, strings.NewReader(jsonBody))
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("failed to create request: %w", err), Retryable: false}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("request failed: %w", err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("brevo API error (status %d): %s", resp.StatusCode, string(body))
		// Client errors won't heal on retry; server errors might.
		return &common.RetryableError{Err: err, Retryable: resp.StatusCode >= 500}
	}
	return nil
}
