package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/sievemod/sieve/internal/common"
	"github.com/sievemod/sieve/internal/config"
	"github.com/sievemod/sieve/internal/llm"
	"github.com/sievemod/sieve/internal/model"
	"github.com/sievemod/sieve/internal/notify"
	"github.com/sievemod/sieve/internal/testutil"
)

// countingChannel implements notify.Channel for dispatch assertions.
type countingChannel struct {
	name  model.NotificationChannel
	err   error
	calls int
}

func (c *countingChannel) Name() model.NotificationChannel { return c.name }

func (c *countingChannel) Send(_ context.Context, _ *model.ModerationRequest, _ *model.ModerationResult) error {
	c.calls++
	return c.err
}

func TestSubmitWithNoProvidersConfigured(t *testing.T) {
	store := testutil.SetupTestDB(t)
	gateway := llm.NewGateway(config.ProvidersConfig{}, nil)
	dispatcher := notify.NewDispatcherWithChannels(store, nil,
		&countingChannel{name: model.ChannelEmail},
		&countingChannel{name: model.ChannelSlack})
	eng := New(store, gateway, dispatcher, nil)
	ctx := context.Background()

	submission, err := eng.Submit(ctx, "user@example.com", model.KindText, "This is a test message")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if submission.Status != string(model.StatusCompleted) {
		t.Errorf("expected completed, got %s", submission.Status)
	}
	if submission.Label != model.LabelSafe {
		t.Errorf("expected safe, got %s", submission.Label)
	}
	if submission.Confidence != 0 {
		t.Errorf("expected confidence 0, got %v", submission.Confidence)
	}
	if submission.Provider != "fallback" {
		t.Errorf("expected fallback provider, got %s", submission.Provider)
	}
	if submission.NotifyDone != nil {
		t.Error("safe classification must not schedule dispatch")
	}

	logs, err := store.GetNotificationLogs(ctx, submission.RequestID)
	if err != nil {
		t.Fatalf("GetNotificationLogs failed: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("expected zero notification logs, got %d", len(logs))
	}

	summary, err := eng.Analytics(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("Analytics failed: %v", err)
	}
	if summary.TotalRequests != 1 {
		t.Errorf("expected 1 request, got %d", summary.TotalRequests)
	}
	if summary.Breakdown[model.LabelSafe] != 1 || len(summary.Breakdown) != 1 {
		t.Errorf("expected breakdown {safe:1}, got %v", summary.Breakdown)
	}
}

func TestSubmitToxicImageNotifiesEveryChannel(t *testing.T) {
	store := testutil.SetupTestDB(t)
	raw, _ := json.Marshal(map[string]any{"provider_used": "openai"})
	classifier := &MockClassifier{Result: &model.Classification{
		Label:       model.LabelToxic,
		Confidence:  0.9,
		Reasoning:   "graphic content",
		RawResponse: raw,
		Provider:    "openai",
	}}
	email := &countingChannel{name: model.ChannelEmail}
	slack := &countingChannel{name: model.ChannelSlack, err: fmt.Errorf("webhook gone")}
	dispatcher := notify.NewDispatcherWithChannels(store, nil, email, slack)
	eng := New(store, classifier, dispatcher, nil)
	ctx := context.Background()

	submission, err := eng.Submit(ctx, "user@example.com", model.KindImage, "https://example.com/image.png")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if submission.Label != model.LabelToxic || submission.Confidence != 0.9 {
		t.Errorf("unexpected classification: %s/%v", submission.Label, submission.Confidence)
	}
	if submission.NotifyDone == nil {
		t.Fatal("expected async dispatch to be scheduled")
	}
	<-submission.NotifyDone

	if email.calls != 1 || slack.calls != 1 {
		t.Errorf("expected one attempt per channel, got email=%d slack=%d", email.calls, slack.calls)
	}

	logs, err := store.GetNotificationLogs(ctx, submission.RequestID)
	if err != nil {
		t.Fatalf("GetNotificationLogs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected exactly one log per channel, got %d", len(logs))
	}

	byChannel := map[model.NotificationChannel]model.DeliveryStatus{}
	for _, log := range logs {
		byChannel[log.Channel] = log.Status
	}
	if byChannel[model.ChannelEmail] != model.DeliverySent {
		t.Errorf("expected email sent, got %s", byChannel[model.ChannelEmail])
	}
	if byChannel[model.ChannelSlack] != model.DeliveryFailed {
		t.Errorf("expected slack failed, got %s", byChannel[model.ChannelSlack])
	}

	summary, err := eng.Analytics(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("Analytics failed: %v", err)
	}
	if summary.Breakdown[model.LabelToxic] != 1 {
		t.Errorf("expected breakdown {toxic:1}, got %v", summary.Breakdown)
	}
}

// abandoningClassifier cancels the caller's context mid-classification,
// simulating a client that disconnects while a provider call is in flight.
type abandoningClassifier struct {
	cancel context.CancelFunc
	result *model.Classification
}

func (a *abandoningClassifier) Classify(_ context.Context, _ string, _ model.ContentKind) (*model.Classification, error) {
	a.cancel()
	return a.result, nil
}

func TestSubmitSurvivesCallerDisconnect(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	classifier := &abandoningClassifier{
		cancel: cancel,
		result: &model.Classification{
			Label:      model.LabelToxic,
			Confidence: 0.9,
			Reasoning:  "slurs",
			Provider:   "openai",
		},
	}
	email := &countingChannel{name: model.ChannelEmail}
	eng := New(store, classifier, notify.NewDispatcherWithChannels(store, nil, email), nil)

	submission, err := eng.Submit(ctx, "user@example.com", model.KindText, "offensive content")
	if err != nil {
		t.Fatalf("Submit must persist despite caller cancellation, got: %v", err)
	}
	if submission.Status != string(model.StatusCompleted) {
		t.Errorf("expected completed, got %s", submission.Status)
	}

	request, err := store.GetRequest(context.Background(), submission.RequestID)
	if err != nil {
		t.Fatalf("GetRequest failed: %v", err)
	}
	if request.Status != model.StatusCompleted {
		t.Errorf("request left %s after caller disconnect", request.Status)
	}
	result, err := store.GetResult(context.Background(), submission.RequestID)
	if err != nil {
		t.Fatalf("result was not persisted: %v", err)
	}
	if result.Label != model.LabelToxic {
		t.Errorf("unexpected persisted label: %s", result.Label)
	}

	if submission.NotifyDone == nil {
		t.Fatal("toxic result must still dispatch after caller disconnect")
	}
	<-submission.NotifyDone
	if email.calls != 1 {
		t.Errorf("expected one email attempt, got %d", email.calls)
	}
}

func TestSubmitFailsWhenClassificationUnavailable(t *testing.T) {
	store := testutil.SetupTestDB(t)
	classifier := &MockClassifier{Err: fmt.Errorf("every provider is down")}
	dispatcher := notify.NewDispatcherWithChannels(store, nil, &countingChannel{name: model.ChannelEmail})
	eng := New(store, classifier, dispatcher, nil)
	ctx := context.Background()

	_, err := eng.Submit(ctx, "user@example.com", model.KindText, "some content")
	if !errors.Is(err, common.ErrClassificationUnavailable) {
		t.Fatalf("expected ErrClassificationUnavailable, got %v", err)
	}

	// The request must be durably failed, never left pending.
	summary, err := eng.Analytics(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("Analytics failed: %v", err)
	}
	if summary.TotalRequests != 1 {
		t.Errorf("expected the failed request to be recorded, got total %d", summary.TotalRequests)
	}
	if len(summary.Breakdown) != 0 {
		t.Errorf("failed request must not appear in breakdown: %v", summary.Breakdown)
	}
}

func TestSubmitRejectsEmptyContent(t *testing.T) {
	store := testutil.SetupTestDB(t)
	eng := New(store, &MockClassifier{}, notify.NewDispatcherWithChannels(store, nil), nil)

	_, err := eng.Submit(context.Background(), "user@example.com", model.KindText, "")
	if !errors.Is(err, common.ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestSubmitRejectsInvalidSubmitter(t *testing.T) {
	store := testutil.SetupTestDB(t)
	eng := New(store, &MockClassifier{}, notify.NewDispatcherWithChannels(store, nil), nil)

	_, err := eng.Submit(context.Background(), "not-an-email", model.KindText, "content")
	if !errors.Is(err, common.ErrInvalidSubmitter) {
		t.Fatalf("expected ErrInvalidSubmitter, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	store := testutil.SetupTestDB(t)
	eng := New(store, &MockClassifier{}, notify.NewDispatcherWithChannels(store, nil), nil)
	ctx := context.Background()

	submission, err := eng.Submit(ctx, "user@example.com", model.KindText, "hello")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	request, result, logs, err := eng.Lookup(ctx, submission.RequestID)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if request.Status != model.StatusCompleted {
		t.Errorf("expected completed, got %s", request.Status)
	}
	if result == nil || result.Label != model.LabelSafe {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(logs) != 0 {
		t.Errorf("expected no logs for safe result, got %d", len(logs))
	}

	if _, _, _, err := eng.Lookup(ctx, "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
