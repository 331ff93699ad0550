package notify

import (
	"context"
	"fmt"
	"testing"

	"github.com/sievemod/sieve/internal/config"
	"github.com/sievemod/sieve/internal/model"
	"github.com/sievemod/sieve/internal/testutil"
)

// fakeChannel records sends and optionally fails them.
type fakeChannel struct {
	name  model.NotificationChannel
	err   error
	calls int
}

func (f *fakeChannel) Name() model.NotificationChannel { return f.name }

func (f *fakeChannel) Send(_ context.Context, _ *model.ModerationRequest, _ *model.ModerationResult) error {
	f.calls++
	return f.err
}

func setupDispatcherTest(t *testing.T, channels ...Channel) (*Dispatcher, *model.ModerationRequest, func(label string) *model.ModerationResult) {
	t.Helper()
	store := testutil.SetupTestDB(t)

	request, err := store.CreateRequest(context.Background(), "user@example.com", model.KindText, "hash")
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	makeResult := func(label string) *model.ModerationResult {
		classification := &model.Classification{
			Label:      label,
			Confidence: 0.9,
			Reasoning:  "test",
			Provider:   "test",
		}
		result, err := store.CompleteRequest(context.Background(), request.ID, classification)
		if err != nil {
			t.Fatalf("CompleteRequest failed: %v", err)
		}
		return result
	}

	return NewDispatcherWithChannels(store, nil, channels...), request, makeResult
}

func TestDispatchRecordsEveryChannelIndependently(t *testing.T) {
	email := &fakeChannel{name: model.ChannelEmail, err: fmt.Errorf("smtp down")}
	slack := &fakeChannel{name: model.ChannelSlack}
	dispatcher, request, makeResult := setupDispatcherTest(t, email, slack)

	logs := dispatcher.Dispatch(context.Background(), request, makeResult(model.LabelToxic))

	if len(logs) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(logs))
	}
	if logs[0].Channel != model.ChannelEmail || logs[0].Status != model.DeliveryFailed {
		t.Errorf("unexpected email log: %+v", logs[0])
	}
	if logs[1].Channel != model.ChannelSlack || logs[1].Status != model.DeliverySent {
		t.Errorf("unexpected slack log: %+v", logs[1])
	}
	if email.calls != 1 || slack.calls != 1 {
		t.Errorf("expected one attempt per channel, got email=%d slack=%d", email.calls, slack.calls)
	}
}

func TestDispatchSkipsSafeLabel(t *testing.T) {
	email := &fakeChannel{name: model.ChannelEmail}
	dispatcher, request, makeResult := setupDispatcherTest(t, email)

	logs := dispatcher.Dispatch(context.Background(), request, makeResult(model.LabelSafe))

	if len(logs) != 0 {
		t.Errorf("safe classification must not notify, got %d logs", len(logs))
	}
	if email.calls != 0 {
		t.Errorf("safe classification hit the channel %d times", email.calls)
	}
}

func TestDispatchWithZeroChannels(t *testing.T) {
	dispatcher, request, makeResult := setupDispatcherTest(t)

	logs := dispatcher.Dispatch(context.Background(), request, makeResult(model.LabelSpam))
	if len(logs) != 0 {
		t.Errorf("expected zero attempts with zero channels, got %d", len(logs))
	}
}

func TestDispatchAsyncSignalsCompletion(t *testing.T) {
	email := &fakeChannel{name: model.ChannelEmail}
	dispatcher, request, makeResult := setupDispatcherTest(t, email)
	result := makeResult(model.LabelHarassment)

	<-dispatcher.DispatchAsync(request, result)

	if email.calls != 1 {
		t.Errorf("expected one delivery, got %d", email.calls)
	}
}

func TestNewDispatcherChannelSelection(t *testing.T) {
	store := testutil.SetupTestDB(t)

	cfg := config.NotificationsConfig{}
	d := NewDispatcher(cfg, store, nil)
	if len(d.channels) != 0 {
		t.Errorf("expected no channels without credentials, got %d", len(d.channels))
	}

	cfg.Email = config.EmailConfig{APIKey: "k", SenderEmail: "mod@example.com", SenderName: "Mod"}
	cfg.Slack = config.SlackConfig{WebhookURL: "https://hooks.slack.com/services/T/B/X"}
	d = NewDispatcher(cfg, store, nil)
	if len(d.channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(d.channels))
	}
	if d.channels[0].Name() != model.ChannelEmail || d.channels[1].Name() != model.ChannelSlack {
		t.Errorf("unexpected channel order: %v, %v", d.channels[0].Name(), d.channels[1].Name())
	}
}
