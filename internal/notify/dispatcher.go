// Package notify dispatches moderation alerts across independent delivery
// channels and records every attempt.
package notify

import (
	"context"
	"log/slog"

	"github.com/sievemod/sieve/internal/config"
	"github.com/sievemod/sieve/internal/model"
	"github.com/sievemod/sieve/internal/service"
)

// Channel is one alert delivery mechanism. Channels are attempted
// independently; one channel's failure never blocks another.
type Channel interface {
	Name() model.NotificationChannel
	Send(ctx context.Context, request *model.ModerationRequest, result *model.ModerationResult) error
}

// Dispatcher fans a notify-worthy moderation result out to every
// configured channel and records one NotificationLog per attempt.
type Dispatcher struct {
	store    service.Storage
	logger   *slog.Logger
	channels []Channel
}

// NewDispatcher builds a dispatcher from the notification configuration.
// Unconfigured channels are simply absent: a deployment with none performs
// zero dispatch attempts and logs nothing.
func NewDispatcher(cfg config.NotificationsConfig, store service.Storage, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	var channels []Channel
	if cfg.Email.Configured() {
		channels = append(channels, NewEmailChannel(cfg.Email))
	}
	if cfg.Slack.Configured() {
		channels = append(channels, NewSlackChannel(cfg.Slack))
	}

	return &Dispatcher{
		store:    store,
		logger:   logger,
		channels: channels,
	}
}

// NewDispatcherWithChannels builds a dispatcher over an explicit channel
// list.
func NewDispatcherWithChannels(store service.Storage, logger *slog.Logger, channels ...Channel) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{store: store, logger: logger, channels: channels}
}

// Dispatch notifies every configured channel about a completed,
// notify-worthy classification. Channel errors are recorded as failed log
// entries and never returned; dispatch cannot affect the stored moderation
// result.
func (d *Dispatcher) Dispatch(ctx context.Context, request *model.ModerationRequest, result *model.ModerationResult) []model.NotificationLog {
	if !model.NotifyWorthy(result.Label) {
		return nil
	}

	logs := make([]model.NotificationLog, 0, len(d.channels))
	for _, ch := range d.channels {
		status := model.DeliverySent
		if err := ch.Send(ctx, request, result); err != nil {
			status = model.DeliveryFailed
			d.logger.Warn("notification delivery failed",
				"channel", ch.Name(),
				"request_id", request.ID,
				"error", err)
		}

		entry := model.NotificationLog{
			RequestID: request.ID,
			Channel:   ch.Name(),
			Status:    status,
		}
		if err := d.store.SaveNotificationLog(ctx, &entry); err != nil {
			d.logger.Error("failed to record notification log",
				"channel", ch.Name(),
				"request_id", request.ID,
				"error", err)
		}
		logs = append(logs, entry)
	}
	return logs
}

// DispatchAsync schedules Dispatch on its own goroutine so the caller's
// response never waits on delivery. The returned channel closes when the
// dispatch finishes; callers that don't care may ignore it.
func (d *Dispatcher) DispatchAsync(request *model.ModerationRequest, result *model.ModerationResult) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Dispatch(context.Background(), request, result)
	}()
	return done
}
