// Package engine composes the moderation pipeline: persist a pending
// request, classify it, record the outcome, and schedule notifications.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sievemod/sieve/internal/analytics"
	"github.com/sievemod/sieve/internal/common"
	"github.com/sievemod/sieve/internal/model"
	"github.com/sievemod/sieve/internal/service"
)

// Dispatcher schedules notification delivery decoupled from the
// request-handling path.
type Dispatcher interface {
	DispatchAsync(request *model.ModerationRequest, result *model.ModerationResult) <-chan struct{}
}

// Engine orchestrates content submissions end to end.
type Engine struct {
	store      service.Storage
	classifier service.Classifier
	dispatcher Dispatcher
	aggregator *analytics.Aggregator
	logger     *slog.Logger
}

// New creates the moderation engine.
func New(store service.Storage, classifier service.Classifier, dispatcher Dispatcher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:      store,
		classifier: classifier,
		dispatcher: dispatcher,
		aggregator: analytics.NewAggregator(store),
		logger:     logger,
	}
}

// Submission is the caller-facing view of a finished submit call.
// Classification fields are populated only when Status is completed.
// Confidence always serializes: the fallback provider legitimately
// answers with confidence 0.
type Submission struct {
	RequestID   string          `json:"request_id"`
	Status      string          `json:"status"`
	Label       string          `json:"classification,omitempty"`
	Confidence  float64         `json:"confidence"`
	Reasoning   string          `json:"reasoning,omitempty"`
	RawResponse json.RawMessage `json:"raw_response,omitempty"`
	Provider    string          `json:"provider_used,omitempty"`

	// NotifyDone closes once the async notification dispatch for this
	// submission finishes. Nil when nothing was dispatched.
	NotifyDone <-chan struct{} `json:"-"`
}

// Submit runs the full moderation flow for one piece of content. The
// pending record is durable before any provider is called; classification
// must resolve before the record leaves pending. Notification dispatch is
// scheduled after the completing transaction commits and never blocks the
// returned response.
//
// On success the submission is completed with its classification. If every
// provider fails the request is marked failed and the error wraps
// common.ErrClassificationUnavailable; no other provider-internal error
// reaches the caller.
func (e *Engine) Submit(ctx context.Context, submitter string, kind model.ContentKind, content string) (*Submission, error) {
	fingerprint, err := model.Fingerprint([]byte(content))
	if err != nil {
		return nil, err
	}

	request, err := e.store.CreateRequest(ctx, submitter, kind, fingerprint)
	if err != nil {
		return nil, err
	}

	// The caller may abandon the request mid-flight. Once the pending
	// record exists, classification and persistence must still run to
	// completion, so the rest of the pipeline ignores caller cancellation.
	ctx = context.WithoutCancel(ctx)

	classification, err := e.classifier.Classify(ctx, content, kind)
	if err != nil {
		e.logger.Error("classification exhausted all providers",
			"request_id", request.ID,
			"kind", kind,
			"error", err)
		if failErr := e.store.FailRequest(ctx, request.ID, err.Error()); failErr != nil {
			e.logger.Error("failed to mark request failed",
				"request_id", request.ID,
				"error", failErr)
		}
		return nil, fmt.Errorf("request %s: %w", request.ID, common.ErrClassificationUnavailable)
	}

	result, err := e.store.CompleteRequest(ctx, request.ID, classification)
	if err != nil {
		return nil, fmt.Errorf("failed to record classification for request %s: %w", request.ID, err)
	}

	submission := &Submission{
		RequestID:   request.ID,
		Status:      string(model.StatusCompleted),
		Label:       result.Label,
		Confidence:  result.Confidence,
		Reasoning:   result.Reasoning,
		RawResponse: result.RawResponse,
		Provider:    result.Provider,
	}

	if model.NotifyWorthy(result.Label) {
		submission.NotifyDone = e.dispatcher.DispatchAsync(request, result)
	}

	e.logger.Info("moderation completed",
		"request_id", request.ID,
		"submitter", submitter,
		"kind", kind,
		"label", result.Label,
		"provider", result.Provider)

	return submission, nil
}

// Analytics returns the per-submitter summary.
func (e *Engine) Analytics(ctx context.Context, submitter string) (*model.Summary, error) {
	return e.aggregator.Summarize(ctx, submitter)
}

// Lookup returns the stored view of a past submission: the request, its
// result when completed, and any notification attempts.
func (e *Engine) Lookup(ctx context.Context, requestID string) (*model.ModerationRequest, *model.ModerationResult, []model.NotificationLog, error) {
	request, err := e.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, nil, nil, err
	}

	var result *model.ModerationResult
	if request.Status == model.StatusCompleted {
		result, err = e.store.GetResult(ctx, requestID)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	logs, err := e.store.GetNotificationLogs(ctx, requestID)
	if err != nil {
		return nil, nil, nil, err
	}
	return request, result, logs, nil
}
