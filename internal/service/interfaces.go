// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/sievemod/sieve/internal/model"
)

// Storage defines the contract for the moderation record store. It
// exclusively owns creation and mutation of requests, results, and
// notification logs; everything else only reads.
type Storage interface {
	// Request lifecycle
	CreateRequest(ctx context.Context, submitter string, kind model.ContentKind, contentHash string) (*model.ModerationRequest, error)
	CompleteRequest(ctx context.Context, requestID string, classification *model.Classification) (*model.ModerationResult, error)
	FailRequest(ctx context.Context, requestID, reason string) error

	// Reads
	GetRequest(ctx context.Context, requestID string) (*model.ModerationRequest, error)
	GetResult(ctx context.Context, requestID string) (*model.ModerationResult, error)
	GetNotificationLogs(ctx context.Context, requestID string) ([]model.NotificationLog, error)
	Summarize(ctx context.Context, submitter string) (*model.Summary, error)

	// Notification bookkeeping
	SaveNotificationLog(ctx context.Context, log *model.NotificationLog) error

	// Reconciliation
	FailStalePending(ctx context.Context, olderThan time.Duration, reason string) (int64, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Classifier produces a normalized classification for submitted content.
// Implementations must be stateless so a classify call can be retried
// safely.
type Classifier interface {
	Classify(ctx context.Context, content string, kind model.ContentKind) (*model.Classification, error)
}

// Notifier dispatches alerts for notify-worthy classifications. Channel
// failures are recorded, never returned to the caller.
type Notifier interface {
	Dispatch(ctx context.Context, request *model.ModerationRequest, result *model.ModerationResult) []model.NotificationLog
}
