package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sievemod/sieve/internal/common"
	"github.com/sievemod/sieve/internal/model"
)

// CreateRequest atomically inserts a new pending moderation request.
// A crash after this call leaves a durable pending record for the sweeper
// to reconcile.
func (s *SQLiteStorage) CreateRequest(ctx context.Context, submitter string, kind model.ContentKind, contentHash string) (*model.ModerationRequest, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateSubmitter(submitter); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid content kind: %q", kind)
	}
	if err := validateString(contentHash, "contentHash"); err != nil {
		return nil, err
	}

	request := &model.ModerationRequest{
		ID:          uuid.NewString(),
		Submitter:   submitter,
		Kind:        kind,
		ContentHash: contentHash,
		Status:      model.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO moderation_requests (id, submitter, kind, content_hash, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		request.ID, request.Submitter, string(request.Kind), request.ContentHash,
		string(request.Status), request.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert moderation request: %w", err)
	}

	return request, nil
}

// CompleteRequest writes the moderation result and flips the request to
// completed in one transaction. Readers never observe a completed status
// without its result, or vice versa. Completing a non-pending request is
// an invalid state transition.
func (s *SQLiteStorage) CompleteRequest(ctx context.Context, requestID string, classification *model.Classification) (*model.ModerationResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(requestID, "requestID"); err != nil {
		return nil, err
	}
	if err := validateClassification(classification); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := requirePending(ctx, tx, requestID); err != nil {
		return nil, err
	}

	result := &model.ModerationResult{
		ID:          uuid.NewString(),
		RequestID:   requestID,
		Label:       classification.Label,
		Confidence:  classification.Confidence,
		Reasoning:   classification.Reasoning,
		RawResponse: classification.RawResponse,
		Provider:    classification.Provider,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO moderation_results (id, request_id, label, confidence, reasoning, raw_response, provider)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.RequestID, result.Label, result.Confidence,
		result.Reasoning, string(result.RawResponse), result.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to insert moderation result: %w", err)
	}

	if err := transition(ctx, tx, requestID, model.StatusCompleted, ""); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit completion: %w", err)
	}

	return result, nil
}

// FailRequest flips a pending request to failed with the given reason.
// No moderation result is written. Failing a non-pending request is an
// invalid state transition.
func (s *SQLiteStorage) FailRequest(ctx context.Context, requestID, reason string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(requestID, "requestID"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := requirePending(ctx, tx, requestID); err != nil {
		return err
	}
	if err := transition(ctx, tx, requestID, model.StatusFailed, reason); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit failure: %w", err)
	}
	return nil
}

// requirePending verifies the request exists and is still pending.
func requirePending(ctx context.Context, tx *sql.Tx, requestID string) error {
	var status string
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM moderation_requests WHERE id = ?`, requestID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: moderation request %s", common.ErrNotFound, requestID)
	}
	if err != nil {
		return fmt.Errorf("failed to read request status: %w", err)
	}
	if model.RequestStatus(status) != model.StatusPending {
		return fmt.Errorf("%w: request %s is %s", common.ErrInvalidStateTransition, requestID, status)
	}
	return nil
}

// transition flips the status inside tx. The WHERE status clause guards
// against a concurrent writer sneaking in between the pending check and
// the update.
func transition(ctx context.Context, tx *sql.Tx, requestID string, to model.RequestStatus, reason string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE moderation_requests SET status = ?, fail_reason = ? WHERE id = ? AND status = ?`,
		string(to), reason, requestID, string(model.StatusPending))
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("%w: request %s left pending concurrently", common.ErrInvalidStateTransition, requestID)
	}
	return nil
}

// GetRequest returns one moderation request by id.
func (s *SQLiteStorage) GetRequest(ctx context.Context, requestID string) (*model.ModerationRequest, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(requestID, "requestID"); err != nil {
		return nil, err
	}

	var req model.ModerationRequest
	var kind, status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, submitter, kind, content_hash, status, fail_reason, created_at
		 FROM moderation_requests WHERE id = ?`, requestID).
		Scan(&req.ID, &req.Submitter, &kind, &req.ContentHash, &status, &req.FailReason, &req.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: moderation request %s", common.ErrNotFound, requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	req.Kind = model.ContentKind(kind)
	req.Status = model.RequestStatus(status)
	return &req, nil
}

// GetResult returns the result owned by a completed request.
func (s *SQLiteStorage) GetResult(ctx context.Context, requestID string) (*model.ModerationResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(requestID, "requestID"); err != nil {
		return nil, err
	}

	var result model.ModerationResult
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, request_id, label, confidence, reasoning, raw_response, provider
		 FROM moderation_results WHERE request_id = ?`, requestID).
		Scan(&result.ID, &result.RequestID, &result.Label, &result.Confidence,
			&result.Reasoning, &raw, &result.Provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: result for request %s", common.ErrNotFound, requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	if raw != "" {
		result.RawResponse = []byte(raw)
	}
	return &result, nil
}

// SaveNotificationLog records one channel delivery attempt. Each attempt
// is written exactly once.
func (s *SQLiteStorage) SaveNotificationLog(ctx context.Context, log *model.NotificationLog) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if log == nil {
		return fmt.Errorf("%w: log", ErrNilParameter)
	}
	if err := validateString(log.RequestID, "requestID"); err != nil {
		return err
	}

	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.SentAt.IsZero() {
		log.SentAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notification_logs (id, request_id, channel, status, sent_at)
		 VALUES (?, ?, ?, ?, ?)`,
		log.ID, log.RequestID, string(log.Channel), string(log.Status), log.SentAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification log: %w", err)
	}
	return nil
}

// GetNotificationLogs returns all delivery attempts recorded for a request.
func (s *SQLiteStorage) GetNotificationLogs(ctx context.Context, requestID string) ([]model.NotificationLog, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(requestID, "requestID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, channel, status, sent_at
		 FROM notification_logs WHERE request_id = ? ORDER BY sent_at, id`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var logs []model.NotificationLog
	for rows.Next() {
		var log model.NotificationLog
		var channel, status string
		if err := rows.Scan(&log.ID, &log.RequestID, &channel, &status, &log.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification log: %w", err)
		}
		log.Channel = model.NotificationChannel(channel)
		log.Status = model.DeliveryStatus(status)
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notification logs: %w", err)
	}
	return logs, nil
}

// Summarize builds the per-submitter analytics projection. Total counts
// every request regardless of status; the breakdown counts only completed
// requests, keyed by result label.
func (s *SQLiteStorage) Summarize(ctx context.Context, submitter string) (*model.Summary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateSubmitter(submitter); err != nil {
		return nil, err
	}

	summary := &model.Summary{
		Submitter: submitter,
		Breakdown: make(map[string]int),
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM moderation_requests WHERE submitter = ?`, submitter).
		Scan(&summary.TotalRequests)
	if err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT mr.label, COUNT(*)
		 FROM moderation_results mr
		 JOIN moderation_requests req ON req.id = mr.request_id
		 WHERE req.submitter = ? AND req.status = ?
		 GROUP BY mr.label`, submitter, string(model.StatusCompleted))
	if err != nil {
		return nil, fmt.Errorf("failed to query label breakdown: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("failed to scan breakdown row: %w", err)
		}
		summary.Breakdown[label] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate breakdown: %w", err)
	}

	return summary, nil
}

// FailStalePending fails every pending request older than the cutoff.
// Used by the sweeper to reconcile requests orphaned by a crash between
// creation and classification.
func (s *SQLiteStorage) FailStalePending(ctx context.Context, olderThan time.Duration, reason string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive, got %v", olderThan)
	}

	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := s.db.ExecContext(ctx,
		`UPDATE moderation_requests SET status = ?, fail_reason = ?
		 WHERE status = ? AND created_at < ?`,
		string(model.StatusFailed), reason, string(model.StatusPending), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale pending requests: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected, nil
}
