// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound = errors.New("not found")

	// Moderation lifecycle errors.
	ErrClassificationUnavailable = errors.New("classification unavailable")
	ErrInvalidStateTransition    = errors.New("invalid state transition")
	ErrEmptyContent              = errors.New("empty content")
	ErrInvalidSubmitter          = errors.New("invalid submitter")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
