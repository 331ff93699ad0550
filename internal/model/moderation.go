// Package model defines the core domain models used throughout the application.
package model

import (
	"encoding/json"
	"time"
)

// ContentKind identifies what sort of content was submitted for moderation.
type ContentKind string

// Content kind constants.
const (
	KindText  ContentKind = "text"
	KindImage ContentKind = "image"
)

// Valid reports whether the kind is one of the supported content kinds.
func (k ContentKind) Valid() bool {
	return k == KindText || k == KindImage
}

// RequestStatus tracks the lifecycle of a moderation request.
// Transitions are one-directional: pending is the only initial state,
// completed and failed are terminal.
type RequestStatus string

// Request status constants.
const (
	StatusPending   RequestStatus = "pending"
	StatusCompleted RequestStatus = "completed"
	StatusFailed    RequestStatus = "failed"
)

// Terminal reports whether the status accepts no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Classification labels. Providers may extend this set; these are the
// labels the notification policy and analytics understand.
const (
	LabelSafe       = "safe"
	LabelToxic      = "toxic"
	LabelSpam       = "spam"
	LabelHarassment = "harassment"
)

// NotifyWorthy reports whether a classification label should trigger
// notification dispatch. Anything other than safe notifies.
func NotifyWorthy(label string) bool {
	return label != LabelSafe
}

// ModerationRequest represents a single piece of submitted content moving
// through the moderation pipeline.
type ModerationRequest struct {
	CreatedAt   time.Time
	ID          string
	Submitter   string // email-shaped submitter identifier
	Kind        ContentKind
	ContentHash string
	Status      RequestStatus
	FailReason  string // set only when Status is failed
}

// ModerationResult is the classification outcome for a completed request.
// Exactly one result exists per completed request; none for pending or
// failed requests.
type ModerationResult struct {
	ID          string
	RequestID   string
	Label       string
	Confidence  float64
	Reasoning   string
	RawResponse json.RawMessage // provider payload preserved verbatim for audit
	Provider    string
}

// NotificationChannel identifies a delivery channel for alerts.
type NotificationChannel string

// Notification channel constants.
const (
	ChannelEmail NotificationChannel = "email"
	ChannelSlack NotificationChannel = "slack"
)

// DeliveryStatus records the outcome of a single channel attempt.
type DeliveryStatus string

// Delivery status constants.
const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// NotificationLog records one delivery attempt on one channel for a
// completed, notify-worthy request.
type NotificationLog struct {
	SentAt    time.Time
	ID        string
	RequestID string
	Channel   NotificationChannel
	Status    DeliveryStatus
}

// Summary is the per-submitter analytics projection. Breakdown counts only
// completed requests, keyed by result label; labels without history are
// absent rather than zero.
type Summary struct {
	Breakdown     map[string]int
	Submitter     string
	TotalRequests int
}
