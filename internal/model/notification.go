package model

import "time"

// NotificationKind distinguishes success toasts from error toasts.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// NotificationEvent is a single user-facing message produced by the
// notification bridge from a request transition or a session failure.
type NotificationEvent struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// Kind is either success or error.
	Kind NotificationKind `json:"kind" db:"kind"`

	// Message is the human-readable text shown to the user.
	Message string `json:"message" db:"message"`

	// DedupeKey groups identical events; two events with the same key are
	// never emitted within one dedupe window.
	DedupeKey string `json:"dedupe_key" db:"dedupe_key"`

	// Entity and Operation identify the slot that produced the event.
	Entity    Entity    `json:"entity" db:"entity"`
	Operation Operation `json:"operation" db:"operation"`

	// Read indicates whether the user has seen this notification in the
	// history view.
	Read bool `json:"read" db:"read"`

	// EmittedAt is when the bridge emitted the event.
	EmittedAt time.Time `json:"emitted_at" db:"emitted_at"`
}
