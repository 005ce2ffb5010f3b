package store

import (
	"context"

	"github.com/nhle/hr-console/internal/model"
)

// NotificationFilter controls which history entries are returned.
type NotificationFilter struct {
	Kind  *model.NotificationKind
	Limit int
}

// Store defines the persistence interface for local console state. Remote
// HR records are never stored locally.
type Store interface {
	CreateNotification(ctx context.Context, n model.NotificationEvent) error
	GetNotifications(ctx context.Context, filter NotificationFilter) ([]model.NotificationEvent, error)
	GetUnreadCount(ctx context.Context) (int, error)
	MarkAllNotificationsRead(ctx context.Context) error
	PruneNotifications(ctx context.Context, keep int) error
}
