package repository

import (
	"context"

	"github.com/fastygo/dashboard/domain"
)

// NotificationRepository persists displayed notifications keyed by tag.
// Saving a notification with an existing tag replaces the earlier one.
type NotificationRepository interface {
	Save(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, tag string) (*domain.Notification, error)
	List(ctx context.Context, limit int) ([]domain.Notification, error)
	Delete(ctx context.Context, tag string) error
}
