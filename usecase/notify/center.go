package notify

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"

	"github.com/fastygo/dashboard/domain"
	"github.com/fastygo/dashboard/repository"
)

// Center keeps displayed notifications until they are clicked or dismissed.
// A notification replaces any earlier one with the same tag.
type Center struct {
	repo  repository.NotificationRepository
	clock clockwork.Clock
}

func NewCenter(repo repository.NotificationRepository, clock clockwork.Clock) *Center {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Center{repo: repo, clock: clock}
}

func (c *Center) Show(ctx context.Context, n domain.Notification) error {
	if n.Tag == "" {
		n.Tag = domain.DefaultNotificationTag
	}
	n.ShownAt = c.clock.Now().UTC()
	return c.repo.Save(ctx, &n)
}

// Close removes the notification with tag. Closing an absent one is a no-op.
func (c *Center) Close(ctx context.Context, tag string) error {
	if err := c.repo.Delete(ctx, tag); err != nil && !errors.Is(err, domain.ErrNotificationNotFound) {
		return err
	}
	return nil
}

// Get returns the displayed notification with tag.
func (c *Center) Get(ctx context.Context, tag string) (*domain.Notification, error) {
	return c.repo.Get(ctx, tag)
}

// List returns the most recently shown notifications first.
func (c *Center) List(ctx context.Context, limit int) ([]domain.Notification, error) {
	return c.repo.List(ctx, limit)
}

var _ Displayer = (*Center)(nil)
