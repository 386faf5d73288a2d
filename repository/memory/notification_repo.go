package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fastygo/dashboard/domain"
	"github.com/fastygo/dashboard/repository"
)

type notificationRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Notification
}

// NewNotificationRepository returns a process-local notification center store.
func NewNotificationRepository() repository.NotificationRepository {
	return &notificationRepository{items: make(map[string]domain.Notification)}
}

func (r *notificationRepository) Save(_ context.Context, n *domain.Notification) error {
	if n == nil || n.Tag == "" {
		return domain.ErrInvalidPayload
	}
	if n.ShownAt.IsZero() {
		n.ShownAt = time.Now()
	}
	r.mu.Lock()
	r.items[n.Tag] = copyNotification(*n)
	r.mu.Unlock()
	return nil
}

func (r *notificationRepository) Get(_ context.Context, tag string) (*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.items[tag]
	if !ok {
		return nil, domain.ErrNotificationNotFound
	}
	out := copyNotification(n)
	return &out, nil
}

func (r *notificationRepository) List(_ context.Context, limit int) ([]domain.Notification, error) {
	r.mu.RLock()
	out := make([]domain.Notification, 0, len(r.items))
	for _, n := range r.items {
		out = append(out, copyNotification(n))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ShownAt.After(out[j].ShownAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *notificationRepository) Delete(_ context.Context, tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[tag]; !ok {
		return domain.ErrNotificationNotFound
	}
	delete(r.items, tag)
	return nil
}

func copyNotification(n domain.Notification) domain.Notification {
	if n.Data != nil {
		data := make(map[string]string, len(n.Data))
		for k, v := range n.Data {
			data[k] = v
		}
		n.Data = data
	}
	if n.Vibrate != nil {
		n.Vibrate = append([]int(nil), n.Vibrate...)
	}
	return n
}
