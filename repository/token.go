package repository

import (
	"context"
	"sync"
)

// StorageEvent describes a mutation of a token store key.
type StorageEvent struct {
	Key      string `json:"key"`
	OldValue string `json:"old_value,omitempty"`
	NewValue string `json:"new_value,omitempty"`
	Source   string `json:"source,omitempty"`
}

// TokenStore is a key-value medium holding credentials, with a change feed.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Subscribe(ctx context.Context) *Subscription
}

// Subscription delivers storage events until closed.
type Subscription struct {
	C <-chan StorageEvent

	once  sync.Once
	close func()
}

// NewSubscription wraps a channel and its release function.
func NewSubscription(ch <-chan StorageEvent, closeFn func()) *Subscription {
	return &Subscription{C: ch, close: closeFn}
}

// Close stops delivery. It is safe to call more than once.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.close != nil {
			s.close()
		}
	})
}
