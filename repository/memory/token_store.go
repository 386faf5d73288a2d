package memory

import (
	"context"
	"sync"

	"github.com/fastygo/dashboard/domain"
	"github.com/fastygo/dashboard/repository"
)

// TokenStore keeps credentials in process memory.
type TokenStore struct {
	mu     sync.RWMutex
	values map[string]string
	feed   *repository.Feed
	source string
}

// NewTokenStore creates an empty in-memory store. Events it publishes carry
// source as their origin.
func NewTokenStore(source string) *TokenStore {
	return &TokenStore{
		values: make(map[string]string),
		feed:   repository.NewFeed(),
		source: source,
	}
}

func (s *TokenStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return "", domain.ErrTokenNotFound
	}
	return value, nil
}

func (s *TokenStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	old := s.values[key]
	s.values[key] = value
	s.mu.Unlock()

	s.feed.Publish(repository.StorageEvent{Key: key, OldValue: old, NewValue: value, Source: s.source})
	return nil
}

func (s *TokenStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	old, ok := s.values[key]
	delete(s.values, key)
	s.mu.Unlock()

	if ok {
		s.feed.Publish(repository.StorageEvent{Key: key, OldValue: old, Source: s.source})
	}
	return nil
}

func (s *TokenStore) Subscribe(ctx context.Context) *repository.Subscription {
	return s.feed.Subscribe(ctx)
}

var _ repository.TokenStore = (*TokenStore)(nil)
