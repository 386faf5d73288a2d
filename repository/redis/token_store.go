package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/dashboard/domain"
	"github.com/fastygo/dashboard/repository"
)

const (
	defaultPrefix  = "token:"
	defaultChannel = "token-events"
	eventBuffer    = 16
)

// TokenStore keeps credentials in Redis and announces every mutation on a
// pub/sub channel, so other instances observe logins and logouts the way
// other browser tabs observe storage events.
type TokenStore struct {
	client  *redislib.Client
	prefix  string
	channel string
	source  string
	logger  *zap.Logger
}

// NewTokenStore creates a Redis-backed token store.
func NewTokenStore(client *redislib.Client, logger *zap.Logger) *TokenStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenStore{
		client:  client,
		prefix:  defaultPrefix,
		channel: defaultChannel,
		source:  uuid.NewString(),
		logger:  logger,
	}
}

// Source identifies events published by this instance.
func (s *TokenStore) Source() string {
	return s.source
}

func (s *TokenStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", domain.ErrTokenNotFound
		}
		return "", err
	}
	return value, nil
}

func (s *TokenStore) Set(ctx context.Context, key, value string) error {
	old, err := s.client.SetArgs(ctx, s.key(key), value, redislib.SetArgs{Get: true}).Result()
	if err != nil && !errors.Is(err, redislib.Nil) {
		return err
	}
	return s.publish(ctx, repository.StorageEvent{Key: key, OldValue: old, NewValue: value, Source: s.source})
}

func (s *TokenStore) Delete(ctx context.Context, key string) error {
	old, err := s.client.GetDel(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil
		}
		return err
	}
	return s.publish(ctx, repository.StorageEvent{Key: key, OldValue: old, Source: s.source})
}

// Subscribe listens on the change channel until ctx is done or the
// subscription is closed. Events are dropped when the receiver is slow.
func (s *TokenStore) Subscribe(ctx context.Context) *repository.Subscription {
	if ctx == nil {
		ctx = context.Background()
	}
	subCtx, cancel := context.WithCancel(ctx)
	pubsub := s.client.Subscribe(subCtx, s.channel)
	// Wait for the subscription to be confirmed so no later change is missed.
	if _, err := pubsub.Receive(subCtx); err != nil {
		s.logger.Warn("token event subscription not confirmed", zap.Error(err))
	}
	ch := make(chan repository.StorageEvent, eventBuffer)

	go func() {
		defer close(ch)
		msgCh := pubsub.Channel()
		for {
			select {
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				var ev repository.StorageEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					s.logger.Warn("malformed token event", zap.Error(err))
					continue
				}
				select {
				case ch <- ev:
				default:
				}
			case <-subCtx.Done():
				return
			}
		}
	}()

	return repository.NewSubscription(ch, func() {
		cancel()
		_ = pubsub.Close()
	})
}

func (s *TokenStore) publish(ctx context.Context, ev repository.StorageEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal token event: %w", err)
	}
	return s.client.Publish(ctx, s.channel, payload).Err()
}

func (s *TokenStore) key(name string) string {
	return fmt.Sprintf("%s%s", s.prefix, name)
}

var _ repository.TokenStore = (*TokenStore)(nil)
