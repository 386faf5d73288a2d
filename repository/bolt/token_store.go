package bolt

import (
	"context"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/dashboard/domain"
	"github.com/fastygo/dashboard/repository"
)

// TokenStore persists credentials in a BoltDB file, standing in for the
// browser's local storage.
type TokenStore struct {
	db     *bolt.DB
	bucket []byte
	feed   *repository.Feed
	source string
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path, bucket string) (*TokenStore, error) {
	if bucket == "" {
		bucket = "tokens"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &TokenStore{
		db:     db,
		bucket: []byte(bucket),
		feed:   repository.NewFeed(),
		source: "bolt",
	}, nil
}

func (s *TokenStore) Get(_ context.Context, key string) (string, error) {
	if s == nil || s.db == nil {
		return "", bolt.ErrDatabaseNotOpen
	}
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(s.bucket).Get([]byte(key)); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if value == nil {
		return "", domain.ErrTokenNotFound
	}
	return string(value), nil
}

func (s *TokenStore) Set(_ context.Context, key, value string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	var old string
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if v := b.Get([]byte(key)); v != nil {
			old = string(v)
		}
		return b.Put([]byte(key), []byte(value))
	})
	if err != nil {
		return err
	}
	s.feed.Publish(repository.StorageEvent{Key: key, OldValue: old, NewValue: value, Source: s.source})
	return nil
}

func (s *TokenStore) Delete(_ context.Context, key string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	var (
		old     string
		existed bool
	)
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if v := b.Get([]byte(key)); v != nil {
			old, existed = string(v), true
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return err
	}
	if existed {
		s.feed.Publish(repository.StorageEvent{Key: key, OldValue: old, Source: s.source})
	}
	return nil
}

func (s *TokenStore) Subscribe(ctx context.Context) *repository.Subscription {
	return s.feed.Subscribe(ctx)
}

// Size returns the number of stored keys.
func (s *TokenStore) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the Bolt database.
func (s *TokenStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ repository.TokenStore = (*TokenStore)(nil)
