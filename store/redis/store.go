// Package redis stores settle snapshots as plain Redis strings.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/settle"
	settlestore "github.com/xraph/settle/store"
)

// DefaultKeyPrefix is prepended to every key.
const DefaultKeyPrefix = "settle:"

var _ settlestore.Store = (*Store)(nil)

// Store implements store.Store over a go-redis client. Values never expire.
type Store struct {
	client redis.UniversalClient
	prefix string
	owned  bool
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix overrides DefaultKeyPrefix. An empty prefix stores keys as-is.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New wraps an existing client. Close does not close a client passed here.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to addr and returns a Store that owns the client.
func Open(addr, password string, db int, opts ...Option) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	s := New(client, opts...)
	s.owned = true
	return s
}

// Client returns the underlying client.
func (s *Store) Client() redis.UniversalClient { return s.client }

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("settle/redis: get %q: %w", key, settle.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("settle/redis: get %q: %w", key, translate(err))
	}
	return val, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("settle/redis: set %q: %w", key, translate(err))
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("settle/redis: del %q: %w", key, translate(err))
	}
	return nil
}

// Migrate is a no-op; Redis needs no schema.
func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("settle/redis: ping: %w", translate(err))
	}
	return nil
}

func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

func translate(err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("%w: %w", settle.ErrStoreClosed, err)
	}
	return err
}
