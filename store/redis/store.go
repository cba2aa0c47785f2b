// Package redis provides a store.Store that keeps the book as a JSON value
// under a single Redis key.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/xraph/tally"
	"github.com/xraph/tally/document"
	"github.com/xraph/tally/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store on top of a go-redis client.
type Store struct {
	client *redis.Client
	key    string
}

// New wraps an existing client. An empty key selects store.DefaultKey.
func New(client *redis.Client, key string) *Store {
	if key == "" {
		key = store.DefaultKey
	}
	return &Store{client: client, key: key}
}

// Open parses a redis:// URL and returns a store using it.
func Open(url, key string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("tally/redis: invalid url: %w", err)
	}
	return New(redis.NewClient(opts), key), nil
}

// Client returns the underlying client for direct access.
func (s *Store) Client() *redis.Client { return s.client }

// Load implements store.Store.
func (s *Store) Load(ctx context.Context) (*document.Document, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, tally.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("tally/redis: get %s: %w", s.key, err)
	}
	return document.Decode(data)
}

// Save implements store.Store. SET replaces the value in one command.
func (s *Store) Save(ctx context.Context, doc *document.Document) error {
	data, err := document.Encode(doc)
	if err != nil {
		return fmt.Errorf("tally/redis: encode: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("tally/redis: set %s: %w", s.key, err)
	}
	return nil
}

// Migrate implements store.Store. Redis needs no schema.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping checks server connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
