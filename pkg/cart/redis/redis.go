// Package redis stores cart snapshots in Redis with an expiry, so abandoned
// carts age out on their own.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"sufikitchen/pkg/cart"
)

// Storage persists snapshots as plain Redis string values.
type Storage struct {
	client redis.Cmdable
	ttl    time.Duration
}

// New creates a Redis snapshot storage. A zero ttl keeps snapshots forever.
func New(client redis.Cmdable, ttl time.Duration) *Storage {
	return &Storage{client: client, ttl: ttl}
}

// Save writes the snapshot and refreshes its expiry.
func (s *Storage) Save(ctx context.Context, key string, data []byte) error {
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

// Load reads the snapshot for key.
func (s *Storage) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrNoSnapshot
	}
	return data, err
}

// Delete removes the snapshot for key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
