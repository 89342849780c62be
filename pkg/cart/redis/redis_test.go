package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"sufikitchen/pkg/cart"
)

func TestStorage(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	s := New(client, time.Minute)

	key := cart.Key("redis-test")
	defer s.Delete(ctx, key)

	if err := s.Save(ctx, key, []byte(`{"items":[]}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, key)
	if err != nil || string(got) != `{"items":[]}` {
		t.Fatalf("load: %q %v", got, err)
	}
	ttl, err := client.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		t.Fatalf("expected expiry on key, got %v %v", ttl, err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Load(ctx, key); !errors.Is(err, cart.ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}
