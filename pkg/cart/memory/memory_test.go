package memory

import (
	"context"
	"errors"
	"testing"

	"sufikitchen/pkg/cart"
)

func TestStorage(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Load(ctx, "k"); !errors.Is(err, cart.ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}

	data := []byte(`{"items":[]}`)
	if err := s.Save(ctx, "k", data); err != nil {
		t.Fatalf("save: %v", err)
	}
	data[0] = 'X'

	got, err := s.Load(ctx, "k")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `{"items":[]}` {
		t.Fatalf("stored bytes aliased caller slice: %s", got)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Load(ctx, "k"); !errors.Is(err, cart.ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot after delete, got %v", err)
	}
	if s.Saves() != 1 {
		t.Fatalf("expected 1 save, got %d", s.Saves())
	}
}

func TestStorageHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New().Save(ctx, "k", nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
