package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"sufikitchen/pkg/cart"
	"sufikitchen/pkg/catalog"
)

func TestStorage(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if _, err := s.Load(ctx, "k"); !errors.Is(err, cart.ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
	if err := s.Save(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Load(ctx, "k")
	if err != nil || string(got) != "two" {
		t.Fatalf("load: %q %v", got, err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Load(ctx, "k"); !errors.Is(err, cart.ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot after delete, got %v", err)
	}
}

func TestCartSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cart.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	store := cart.NewStore(s, cart.Key("device"))
	store.Initialize(ctx)
	store.AddItem(catalog.Dish{ID: 1, Name: "Chicken Karahi", Price: decimal.NewFromInt(1250)})
	store.AddItem(catalog.Dish{ID: 3, Name: "Chana Chaat", Price: decimal.NewFromInt(450)})
	store.AddItem(catalog.Dish{ID: 1, Name: "Chicken Karahi", Price: decimal.NewFromInt(1250)})
	store.Close()
	s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	restored := cart.NewStore(s, cart.Key("device"))
	defer restored.Close()

	if res := restored.Initialize(ctx); res != cart.LoadRestored {
		t.Fatalf("expected restored, got %s", res)
	}
	items := restored.Items()
	if len(items) != 2 || items[0].ID != 1 || items[0].Quantity != 2 || items[1].ID != 3 {
		t.Fatalf("unexpected items: %+v", items)
	}
	if !restored.TotalPrice().Equal(decimal.NewFromInt(2950)) || restored.TotalItems() != 3 {
		t.Fatalf("unexpected totals: %s %d", restored.TotalPrice(), restored.TotalItems())
	}
}
