package catalog

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	cats := c.Categories()
	if len(cats) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(cats))
	}
	d, err := c.BySlug("chicken-karahi")
	if err != nil {
		t.Fatalf("by slug: %v", err)
	}
	if d.ID != 1 || !d.Price.Equal(decimal.NewFromInt(1250)) {
		t.Fatalf("unexpected dish: %+v", d)
	}
	if _, err := c.Dish(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	c := Default()

	d, _ := c.Dish(1)
	d.Ingredients[0] = "Tofu"
	d.Name = "Changed"

	again, _ := c.Dish(1)
	if again.Ingredients[0] != "Chicken" || again.Name != "Chicken Karahi" {
		t.Fatalf("catalog was mutated through a returned dish: %+v", again)
	}

	cats := c.Categories()
	cats[0].Dishes[0].Ingredients[0] = "Tofu"
	again, _ = c.Dish(1)
	if again.Ingredients[0] != "Chicken" {
		t.Fatal("catalog was mutated through Categories")
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	a := Dish{ID: 1, Slug: "a", Price: decimal.NewFromInt(1)}
	b := Dish{ID: 1, Slug: "b", Price: decimal.NewFromInt(1)}
	if _, err := New(Category{Dishes: []Dish{a, b}}); err == nil {
		t.Fatal("expected duplicate id error")
	}
	b.ID = 2
	b.Slug = "a"
	if _, err := New(Category{Dishes: []Dish{a}}, Category{Dishes: []Dish{b}}); err == nil {
		t.Fatal("expected duplicate slug error")
	}
	neg := Dish{ID: 3, Slug: "c", Price: decimal.NewFromInt(-1)}
	if _, err := New(Category{Dishes: []Dish{neg}}); err == nil {
		t.Fatal("expected negative price error")
	}
}
