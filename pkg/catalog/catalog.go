// Package catalog holds the restaurant menu: an immutable set of dishes
// grouped by category.
package catalog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates the requested dish does not exist.
var ErrNotFound = errors.New("dish not found")

// Review is a customer review attached to a dish.
type Review struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

// Dish is a sellable menu item.
type Dish struct {
	ID              int             `json:"id"`
	Slug            string          `json:"slug"`
	Name            string          `json:"name"`
	NameUrdu        string          `json:"nameUrdu,omitempty"`
	Description     string          `json:"description,omitempty"`
	LongDescription string          `json:"longDescription,omitempty"`
	Image           string          `json:"image,omitempty"`
	AIHint          string          `json:"aiHint,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Ingredients     []string        `json:"ingredients,omitempty"`
	Occasion        string          `json:"occasion,omitempty"`
	Reviews         []Review        `json:"reviews,omitempty"`
}

// Clone returns a copy of d that shares no slices with it.
func (d Dish) Clone() Dish {
	d.Ingredients = slices.Clone(d.Ingredients)
	d.Reviews = slices.Clone(d.Reviews)
	return d
}

// Category is a named group of dishes.
type Category struct {
	Slug   string `json:"slug"`
	Name   string `json:"name"`
	Dishes []Dish `json:"dishes"`
}

// Catalog is a read-only menu. All accessors return copies.
type Catalog struct {
	categories []Category
	byID       map[int]Dish
	bySlug     map[string]Dish
}

// New builds a catalog from categories. Dish ids and slugs must be unique
// across the whole catalog and prices must not be negative.
func New(categories ...Category) (*Catalog, error) {
	c := &Catalog{
		byID:   make(map[int]Dish),
		bySlug: make(map[string]Dish),
	}
	for _, cat := range categories {
		copied := Category{Slug: cat.Slug, Name: cat.Name, Dishes: make([]Dish, 0, len(cat.Dishes))}
		for _, d := range cat.Dishes {
			if _, dup := c.byID[d.ID]; dup {
				return nil, fmt.Errorf("duplicate dish id %d", d.ID)
			}
			if _, dup := c.bySlug[d.Slug]; dup {
				return nil, fmt.Errorf("duplicate dish slug %q", d.Slug)
			}
			if d.Price.IsNegative() {
				return nil, fmt.Errorf("dish %d has negative price %s", d.ID, d.Price)
			}
			d = d.Clone()
			c.byID[d.ID] = d
			c.bySlug[d.Slug] = d
			copied.Dishes = append(copied.Dishes, d)
		}
		c.categories = append(c.categories, copied)
	}
	return c, nil
}

// Categories returns every category in declaration order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, 0, len(c.categories))
	for _, cat := range c.categories {
		dishes := make([]Dish, 0, len(cat.Dishes))
		for _, d := range cat.Dishes {
			dishes = append(dishes, d.Clone())
		}
		out = append(out, Category{Slug: cat.Slug, Name: cat.Name, Dishes: dishes})
	}
	return out
}

// Dish looks a dish up by id.
func (c *Catalog) Dish(id int) (Dish, error) {
	d, ok := c.byID[id]
	if !ok {
		return Dish{}, ErrNotFound
	}
	return d.Clone(), nil
}

// BySlug looks a dish up by its URL slug.
func (c *Catalog) BySlug(slug string) (Dish, error) {
	d, ok := c.bySlug[slug]
	if !ok {
		return Dish{}, ErrNotFound
	}
	return d.Clone(), nil
}
