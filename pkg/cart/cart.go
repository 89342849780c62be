// Package cart implements the shopping cart: a line-item list with derived
// totals, pure state transitions over it, and a Store that serialises
// mutations and persists every new state through a Storage backend.
package cart

import (
	"slices"

	"github.com/shopspring/decimal"

	"sufikitchen/pkg/catalog"
)

// MaxQuantity is the largest quantity a single line can hold. Larger
// requests are clamped to it.
const MaxQuantity = 999

// Item is a dish snapshot plus the quantity ordered. Quantity is always
// between 1 and MaxQuantity.
type Item struct {
	catalog.Dish
	Quantity int `json:"quantity"`
}

// Subtotal is price × quantity for the line.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// State is the cart contents. TotalPrice and TotalItems are derived from
// Items and are only ever assigned by Recompute.
type State struct {
	Items      []Item          `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	TotalItems int             `json:"totalItems"`
}

// Empty returns a cart with no items and zero totals.
func Empty() State {
	return State{Items: []Item{}, TotalPrice: decimal.Zero}
}

// Recompute folds items into their totals.
func Recompute(items []Item) (totalPrice decimal.Decimal, totalItems int) {
	totalPrice = decimal.Zero
	for _, it := range items {
		totalPrice = totalPrice.Add(it.Subtotal())
		totalItems += it.Quantity
	}
	return totalPrice, totalItems
}

func withItems(items []Item) State {
	if items == nil {
		items = []Item{}
	}
	price, count := Recompute(items)
	return State{Items: items, TotalPrice: price, TotalItems: count}
}

// Clone returns a copy of s whose item slice can be modified freely.
func (s State) Clone() State {
	items := make([]Item, len(s.Items))
	for i, it := range s.Items {
		it.Dish = it.Dish.Clone()
		items[i] = it
	}
	s.Items = items
	return s
}

// Find returns the line for id, if present.
func (s State) Find(id int) (Item, bool) {
	i := s.index(id)
	if i < 0 {
		return Item{}, false
	}
	return s.Items[i], true
}

func (s State) index(id int) int {
	return slices.IndexFunc(s.Items, func(it Item) bool { return it.ID == id })
}

// Add puts one unit of d in the cart. An existing line for d.ID has its
// quantity increased, up to MaxQuantity; otherwise a new line is appended
// with a copy of d.
func Add(s State, d catalog.Dish) State {
	if existing, ok := s.Find(d.ID); ok {
		return SetQuantity(s, d.ID, existing.Quantity+1)
	}
	items := append(slices.Clone(s.Items), Item{Dish: d.Clone(), Quantity: 1})
	return withItems(items)
}

// Remove drops the line for id. Absent ids leave the items unchanged.
func Remove(s State, id int) State {
	items := slices.DeleteFunc(slices.Clone(s.Items), func(it Item) bool { return it.ID == id })
	return withItems(items)
}

// SetQuantity sets the quantity of the line for id. A quantity of zero or
// less removes the line and one above MaxQuantity is clamped. Absent ids
// leave the items unchanged.
func SetQuantity(s State, id, quantity int) State {
	if quantity <= 0 {
		return Remove(s, id)
	}
	quantity = min(quantity, MaxQuantity)
	items := slices.Clone(s.Items)
	if i := s.index(id); i >= 0 {
		items[i].Quantity = quantity
	}
	return withItems(items)
}

// Deduct takes ordered quantities off the matching lines and drops lines
// that reach zero. Lines and units not in ordered are kept.
func Deduct(s State, ordered []Item) State {
	taken := make(map[int]int, len(ordered))
	for _, it := range ordered {
		taken[it.ID] += it.Quantity
	}
	items := make([]Item, 0, len(s.Items))
	for _, it := range s.Items {
		it.Quantity -= taken[it.ID]
		if it.Quantity > 0 {
			items = append(items, it)
		}
	}
	return withItems(items)
}

// Clear empties the cart.
func Clear(State) State {
	return withItems(nil)
}
