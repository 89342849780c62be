package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const snapshotVersion = 1

// snapshot is the persisted layout. The totals are written for readers of
// the raw record but are never read back.
type snapshot struct {
	Items      []Item           `json:"items"`
	TotalPrice *decimal.Decimal `json:"totalPrice,omitempty"`
	TotalItems *int             `json:"totalItems,omitempty"`
	Version    int              `json:"version"`

	// Browser-era records wrapped the cart in {"state": {...}, "version": 0}.
	State *snapshot `json:"state,omitempty"`
}

// Encode serialises s for storage.
func Encode(s State) ([]byte, error) {
	items := s.Items
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(snapshot{
		Items:      items,
		TotalPrice: &s.TotalPrice,
		TotalItems: &s.TotalItems,
		Version:    snapshotVersion,
	})
}

// Decode parses a stored snapshot and returns the state with totals
// recomputed from its items. Stored totals are ignored. Snapshots that
// break the cart invariants (duplicate ids, quantity outside
// 1..MaxQuantity, negative price)
// are rejected with ErrCorruptSnapshot.
func Decode(data []byte) (State, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if snap.Items == nil && snap.State != nil {
		snap = *snap.State
	}

	seen := make(map[int]struct{}, len(snap.Items))
	for _, it := range snap.Items {
		if _, dup := seen[it.ID]; dup {
			return State{}, fmt.Errorf("%w: duplicate item id %d", ErrCorruptSnapshot, it.ID)
		}
		seen[it.ID] = struct{}{}
		if it.Quantity < 1 || it.Quantity > MaxQuantity {
			return State{}, fmt.Errorf("%w: item %d has quantity %d", ErrCorruptSnapshot, it.ID, it.Quantity)
		}
		if it.Price.IsNegative() {
			return State{}, fmt.Errorf("%w: item %d has negative price", ErrCorruptSnapshot, it.ID)
		}
	}
	return withItems(snap.Items), nil
}
