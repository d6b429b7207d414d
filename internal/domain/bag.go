package domain

import (
	"encoding/json"
	"fmt"
)

// Bag is the session-scoped shopping bag, keyed by product id. The stored
// JSON shape matches the session format: a plain product maps to a bare
// quantity, a sized product maps to {"items_by_size": {size: quantity}}.
type Bag map[string]BagEntry

// BagEntry is a tagged union: either a plain quantity or a per-size
// quantity map. BySize == nil means plain.
type BagEntry struct {
	Quantity int
	BySize   map[string]int
}

func (e BagEntry) IsSized() bool {
	return e.BySize != nil
}

func (e BagEntry) MarshalJSON() ([]byte, error) {
	if e.BySize != nil {
		return json.Marshal(map[string]map[string]int{"items_by_size": e.BySize})
	}
	return json.Marshal(e.Quantity)
}

// UnmarshalJSON decodes both stored shapes. A plain entry that holds
// anything other than a non-negative integer decodes to quantity zero
// rather than failing, so a malformed session never breaks reads.
func (e *BagEntry) UnmarshalJSON(data []byte) error {
	var sized struct {
		BySize map[string]int `json:"items_by_size"`
	}
	if err := json.Unmarshal(data, &sized); err == nil && sized.BySize != nil {
		e.BySize = sized.BySize
		e.Quantity = 0
		return nil
	}

	var qty int
	if err := json.Unmarshal(data, &qty); err != nil || qty < 0 {
		e.Quantity = 0
		e.BySize = nil
		return nil
	}
	e.Quantity = qty
	e.BySize = nil
	return nil
}

// Add merges qty into the bag for the given product. Sized adds accumulate
// per size, plain adds accumulate on the scalar quantity.
func (b Bag) Add(productID, size string, qty int) {
	if size != "" {
		entry, ok := b[productID]
		if !ok || entry.BySize == nil {
			entry = BagEntry{BySize: map[string]int{}}
		}
		entry.BySize[size] += qty
		b[productID] = entry
		return
	}

	entry := b[productID]
	entry.Quantity += qty
	entry.BySize = nil
	b[productID] = entry
}

// SetQuantity sets the quantity for a product (or one of its sizes).
// Setting zero removes the line; an entry whose last size is removed is
// dropped entirely so no empty size maps persist.
func (b Bag) SetQuantity(productID, size string, qty int) {
	if size != "" {
		entry, ok := b[productID]
		if !ok || entry.BySize == nil {
			return
		}
		if qty > 0 {
			entry.BySize[size] = qty
			b[productID] = entry
			return
		}
		delete(entry.BySize, size)
		if len(entry.BySize) == 0 {
			delete(b, productID)
			return
		}
		b[productID] = entry
		return
	}

	if qty > 0 {
		b[productID] = BagEntry{Quantity: qty}
		return
	}
	delete(b, productID)
}

// Remove drops a product line (one size of it, or the whole entry).
func (b Bag) Remove(productID, size string) {
	b.SetQuantity(productID, size, 0)
}

func (b Bag) IsEmpty() bool {
	return len(b) == 0
}

// Snapshot serializes the bag for embedding into payment-intent metadata.
// The snapshot, not the live bag, is what order materialization reads.
func (b Bag) Snapshot() (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("marshal bag snapshot: %w", err)
	}
	return string(data), nil
}

// ParseSnapshot decodes a snapshot produced by Snapshot.
func ParseSnapshot(snapshot string) (Bag, error) {
	var b Bag
	if err := json.Unmarshal([]byte(snapshot), &b); err != nil {
		return nil, fmt.Errorf("unmarshal bag snapshot: %w", err)
	}
	return b, nil
}
