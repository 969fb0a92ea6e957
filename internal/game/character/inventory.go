package character

import (
	"errors"
	"fmt"
	"sort"
)

// Item kinds recorded on inventory stacks.
const (
	KindMaterial   = "材料"
	KindEquipment  = "装备"
	KindConsumable = "丹药"
)

// ErrInsufficientItems is returned when removing more of an item than is held.
var ErrInsufficientItems = errors.New("insufficient items")

// ItemStack is a quantity of one named item.
type ItemStack struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Kind        string `json:"kind,omitempty"`
	Description string `json:"description,omitempty"`
}

// Inventory is the character's storage bag (储物袋), keyed by item name.
// The zero value is an empty, usable inventory.
type Inventory struct {
	Items map[string]*ItemStack `json:"items"`
}

// Add places quantity units of name into the inventory, merging with an
// existing stack. kind is recorded only when a new stack is created.
//
// Precondition: name is non-empty; quantity > 0.
// Postcondition: Count(name) grows by quantity on success; unchanged on error.
func (inv *Inventory) Add(name string, quantity int, kind string) error {
	if name == "" {
		return fmt.Errorf("inventory: item name must not be empty")
	}
	if quantity <= 0 {
		return fmt.Errorf("inventory: quantity must be > 0, got %d", quantity)
	}
	if inv.Items == nil {
		inv.Items = make(map[string]*ItemStack)
	}
	if s, ok := inv.Items[name]; ok {
		s.Quantity += quantity
		return nil
	}
	inv.Items[name] = &ItemStack{Name: name, Quantity: quantity, Kind: kind}
	return nil
}

// Remove takes quantity units of name out of the inventory. It is atomic:
// when fewer than quantity are held nothing is removed.
//
// Postcondition: Stacks that reach zero are deleted.
func (inv *Inventory) Remove(name string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("inventory: quantity must be > 0, got %d", quantity)
	}
	have := inv.Count(name)
	if have < quantity {
		return fmt.Errorf("removing %d of %q (have %d): %w", quantity, name, have, ErrInsufficientItems)
	}
	s := inv.Items[name]
	s.Quantity -= quantity
	if s.Quantity == 0 {
		delete(inv.Items, name)
	}
	return nil
}

// Count returns how many units of name are held.
func (inv *Inventory) Count(name string) int {
	if s, ok := inv.Items[name]; ok {
		return s.Quantity
	}
	return 0
}

// Has reports whether at least quantity units of name are held.
func (inv *Inventory) Has(name string, quantity int) bool {
	return inv.Count(name) >= quantity
}

// Stacks returns every stack sorted by item name.
func (inv *Inventory) Stacks() []ItemStack {
	out := make([]ItemStack, 0, len(inv.Items))
	for _, s := range inv.Items {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
