package character

import (
	"errors"
	"fmt"
)

// Slot identifies an equipment slot.
type Slot string

const (
	// SlotWeapon holds a weapon (武器).
	SlotWeapon Slot = "武器"
	// SlotArmor holds body armor (防具).
	SlotArmor Slot = "防具"
	// SlotAccessory holds a ring, pendant, or belt (饰品).
	SlotAccessory Slot = "饰品"
	// SlotTreasure holds a magic treasure (法宝).
	SlotTreasure Slot = "法宝"
)

// Slots returns every equipment slot in display order.
func Slots() []Slot {
	return []Slot{SlotWeapon, SlotArmor, SlotAccessory, SlotTreasure}
}

// Valid reports whether s is one of the known slots.
func (s Slot) Valid() bool {
	switch s {
	case SlotWeapon, SlotArmor, SlotAccessory, SlotTreasure:
		return true
	}
	return false
}

// ErrUnknownSlot is returned when an equipment operation names an unknown slot.
var ErrUnknownSlot = errors.New("unknown equipment slot")

// ErrSlotEmpty is returned when unequipping a slot that holds nothing.
var ErrSlotEmpty = errors.New("equipment slot is empty")

// Bonus is the stat contribution of one piece of equipment. A nil field
// means the item grants no bonus of that kind.
type Bonus struct {
	Attack        *int     `json:"attack,omitempty"`
	Defense       *int     `json:"defense,omitempty"`
	HP            *int     `json:"hp,omitempty"`
	Qi            *int     `json:"qi,omitempty"`
	CritRate      *float64 `json:"crit_rate,omitempty"`
	CritDamage    *float64 `json:"crit_damage,omitempty"`
	SpecialEffect *string  `json:"special_effect,omitempty"`
}

// Equipment is a wearable item.
type Equipment struct {
	Name        string `json:"name"`
	Slot        Slot   `json:"slot"`
	Grade       string `json:"grade,omitempty"`
	Rank        int    `json:"rank,omitempty"`
	Description string `json:"description,omitempty"`
	Bonus       Bonus  `json:"bonus"`
}

// Equip places eq in its slot and returns whatever the slot held before.
//
// Precondition: eq must be non-nil.
// Postcondition: c.Equipment[eq.Slot] == eq on success.
func (c *Character) Equip(eq *Equipment) (*Equipment, error) {
	if !eq.Slot.Valid() {
		return nil, fmt.Errorf("equipping %q: %w: %q", eq.Name, ErrUnknownSlot, eq.Slot)
	}
	if c.Equipment == nil {
		c.Equipment = make(map[Slot]*Equipment)
	}
	old := c.Equipment[eq.Slot]
	c.Equipment[eq.Slot] = eq
	return old, nil
}

// Unequip empties slot and moves the item into the inventory.
//
// Postcondition: On success c.Equipment[slot] is nil and the inventory holds
// one more of the item.
func (c *Character) Unequip(slot Slot) (*Equipment, error) {
	if !slot.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	eq := c.Equipment[slot]
	if eq == nil {
		return nil, fmt.Errorf("unequipping %s: %w", slot, ErrSlotEmpty)
	}
	if err := c.Inventory.Add(eq.Name, 1, KindEquipment); err != nil {
		return nil, fmt.Errorf("unequipping %s: %w", slot, err)
	}
	c.Equipment[slot] = nil
	return eq, nil
}
