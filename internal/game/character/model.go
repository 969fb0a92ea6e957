// Package character defines the cultivator domain model, the stat
// aggregation that turns base stats plus equipment into a combat profile,
// and the pure creation and leveling rules.
package character

import "time"

// InitialRealm is the realm every new character starts in.
const InitialRealm = "凡人"

// Stats holds a character's base attributes. It is owned by the character
// and mutated only by systems operating on that character.
type Stats struct {
	HP            int       `json:"hp"`
	MaxHP         int       `json:"max_hp"`
	Qi            int       `json:"qi"`
	MaxQi         int       `json:"max_qi"`
	Attack        int       `json:"attack"`
	Defense       int       `json:"defense"`
	Speed         int       `json:"speed"`
	Luck          int       `json:"luck"`
	CritRate      float64   `json:"crit_rate"`
	CritDamage    float64   `json:"crit_damage"`
	CraftingLevel int       `json:"crafting_level"`
	CraftingExp   int       `json:"crafting_exp"`
	LastGathering time.Time `json:"last_gathering"`
}

// Character represents a cultivator's persistent state.
//
// ID is assigned at creation; CreatedAt and UpdatedAt are set by the
// persistence layer.
type Character struct {
	ID   string
	Name string

	Level        int
	Exp          int
	Realm        string
	SpiritRoot   string
	SpiritStones int
	Location     string

	Stats     Stats
	Inventory Inventory
	Equipment map[Slot]*Equipment

	// CombatState is the serialized combat snapshot; empty means not in combat.
	CombatState string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InCombat reports whether a combat snapshot is stored on the character.
func (c *Character) InCombat() bool {
	return c.CombatState != ""
}

// Profile returns the character's current effective combat profile.
//
// Postcondition: Equivalent to Aggregate(c.Stats, c.Equipment).
func (c *Character) Profile() Profile {
	return Aggregate(c.Stats, c.Equipment)
}
