package character

import (
	"errors"

	"github.com/google/uuid"
)

// DefaultLocation is where new characters begin.
const DefaultLocation = "青云镇"

// startingStats returns the base attributes of a fresh level-1 character.
func startingStats() Stats {
	return Stats{
		HP: 100, MaxHP: 100,
		Qi: 50, MaxQi: 50,
		Attack: 10, Defense: 5,
		Speed: 10, Luck: 50,
		CritRate: 0.05, CritDamage: 1.5,
		CraftingLevel: 1,
	}
}

// New constructs a level-1 mortal with starting stats, an empty inventory,
// and every equipment slot empty.
//
// Precondition: name and spiritRoot must be non-empty.
// Postcondition: Returns a Character with a fresh UUID ready for persistence,
// or a non-nil error.
func New(name, spiritRoot string) (*Character, error) {
	if name == "" {
		return nil, errors.New("character name must not be empty")
	}
	if spiritRoot == "" {
		return nil, errors.New("spirit root must not be empty")
	}
	equipment := make(map[Slot]*Equipment, len(Slots()))
	for _, s := range Slots() {
		equipment[s] = nil
	}
	return &Character{
		ID:         uuid.New().String(),
		Name:       name,
		Level:      1,
		Realm:      InitialRealm,
		SpiritRoot: spiritRoot,
		Location:   DefaultLocation,
		Stats:      startingStats(),
		Equipment:  equipment,
	}, nil
}
