// Package content holds the static game catalogs (monster templates, tag
// effects, breakthrough requirements, spirit roots) and the versioned
// registry that owns them at runtime.
package content

import (
	"fmt"
)

// LootEntry is a single line of a loot table.
type LootEntry struct {
	Item   string  `yaml:"item"`
	Chance float64 `yaml:"chance"`
	// Quantity is [min] for a fixed amount or [min, max] for a range.
	// Empty means exactly one.
	Quantity []int `yaml:"quantity,omitempty"`
}

// Bounds returns the inclusive quantity range of the entry.
//
// Postcondition: lo <= hi when the entry has passed Validate.
func (e LootEntry) Bounds() (lo, hi int) {
	switch len(e.Quantity) {
	case 0:
		return 1, 1
	case 1:
		return e.Quantity[0], e.Quantity[0]
	default:
		return e.Quantity[0], e.Quantity[1]
	}
}

// Validate checks that the entry can be sampled.
//
// Postcondition: Returns nil iff Item is non-empty, Chance is in [0, 1],
// Quantity has at most two elements, and 1 <= min <= max.
func (e LootEntry) Validate() error {
	if e.Item == "" {
		return fmt.Errorf("loot entry: item must not be empty")
	}
	if e.Chance < 0 || e.Chance > 1 {
		return fmt.Errorf("loot entry %q: chance must be in [0, 1], got %f", e.Item, e.Chance)
	}
	if len(e.Quantity) > 2 {
		return fmt.Errorf("loot entry %q: quantity must have one or two elements, got %d", e.Item, len(e.Quantity))
	}
	lo, hi := e.Bounds()
	if lo < 1 {
		return fmt.Errorf("loot entry %q: quantity min must be >= 1, got %d", e.Item, lo)
	}
	if lo > hi {
		return fmt.Errorf("loot entry %q: quantity min (%d) must be <= max (%d)", e.Item, lo, hi)
	}
	return nil
}

// RewardOverrides replaces a template's default exp and spirit-stone rewards.
// A nil field keeps the default level-scaled formula.
type RewardOverrides struct {
	Exp          *Reward `yaml:"exp,omitempty"`
	SpiritStones *Reward `yaml:"spirit_stones,omitempty"`
}

// MonsterTemplate is the static definition a monster is generated from.
type MonsterTemplate struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Level is the fixed monster level; nil means the monster scales to the
	// level of the character that meets it.
	Level   *int             `yaml:"level,omitempty"`
	Loot    []LootEntry      `yaml:"loot,omitempty"`
	Tags    []string         `yaml:"tags,omitempty"`
	Rewards *RewardOverrides `yaml:"rewards,omitempty"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Level (when set)
// is >= 1, and every loot entry and reward override is valid.
func (t *MonsterTemplate) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("monster template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("monster template %q: name must not be empty", t.ID)
	}
	if t.Level != nil && *t.Level < 1 {
		return fmt.Errorf("monster template %q: level must be >= 1", t.ID)
	}
	for i, e := range t.Loot {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("monster template %q: loot[%d]: %w", t.ID, i, err)
		}
	}
	if t.Rewards != nil {
		if t.Rewards.Exp != nil {
			if err := t.Rewards.Exp.Validate(); err != nil {
				return fmt.Errorf("monster template %q: exp reward: %w", t.ID, err)
			}
		}
		if t.Rewards.SpiritStones != nil {
			if err := t.Rewards.SpiritStones.Validate(); err != nil {
				return fmt.Errorf("monster template %q: spirit_stones reward: %w", t.ID, err)
			}
		}
	}
	return nil
}

// TagEffect is a named modifier a template may list. Nil fields leave the
// corresponding stat or name untouched.
type TagEffect struct {
	Name                   string      `yaml:"name"`
	NamePrefix             *string     `yaml:"name_prefix,omitempty"`
	NameSuffix             *string     `yaml:"name_suffix,omitempty"`
	HPMultiplier           *float64    `yaml:"hp_multiplier,omitempty"`
	AttackMultiplier       *float64    `yaml:"attack_multiplier,omitempty"`
	DefenseMultiplier      *float64    `yaml:"defense_multiplier,omitempty"`
	SpiritStonesMultiplier *float64    `yaml:"spirit_stones_multiplier,omitempty"`
	ExpMultiplier          *float64    `yaml:"exp_multiplier,omitempty"`
	AddToLoot              []LootEntry `yaml:"add_to_loot,omitempty"`
}

// Factor returns *m, or 1.0 when the multiplier is absent.
func Factor(m *float64) float64 {
	if m == nil {
		return 1.0
	}
	return *m
}

// Validate checks that the tag has a name, non-negative multipliers, and
// valid extra loot.
func (t *TagEffect) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("tag: name must not be empty")
	}
	for field, m := range map[string]*float64{
		"hp_multiplier":            t.HPMultiplier,
		"attack_multiplier":        t.AttackMultiplier,
		"defense_multiplier":       t.DefenseMultiplier,
		"spirit_stones_multiplier": t.SpiritStonesMultiplier,
		"exp_multiplier":           t.ExpMultiplier,
	} {
		if m != nil && *m < 0 {
			return fmt.Errorf("tag %q: %s must be >= 0, got %f", t.Name, field, *m)
		}
	}
	for i, e := range t.AddToLoot {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("tag %q: add_to_loot[%d]: %w", t.Name, i, err)
		}
	}
	return nil
}

// DefaultTribulationName is used when a requirement demands a tribulation
// but does not name it.
const DefaultTribulationName = "未知天劫"

// Requirement gates the breakthrough from one realm to the next.
type Requirement struct {
	// Level is the minimum character level at which the breakthrough may be attempted.
	Level               int      `yaml:"level"`
	FromRealm           string   `yaml:"from_realm"`
	ToRealm             string   `yaml:"to_realm"`
	RequiresTribulation bool     `yaml:"requires_tribulation"`
	TribulationName     string   `yaml:"tribulation_name,omitempty"`
	SpiritStonesCost    int      `yaml:"spirit_stones_cost"`
	RequiredItems       []string `yaml:"required_items,omitempty"`
	BaseSuccessRate     float64  `yaml:"base_success_rate"`
}

// Tribulation returns the display name of the requirement's tribulation.
func (r Requirement) Tribulation() string {
	if r.TribulationName == "" {
		return DefaultTribulationName
	}
	return r.TribulationName
}

// Validate checks the requirement's invariants.
func (r *Requirement) Validate() error {
	if r.Level < 1 {
		return fmt.Errorf("breakthrough requirement: level must be >= 1, got %d", r.Level)
	}
	if r.FromRealm == "" || r.ToRealm == "" {
		return fmt.Errorf("breakthrough requirement at level %d: from_realm and to_realm must not be empty", r.Level)
	}
	if r.SpiritStonesCost < 0 {
		return fmt.Errorf("breakthrough requirement at level %d: spirit_stones_cost must be >= 0", r.Level)
	}
	if r.BaseSuccessRate <= 0 || r.BaseSuccessRate > 1 {
		return fmt.Errorf("breakthrough requirement at level %d: base_success_rate must be in (0, 1], got %f", r.Level, r.BaseSuccessRate)
	}
	for i, item := range r.RequiredItems {
		if item == "" {
			return fmt.Errorf("breakthrough requirement at level %d: required_items[%d] must not be empty", r.Level, i)
		}
	}
	return nil
}

// SpiritRoot is a cultivation aptitude; Efficiency 1.0 is baseline.
type SpiritRoot struct {
	Name       string  `yaml:"name"`
	Efficiency float64 `yaml:"efficiency"`
}

// Validate checks that the spirit root is named and has a positive efficiency.
func (s *SpiritRoot) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("spirit root: name must not be empty")
	}
	if s.Efficiency <= 0 {
		return fmt.Errorf("spirit root %q: efficiency must be > 0", s.Name)
	}
	return nil
}
