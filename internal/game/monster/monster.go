// Package monster instantiates opponents from content templates.
package monster

// Drop is one resolved loot line: an item and how many of it.
type Drop struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

// Monster is a concrete opponent generated for a single encounter. It is
// never persisted; combat keeps only a snapshot of its stats.
type Monster struct {
	// ID is the template ID the monster was generated from.
	ID          string
	Name        string
	Description string
	Level       int
	HP          int
	MaxHP       int
	Attack      int
	Defense     int
	// ExpReward and SpiritStonesReward are granted when the monster dies.
	ExpReward          int
	SpiritStonesReward int
	// Drops is the loot resolved at generation time.
	Drops []Drop
}

// IsDead reports whether the monster has zero or fewer hit points.
func (m *Monster) IsDead() bool {
	return m.HP <= 0
}

// HealthDescription returns a visible health state for status output.
//
// Postcondition: Returns a non-empty string.
func HealthDescription(hp, maxHP int) string {
	if hp <= 0 {
		return "已死亡"
	}
	if maxHP <= 0 {
		return "毫发无伤"
	}
	pct := float64(hp) / float64(maxHP)
	switch {
	case pct >= 1.0:
		return "毫发无伤"
	case pct >= 0.85:
		return "略有擦伤"
	case pct >= 0.60:
		return "轻伤"
	case pct >= 0.40:
		return "伤势不轻"
	case pct >= 0.20:
		return "重伤"
	default:
		return "奄奄一息"
	}
}

// HealthDescription returns the monster's visible health state.
func (m *Monster) HealthDescription() string {
	return HealthDescription(m.HP, m.MaxHP)
}
