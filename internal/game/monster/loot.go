package monster

import "github.com/cory-johannsen/cultivation/internal/game/content"

// rollLoot samples each entry independently: a successful chance draw yields
// a uniform quantity within the entry's bounds.
//
// Precondition: every entry has passed Validate.
// Postcondition: Each returned Drop has Quantity within its entry's bounds.
func (g *Generator) rollLoot(entries []content.LootEntry) []Drop {
	var drops []Drop
	for _, e := range entries {
		if !g.roller.Chance("loot:"+e.Item, e.Chance) {
			continue
		}
		lo, hi := e.Bounds()
		drops = append(drops, Drop{
			Item:     e.Item,
			Quantity: g.roller.Between("loot_qty:"+e.Item, lo, hi),
		})
	}
	return drops
}
