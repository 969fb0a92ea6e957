package monster

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/cultivation/internal/game/content"
)

// ErrTemplateNotFound is returned when no template has the requested ID.
var ErrTemplateNotFound = errors.New("monster template not found")

// Catalog is the read-only content a Generator draws from.
// *content.Registry satisfies it.
type Catalog interface {
	Monster(id string) (content.MonsterTemplate, bool)
	Tag(name string) (content.TagEffect, bool)
}

// Roller supplies the random draws used for loot and reward ranges.
// *dice.Roller satisfies it.
type Roller interface {
	Chance(label string, rate float64) bool
	Between(label string, lo, hi int) int
}

// Generator builds Monsters from templates and tag effects.
type Generator struct {
	catalog Catalog
	roller  Roller
	logger  *zap.Logger
}

// NewGenerator creates a Generator.
//
// Precondition: catalog, roller, and logger must be non-nil.
func NewGenerator(catalog Catalog, roller Roller, logger *zap.Logger) *Generator {
	return &Generator{catalog: catalog, roller: roller, logger: logger}
}

// record is the working stat set that tag transforms fold over. Numbers stay
// fractional until every tag has been applied.
type record struct {
	name         string
	hp           float64
	attack       float64
	defense      float64
	spiritStones float64
	exp          float64
	loot         []content.LootEntry
}

// transform is one pure step applied to a record.
type transform func(record) record

// tagTransform returns the transform described by t.
func tagTransform(t content.TagEffect) transform {
	return func(r record) record {
		if t.NamePrefix != nil {
			r.name = "【" + *t.NamePrefix + "】" + r.name
		}
		if t.NameSuffix != nil {
			r.name += *t.NameSuffix
		}
		r.hp *= content.Factor(t.HPMultiplier)
		r.attack *= content.Factor(t.AttackMultiplier)
		r.defense *= content.Factor(t.DefenseMultiplier)
		r.spiritStones *= content.Factor(t.SpiritStonesMultiplier)
		r.exp *= content.Factor(t.ExpMultiplier)
		if len(t.AddToLoot) > 0 {
			loot := make([]content.LootEntry, 0, len(r.loot)+len(t.AddToLoot))
			loot = append(loot, r.loot...)
			r.loot = append(loot, t.AddToLoot...)
		}
		return r
	}
}

// baseRecord computes the untagged stats of a monster at level.
func (g *Generator) baseRecord(tmpl content.MonsterTemplate, level int) record {
	exp := content.LevelScaled(10, 5)
	stones := content.LevelScaled(5, 3)
	if tmpl.Rewards != nil {
		if tmpl.Rewards.Exp != nil {
			exp = *tmpl.Rewards.Exp
		}
		if tmpl.Rewards.SpiritStones != nil {
			stones = *tmpl.Rewards.SpiritStones
		}
	}
	return record{
		name:         tmpl.Name,
		hp:           float64(20*level + 40),
		attack:       float64(4*level + 10),
		defense:      float64(2*level + 5),
		spiritStones: float64(stones.Evaluate(level, g.roller)),
		exp:          float64(exp.Evaluate(level, g.roller)),
		loot:         append([]content.LootEntry(nil), tmpl.Loot...),
	}
}

// Create generates a monster from the template with templateID. A template
// without a fixed level is generated at characterLevel.
//
// Precondition: characterLevel >= 1.
// Postcondition: Returns a Monster with HP == MaxHP and loot already sampled,
// or an error wrapping ErrTemplateNotFound.
func (g *Generator) Create(templateID string, characterLevel int) (*Monster, error) {
	tmpl, ok := g.catalog.Monster(templateID)
	if !ok {
		return nil, fmt.Errorf("creating monster %q: %w", templateID, ErrTemplateNotFound)
	}
	level := characterLevel
	if tmpl.Level != nil {
		level = *tmpl.Level
	}

	r := g.baseRecord(tmpl, level)
	for _, step := range g.transforms(tmpl) {
		r = step(r)
	}

	hp := int(r.hp)
	m := &Monster{
		ID:                 tmpl.ID,
		Name:               r.name,
		Description:        tmpl.Description,
		Level:              level,
		HP:                 hp,
		MaxHP:              hp,
		Attack:             int(r.attack),
		Defense:            int(r.defense),
		ExpReward:          int(r.exp),
		SpiritStonesReward: int(r.spiritStones),
		Drops:              g.rollLoot(r.loot),
	}
	g.logger.Debug("monster generated",
		zap.String("template", tmpl.ID),
		zap.String("name", m.Name),
		zap.Int("level", m.Level),
		zap.Int("max_hp", m.MaxHP),
		zap.Int("drops", len(m.Drops)),
	)
	return m, nil
}

// transforms resolves the template's tags, in listed order, to transforms.
// Unknown tags are skipped.
func (g *Generator) transforms(tmpl content.MonsterTemplate) []transform {
	out := make([]transform, 0, len(tmpl.Tags))
	for _, name := range tmpl.Tags {
		t, ok := g.catalog.Tag(name)
		if !ok {
			g.logger.Warn("unknown monster tag",
				zap.String("template", tmpl.ID),
				zap.String("tag", name),
			)
			continue
		}
		out = append(out, tagTransform(t))
	}
	return out
}
