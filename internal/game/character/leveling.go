package character

import "fmt"

// Per-level stat growth applied by LevelUp.
const (
	levelMaxHPGain   = 10
	levelMaxQiGain   = 5
	levelAttackGain  = 2
	levelDefenseGain = 1
)

// ExpToNextLevel returns the experience needed to advance from level.
//
// Precondition: level >= 1.
func ExpToNextLevel(level int) int {
	return 100 * level
}

// LevelUp spends accumulated experience on as many levels as it covers and
// returns one message per level gained.
//
// Postcondition: c.Exp < ExpToNextLevel(c.Level); returns nil when no level was gained.
func LevelUp(c *Character) []string {
	var msgs []string
	for c.Exp >= ExpToNextLevel(c.Level) {
		c.Exp -= ExpToNextLevel(c.Level)
		c.Level++
		c.Stats.MaxHP += levelMaxHPGain
		c.Stats.MaxQi += levelMaxQiGain
		c.Stats.Attack += levelAttackGain
		c.Stats.Defense += levelDefenseGain
		msgs = append(msgs, fmt.Sprintf("修为精进！等级提升至%d", c.Level))
	}
	return msgs
}

// LevelerFunc adapts a function to the leveling collaborator used by combat.
type LevelerFunc func(c *Character) []string

// LevelUp calls f(c).
func (f LevelerFunc) LevelUp(c *Character) []string { return f(c) }

// DefaultLeveler levels characters with LevelUp.
var DefaultLeveler = LevelerFunc(LevelUp)
