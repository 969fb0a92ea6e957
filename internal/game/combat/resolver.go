package combat

import (
	"fmt"

	"github.com/cory-johannsen/cultivation/internal/game/character"
)

// Flee rate bounds.
const (
	MinFleeRate = 0.1
	MaxFleeRate = 0.95
)

// Roller supplies the random draws used by combat. *dice.Roller satisfies it.
type Roller interface {
	Chance(label string, rate float64) bool
	Uniform(label string, lo, hi float64) float64
}

// halfFloor returns floor(n/2) for any sign of n.
func halfFloor(n int) int {
	if n < 0 {
		return -((-n + 1) / 2)
	}
	return n / 2
}

// BaseDamage is attack less half of defense, never below 1.
//
// Postcondition: Returns >= 1.
func BaseDamage(attack, defense int) int {
	return max(1, attack-halfFloor(defense))
}

// vary applies the ±20% swing and truncates. Results below 1 become 1.
func vary(r Roller, label string, dmg int) int {
	return max(1, int(float64(dmg)*r.Uniform(label, 0.8, 1.2)))
}

// playerStrike resolves the player's blow against a monster.
//
// Postcondition: dmg >= 1.
func playerStrike(r Roller, p character.Profile, monsterDefense int) (dmg int, crit bool) {
	dmg = vary(r, "player_damage", BaseDamage(p.Attack, monsterDefense))
	if r.Chance("critical", p.CritRate) {
		crit = true
		dmg = max(1, int(float64(dmg)*p.CritDamage))
	}
	return dmg, crit
}

// DodgeRate is the chance the character evades a monster's blow.
func DodgeRate(base float64, p character.Profile) float64 {
	return base + float64(p.Speed)*0.005
}

// FleeRate is the clamped chance of escaping a fight.
//
// Postcondition: Returns a value in [MinFleeRate, MaxFleeRate].
func FleeRate(base float64, characterLevel, monsterLevel int, p character.Profile) float64 {
	rate := base + float64(characterLevel-monsterLevel)*0.05 + float64(p.Speed)*0.01
	return min(MaxFleeRate, max(MinFleeRate, rate))
}

// counterAttack resolves one monster blow against ch. A dodge skips the
// damage roll entirely. The character's HP may go negative.
func (e *Engine) counterAttack(ch *character.Character, st State, res *Result) string {
	p := ch.Profile()
	dmg := BaseDamage(st.MonsterAttack, p.Defense)
	if e.roller.Chance("dodge", DodgeRate(e.settings.BaseDodgeRate, p)) {
		res.Dodged = true
		return fmt.Sprintf("%s敏捷地闪避了%s的攻击！", ch.Name, st.MonsterName)
	}
	dmg = vary(e.roller, "monster_damage", dmg)
	ch.Stats.HP -= dmg
	res.DamageTaken = dmg
	return fmt.Sprintf("【%s的反击】\n对%s造成%d点伤害\n%s生命：%d/%d",
		st.MonsterName, ch.Name, dmg, ch.Name, ch.Stats.HP, p.MaxHP)
}
