package character

// Profile is a character's effective combat profile: base stats plus every
// equipped bonus. It is a value computed on demand and never cached.
type Profile struct {
	HP         int
	MaxHP      int
	Qi         int
	MaxQi      int
	Attack     int
	Defense    int
	Speed      int
	Luck       int
	CritRate   float64
	CritDamage float64
}

// Aggregate combines base stats with the bonuses of every equipped item.
// Empty slots and absent bonus fields contribute nothing.
//
// Postcondition: Neither base nor equipped is modified.
func Aggregate(base Stats, equipped map[Slot]*Equipment) Profile {
	p := Profile{
		HP:         base.HP,
		MaxHP:      base.MaxHP,
		Qi:         base.Qi,
		MaxQi:      base.MaxQi,
		Attack:     base.Attack,
		Defense:    base.Defense,
		Speed:      base.Speed,
		Luck:       base.Luck,
		CritRate:   base.CritRate,
		CritDamage: base.CritDamage,
	}
	for _, eq := range equipped {
		if eq == nil {
			continue
		}
		b := eq.Bonus
		p.Attack += intOrZero(b.Attack)
		p.Defense += intOrZero(b.Defense)
		p.MaxHP += intOrZero(b.HP)
		p.MaxQi += intOrZero(b.Qi)
		p.CritRate += floatOrZero(b.CritRate)
		p.CritDamage += floatOrZero(b.CritDamage)
	}
	return p
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
