package content

import "fmt"

// RewardKind enumerates the closed set of reward formulas.
type RewardKind string

const (
	// RewardFixed yields Amount regardless of level.
	RewardFixed RewardKind = "fixed"
	// RewardRange yields a uniform integer in [Min, Max].
	RewardRange RewardKind = "range"
	// RewardLevelScaled yields Base + PerLevel*level.
	RewardLevelScaled RewardKind = "level_scaled"
)

// Reward is a data-driven reward formula. Only the fields relevant to Kind are read.
type Reward struct {
	Kind     RewardKind `yaml:"kind"`
	Amount   int        `yaml:"amount,omitempty"`
	Min      int        `yaml:"min,omitempty"`
	Max      int        `yaml:"max,omitempty"`
	Base     int        `yaml:"base,omitempty"`
	PerLevel int        `yaml:"per_level,omitempty"`
}

// IntRoller draws an integer in [lo, hi]. *dice.Roller satisfies it.
type IntRoller interface {
	Between(label string, lo, hi int) int
}

// LevelScaled returns a level_scaled reward.
func LevelScaled(base, perLevel int) Reward {
	return Reward{Kind: RewardLevelScaled, Base: base, PerLevel: perLevel}
}

// Validate checks that Kind is known and its parameters are consistent.
func (r Reward) Validate() error {
	switch r.Kind {
	case RewardFixed:
		if r.Amount < 0 {
			return fmt.Errorf("fixed reward: amount must be >= 0, got %d", r.Amount)
		}
	case RewardRange:
		if r.Min < 0 || r.Min > r.Max {
			return fmt.Errorf("range reward: need 0 <= min <= max, got [%d, %d]", r.Min, r.Max)
		}
	case RewardLevelScaled:
		if r.Base < 0 || r.PerLevel < 0 {
			return fmt.Errorf("level_scaled reward: base and per_level must be >= 0")
		}
	default:
		return fmt.Errorf("unknown reward kind %q", r.Kind)
	}
	return nil
}

// Evaluate computes the reward for a monster of the given level.
//
// Precondition: r has passed Validate; roller is non-nil when Kind is range.
// Postcondition: Returns >= 0 for a valid reward and level >= 0.
func (r Reward) Evaluate(level int, roller IntRoller) int {
	switch r.Kind {
	case RewardFixed:
		return r.Amount
	case RewardRange:
		return roller.Between("reward", r.Min, r.Max)
	case RewardLevelScaled:
		return r.Base + r.PerLevel*level
	default:
		return 0
	}
}
