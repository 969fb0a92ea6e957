package combat

import "github.com/cory-johannsen/cultivation/internal/game/monster"

// Outcome is where a combat action left the fight.
type Outcome string

const (
	// OutcomeStarted means a new fight began.
	OutcomeStarted Outcome = "started"
	// OutcomeContinue means the fight goes on and it is the player's turn.
	OutcomeContinue Outcome = "continue"
	// OutcomeWon means the monster died.
	OutcomeWon Outcome = "won"
	// OutcomeLost means the character fell.
	OutcomeLost Outcome = "lost"
	// OutcomeFled means the character escaped.
	OutcomeFled Outcome = "fled"
)

// Ended reports whether the outcome finishes the fight.
func (o Outcome) Ended() bool {
	return o == OutcomeWon || o == OutcomeLost || o == OutcomeFled
}

// Result reports what one combat action did.
type Result struct {
	Outcome Outcome
	Message string
	// Round is the round the player acts in next, or the final round when the fight ended.
	Round int

	DamageDealt int
	DamageTaken int
	Critical    bool
	Dodged      bool
	// FleeRate is the clamped escape probability of a flee attempt.
	FleeRate float64

	ExpGained          int
	SpiritStonesGained int
	Items              []monster.Drop
	LevelUps           []string

	ExpLost          int
	SpiritStonesLost int
}
