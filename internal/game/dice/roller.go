package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide the three draws the game needs:
// a probability check, an integer range, and a uniform float range.
// Every draw is logged at debug level with its label and outcome.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Chance draws once and reports whether the draw is strictly below rate.
// A draw exactly equal to rate is a failure.
//
// Postcondition: rate <= 0 always fails; rate > 1 always succeeds.
func (r *Roller) Chance(label string, rate float64) bool {
	draw := r.src.Float64()
	ok := draw < rate
	r.logger.Debug("chance roll",
		zap.String("label", label),
		zap.Float64("draw", draw),
		zap.Float64("rate", rate),
		zap.Bool("success", ok),
	)
	return ok
}

// Between returns a uniform integer in [lo, hi]. When hi <= lo it returns lo
// without drawing.
func (r *Roller) Between(label string, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	v := lo + r.src.Intn(hi-lo+1)
	r.logger.Debug("range roll",
		zap.String("label", label),
		zap.Int("min", lo),
		zap.Int("max", hi),
		zap.Int("value", v),
	)
	return v
}

// Uniform returns a float in [lo, hi).
func (r *Roller) Uniform(label string, lo, hi float64) float64 {
	v := lo + (hi-lo)*r.src.Float64()
	r.logger.Debug("uniform roll",
		zap.String("label", label),
		zap.Float64("min", lo),
		zap.Float64("max", hi),
		zap.Float64("value", v),
	)
	return v
}
