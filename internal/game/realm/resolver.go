// Package realm resolves breakthrough attempts between cultivation realms.
package realm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/cultivation/internal/game/character"
	"github.com/cory-johannsen/cultivation/internal/game/content"
	"github.com/cory-johannsen/cultivation/internal/narrate"
)

var (
	// ErrNotEligible is returned when no breakthrough is available at the
	// character's level and realm.
	ErrNotEligible = errors.New("no breakthrough available at this level")
	// ErrInsufficientSpiritStones is returned when the character cannot pay the cost.
	ErrInsufficientSpiritStones = errors.New("insufficient spirit stones")
	// ErrMissingItem is returned when a required item is not in the inventory.
	ErrMissingItem = errors.New("missing required item")
)

// Rate bounds.
const (
	MinSuccessRate     = 0.1
	MaxSuccessRate     = 0.95
	MinTribulationRate = 0.2
	MaxTribulationRate = 0.9
)

// Flat stat gains on a successful breakthrough.
const (
	maxHPGain   = 100
	maxQiGain   = 50
	attackGain  = 20
	defenseGain = 15
)

// Failure reasons reported on an unsuccessful attempt.
const (
	ReasonTribulation = "渡劫失败"
	ReasonInsight     = "境界感悟不足"
)

// Catalog is the read-only content the resolver consults.
// *content.Registry satisfies it.
type Catalog interface {
	RequirementFor(level int, realm string) (content.Requirement, bool)
	SpiritRootEfficiency(name string) float64
}

// Roller supplies probability draws. *dice.Roller satisfies it.
type Roller interface {
	Chance(label string, rate float64) bool
}

// Result reports the outcome of one breakthrough attempt.
type Result struct {
	Success   bool
	FromRealm string
	ToRealm   string
	// Rate is the clamped primary success probability.
	Rate float64

	Tribulation       string
	TribulationFaced  bool
	TribulationPassed bool
	TribulationRate   float64
	TribulationDamage int

	SpiritStonesSpent int
	ItemsConsumed     []string
	// FailureReason is empty on success.
	FailureReason string
	Message       string
}

// Resolver decides breakthrough attempts.
type Resolver struct {
	catalog  Catalog
	roller   Roller
	narrator narrate.Narrator
	logger   *zap.Logger
}

// NewResolver creates a Resolver.
//
// Precondition: catalog, roller, and logger must be non-nil. A nil narrator
// yields canned text.
func NewResolver(catalog Catalog, roller Roller, narrator narrate.Narrator, logger *zap.Logger) *Resolver {
	return &Resolver{catalog: catalog, roller: roller, narrator: narrator, logger: logger}
}

// SuccessRate computes the clamped primary breakthrough probability.
//
// Postcondition: Returns a value in [MinSuccessRate, MaxSuccessRate].
func SuccessRate(req content.Requirement, efficiency float64, luck, level int) float64 {
	rate := req.BaseSuccessRate +
		min(0.3, (efficiency-1.0)*0.2) +
		float64(luck-50)*0.002 +
		float64(max(0, level-req.Level))*0.01
	return min(MaxSuccessRate, max(MinSuccessRate, rate))
}

// TribulationRate computes the clamped probability of surviving a tribulation.
// A pool with a non-positive maximum counts as empty.
//
// Postcondition: Returns a value in [MinTribulationRate, MaxTribulationRate].
func TribulationRate(s character.Stats, efficiency float64, luck int) float64 {
	condition := (ratio(s.HP, s.MaxHP)+ratio(s.Qi, s.MaxQi))/2 - 0.5
	rate := 0.7 + condition + (efficiency-1.0)*0.1 + float64(luck-50)*0.003
	return min(MaxTribulationRate, max(MinTribulationRate, rate))
}

func ratio(cur, maximum int) float64 {
	if maximum <= 0 {
		return 0
	}
	return float64(cur) / float64(maximum)
}

// Attempt tries to advance ch to the next realm. Once prerequisites are met
// the cost is paid whether or not the attempt succeeds.
//
// Postcondition: On error ch is unchanged. On a nil error the spirit-stone
// cost and one of each required item have been deducted exactly once.
func (r *Resolver) Attempt(ctx context.Context, ch *character.Character) (*Result, error) {
	req, ok := r.catalog.RequirementFor(ch.Level, ch.Realm)
	if !ok {
		return nil, fmt.Errorf("level %d %s: %w", ch.Level, ch.Realm, ErrNotEligible)
	}
	if err := checkPrerequisites(ch, req); err != nil {
		return nil, err
	}

	ch.SpiritStones -= req.SpiritStonesCost
	for _, item := range req.RequiredItems {
		if err := ch.Inventory.Remove(item, 1); err != nil {
			return nil, fmt.Errorf("consuming %q: %w", item, err)
		}
	}

	efficiency := r.catalog.SpiritRootEfficiency(ch.SpiritRoot)
	res := &Result{
		FromRealm:         req.FromRealm,
		ToRealm:           req.ToRealm,
		Rate:              SuccessRate(req, efficiency, ch.Stats.Luck, ch.Level),
		SpiritStonesSpent: req.SpiritStonesCost,
		ItemsConsumed:     append([]string(nil), req.RequiredItems...),
	}

	var b strings.Builder
	tribulationPassed := true
	if req.RequiresTribulation {
		tribulationPassed = r.tribulation(ctx, ch, req, efficiency, res, &b)
	}
	primary := r.roller.Chance("breakthrough", res.Rate)
	res.Success = primary && tribulationPassed

	if res.Success {
		ch.Realm = req.ToRealm
		ch.Stats.MaxHP += maxHPGain
		ch.Stats.MaxQi += maxQiGain
		ch.Stats.Attack += attackGain
		ch.Stats.Defense += defenseGain
		ch.Stats.HP = ch.Stats.MaxHP
		ch.Stats.Qi = ch.Stats.MaxQi
	} else if !tribulationPassed {
		res.FailureReason = ReasonTribulation
	} else {
		res.FailureReason = ReasonInsight
	}

	desc := narrate.Describe(ctx, r.narrator, r.logger, narrate.Event{
		Kind:      narrate.KindBreakthrough,
		Character: ch.Name,
		FromRealm: req.FromRealm,
		ToRealm:   req.ToRealm,
		Success:   res.Success,
	})
	if res.Success {
		b.WriteString("【境界突破成功】\n\n")
		fmt.Fprintf(&b, "境界提升：%s → %s\n", req.FromRealm, req.ToRealm)
		fmt.Fprintf(&b, "属性提升：\n  生命值上限 +%d\n  真元上限 +%d\n  攻击力 +%d\n  防御力 +%d\n\n",
			maxHPGain, maxQiGain, attackGain, defenseGain)
	} else {
		b.WriteString("【境界突破失败】\n\n")
		fmt.Fprintf(&b, "失败原因：%s\n消耗的资源不会返还，请继续努力！\n\n", res.FailureReason)
	}
	b.WriteString(desc)
	res.Message = b.String()

	r.logger.Info("breakthrough attempted",
		zap.String("character_id", ch.ID),
		zap.String("from", req.FromRealm),
		zap.String("to", req.ToRealm),
		zap.Float64("rate", res.Rate),
		zap.Bool("tribulation", req.RequiresTribulation),
		zap.Bool("success", res.Success),
	)
	return res, nil
}

// checkPrerequisites validates the cost without touching ch.
func checkPrerequisites(ch *character.Character, req content.Requirement) error {
	if ch.SpiritStones < req.SpiritStonesCost {
		return fmt.Errorf("need %d, have %d: %w", req.SpiritStonesCost, ch.SpiritStones, ErrInsufficientSpiritStones)
	}
	need := make(map[string]int, len(req.RequiredItems))
	for _, item := range req.RequiredItems {
		need[item]++
	}
	for _, item := range req.RequiredItems {
		if !ch.Inventory.Has(item, need[item]) {
			return fmt.Errorf("%q: %w", item, ErrMissingItem)
		}
	}
	return nil
}

// tribulation draws the tribulation and applies its damage on failure. The
// damage never takes HP below 1.
func (r *Resolver) tribulation(ctx context.Context, ch *character.Character, req content.Requirement, efficiency float64, res *Result, b *strings.Builder) bool {
	rate := TribulationRate(ch.Stats, efficiency, ch.Stats.Luck)
	passed := r.roller.Chance("tribulation", rate)

	res.Tribulation = req.Tribulation()
	res.TribulationFaced = true
	res.TribulationPassed = passed
	res.TribulationRate = rate
	if !passed {
		dmg := ch.Stats.MaxHP / 3
		before := ch.Stats.HP
		ch.Stats.HP = max(1, ch.Stats.HP-dmg)
		res.TribulationDamage = max(0, before-ch.Stats.HP)
	}

	desc := narrate.Describe(ctx, r.narrator, r.logger, narrate.Event{
		Kind:        narrate.KindTribulation,
		Character:   ch.Name,
		Tribulation: res.Tribulation,
		Success:     passed,
	})
	fmt.Fprintf(b, "【%s】\n%s\n\n", res.Tribulation, desc)
	return passed
}
