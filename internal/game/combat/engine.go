package combat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/cultivation/internal/game/character"
	"github.com/cory-johannsen/cultivation/internal/game/monster"
	"github.com/cory-johannsen/cultivation/internal/narrate"
)

// ErrAlreadyInCombat is returned when starting a fight while one is in progress.
var ErrAlreadyInCombat = errors.New("already in combat")

// ErrWrongTurn is returned when the player acts while it is not their turn.
var ErrWrongTurn = errors.New("not your turn")

// Generator creates monsters. *monster.Generator satisfies it.
type Generator interface {
	Create(templateID string, characterLevel int) (*monster.Monster, error)
}

// Leveler applies level-ups after experience is gained.
type Leveler interface {
	LevelUp(c *character.Character) []string
}

// Settings holds the tunable combat constants.
type Settings struct {
	BaseDodgeRate float64
	BaseFleeRate  float64
}

// DefaultSettings returns the stock dodge and flee bases.
func DefaultSettings() Settings {
	return Settings{BaseDodgeRate: 0.05, BaseFleeRate: 0.3}
}

// Engine resolves combat actions. It holds no per-fight state; everything a
// fight needs between calls is in the character's snapshot. Callers must
// serialize operations on the same character.
type Engine struct {
	gen      Generator
	roller   Roller
	narrator narrate.Narrator
	leveler  Leveler
	settings Settings
	logger   *zap.Logger
}

// NewEngine creates an Engine.
//
// Precondition: gen, roller, leveler, and logger must be non-nil. A nil
// narrator yields canned text.
func NewEngine(gen Generator, roller Roller, narrator narrate.Narrator, leveler Leveler, settings Settings, logger *zap.Logger) *Engine {
	return &Engine{
		gen:      gen,
		roller:   roller,
		narrator: narrator,
		leveler:  leveler,
		settings: settings,
		logger:   logger,
	}
}

// Start generates a monster from templateID and opens a fight with the
// player to move first in round 1. A stored snapshot that cannot be parsed
// is discarded.
//
// Postcondition: On success ch.CombatState holds the new snapshot. On error
// ch is unchanged; unknown templates wrap monster.ErrTemplateNotFound.
func (e *Engine) Start(ctx context.Context, ch *character.Character, templateID string) (*Result, error) {
	if ch.InCombat() {
		if _, err := Decode(ch.CombatState); err == nil {
			return nil, ErrAlreadyInCombat
		}
		e.logger.Warn("discarding unreadable combat state", zap.String("character_id", ch.ID))
	}

	m, err := e.gen.Create(templateID, ch.Level)
	if err != nil {
		return nil, fmt.Errorf("starting combat: %w", err)
	}
	st := State{
		MonsterID:      m.ID,
		MonsterName:    m.Name,
		MonsterHP:      m.HP,
		MonsterMaxHP:   m.MaxHP,
		MonsterAttack:  m.Attack,
		MonsterDefense: m.Defense,
		MonsterLevel:   m.Level,
		Turn:           TurnPlayer,
		Round:          1,
	}
	blob, err := st.Encode()
	if err != nil {
		return nil, err
	}
	ch.CombatState = blob

	desc := narrate.Describe(ctx, e.narrator, e.logger, narrate.Event{
		Kind:      narrate.KindEncounter,
		Character: ch.Name,
		Location:  ch.Location,
		Monster:   m.Name,
	})
	var b strings.Builder
	b.WriteString("战斗开始！\n\n")
	fmt.Fprintf(&b, "遭遇敌人：%s (等级%d)\n", m.Name, m.Level)
	fmt.Fprintf(&b, "敌人生命：%d/%d\n", m.HP, m.MaxHP)
	fmt.Fprintf(&b, "敌人攻击：%d\n", m.Attack)
	fmt.Fprintf(&b, "敌人防御：%d\n\n", m.Defense)
	b.WriteString(desc)

	e.logger.Info("combat started",
		zap.String("character_id", ch.ID),
		zap.String("monster", m.ID),
		zap.Int("monster_level", m.Level),
	)
	return &Result{Outcome: OutcomeStarted, Round: st.Round, Message: b.String()}, nil
}

// PlayerAttack resolves the player's attack and, if the monster survives,
// its counter-attack in the same call.
//
// Postcondition: On OutcomeContinue the round has advanced by one and the
// snapshot is saved with the player to move. On a terminal outcome the
// snapshot is cleared. On error ch is unchanged.
func (e *Engine) PlayerAttack(ctx context.Context, ch *character.Character) (*Result, error) {
	st, err := Decode(ch.CombatState)
	if err != nil {
		return nil, err
	}
	if st.Turn != TurnPlayer {
		return nil, ErrWrongTurn
	}

	dmg, crit := playerStrike(e.roller, ch.Profile(), st.MonsterDefense)
	st.MonsterHP -= dmg
	res := &Result{Round: st.Round, DamageDealt: dmg, Critical: crit}

	desc := narrate.Describe(ctx, e.narrator, e.logger, narrate.Event{
		Kind:      narrate.KindAttack,
		Character: ch.Name,
		Monster:   st.MonsterName,
		Damage:    dmg,
		Critical:  crit,
	})
	var b strings.Builder
	fmt.Fprintf(&b, "【%s的攻击】\n\n%s\n\n造成伤害：%d点", ch.Name, desc, dmg)
	if crit {
		b.WriteString(" (暴击！)")
	}
	fmt.Fprintf(&b, "\n%s生命：%d/%d\n", st.MonsterName, max(0, st.MonsterHP), st.MonsterMaxHP)

	if st.MonsterHP <= 0 {
		return e.monsterDeath(ch, st, res, &b)
	}

	st.Turn = TurnMonster
	b.WriteString("\n")
	b.WriteString(e.counterAttack(ch, st, res))
	if ch.Stats.HP <= 0 {
		return e.playerDeath(ch, res, &b), nil
	}

	st.Turn = TurnPlayer
	st.Round++
	if err := e.save(ch, st); err != nil {
		return nil, err
	}
	res.Outcome = OutcomeContinue
	res.Round = st.Round
	fmt.Fprintf(&b, "\n\n第%d回合，请继续战斗或尝试逃跑", st.Round)
	res.Message = b.String()
	return res, nil
}

// AttemptFlee tries to escape. A failed attempt gives the monster a free
// counter-attack and does not advance the round.
//
// Postcondition: On OutcomeFled or OutcomeLost the snapshot is cleared; on
// OutcomeContinue it is saved with the player to move and the same round.
func (e *Engine) AttemptFlee(ctx context.Context, ch *character.Character) (*Result, error) {
	st, err := Decode(ch.CombatState)
	if err != nil {
		return nil, err
	}

	rate := FleeRate(e.settings.BaseFleeRate, ch.Level, st.MonsterLevel, ch.Profile())
	res := &Result{Round: st.Round, FleeRate: rate}
	if e.roller.Chance("flee", rate) {
		ch.CombatState = ""
		res.Outcome = OutcomeFled
		res.Message = fmt.Sprintf("%s成功逃离了战斗！\n逃跑成功率：%d%%", ch.Name, int(rate*100))
		e.logger.Info("combat fled", zap.String("character_id", ch.ID), zap.Float64("rate", rate))
		return res, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "逃跑失败！(成功率：%d%%)\n", int(rate*100))
	st.Turn = TurnMonster
	b.WriteString(e.counterAttack(ch, st, res))
	if ch.Stats.HP <= 0 {
		return e.playerDeath(ch, res, &b), nil
	}

	st.Turn = TurnPlayer
	if err := e.save(ch, st); err != nil {
		return nil, err
	}
	res.Outcome = OutcomeContinue
	b.WriteString("\n\n请继续战斗")
	res.Message = b.String()
	return res, nil
}

// monsterDeath grants the monster's rewards and ends the fight. Rewards come
// from a fresh monster of the same template and level, since the snapshot
// only keeps combat stats.
func (e *Engine) monsterDeath(ch *character.Character, st State, res *Result, b *strings.Builder) (*Result, error) {
	m, err := e.gen.Create(st.MonsterID, st.MonsterLevel)
	if err != nil {
		return nil, fmt.Errorf("resolving rewards for %q: %w", st.MonsterID, err)
	}

	exp := m.ExpReward
	if diff := ch.Level - st.MonsterLevel; diff > 5 {
		exp = max(1, exp/(diff-4))
	}
	for _, d := range m.Drops {
		if err := ch.Inventory.Add(d.Item, d.Quantity, character.KindMaterial); err != nil {
			return nil, fmt.Errorf("adding drop %q: %w", d.Item, err)
		}
	}
	ch.Exp += exp
	ch.SpiritStones += m.SpiritStonesReward
	ch.CombatState = ""
	levelUps := e.leveler.LevelUp(ch)

	res.Outcome = OutcomeWon
	res.ExpGained = exp
	res.SpiritStonesGained = m.SpiritStonesReward
	res.Items = m.Drops
	res.LevelUps = levelUps

	fmt.Fprintf(b, "\n击败了%s！\n\n获得经验：%d点\n获得灵石：%d枚\n", st.MonsterName, exp, m.SpiritStonesReward)
	if len(m.Drops) > 0 {
		names := make([]string, 0, len(m.Drops))
		for _, d := range m.Drops {
			names = append(names, fmt.Sprintf("%s x%d", d.Item, d.Quantity))
		}
		fmt.Fprintf(b, "掉落物品：%s\n", strings.Join(names, ", "))
	}
	if len(levelUps) > 0 {
		b.WriteString("\n" + strings.Join(levelUps, "\n"))
	}
	res.Message = b.String()

	e.logger.Info("combat won",
		zap.String("character_id", ch.ID),
		zap.String("monster", st.MonsterID),
		zap.Int("exp", exp),
		zap.Int("spirit_stones", m.SpiritStonesReward),
		zap.Int("round", st.Round),
	)
	return res, nil
}

// playerDeath applies the death penalty and ends the fight with the
// character at exactly 1 HP.
func (e *Engine) playerDeath(ch *character.Character, res *Result, b *strings.Builder) *Result {
	expLoss := max(0, ch.Exp/10)
	stonesLoss := max(0, ch.SpiritStones/20)
	ch.Exp = max(0, ch.Exp-expLoss)
	ch.SpiritStones = max(0, ch.SpiritStones-stonesLoss)
	ch.Stats.HP = 1
	ch.CombatState = ""

	res.Outcome = OutcomeLost
	res.ExpLost = expLoss
	res.SpiritStonesLost = stonesLoss
	fmt.Fprintf(b, "\n战斗失败！%s重伤倒下...\n\n损失经验：%d点\n损失灵石：%d枚\n已紧急治疗，生命值恢复到1点", ch.Name, expLoss, stonesLoss)
	res.Message = b.String()

	e.logger.Info("combat lost",
		zap.String("character_id", ch.ID),
		zap.Int("exp_lost", expLoss),
		zap.Int("spirit_stones_lost", stonesLoss),
	)
	return res
}

func (e *Engine) save(ch *character.Character, st State) error {
	blob, err := st.Encode()
	if err != nil {
		return err
	}
	ch.CombatState = blob
	return nil
}
