package combat_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/cultivation/internal/game/character"
	"github.com/cory-johannsen/cultivation/internal/game/combat"
	"github.com/cory-johannsen/cultivation/internal/game/content"
	"github.com/cory-johannsen/cultivation/internal/game/dice"
	"github.com/cory-johannsen/cultivation/internal/game/monster"
	"github.com/cory-johannsen/cultivation/internal/narrate"
	"github.com/cory-johannsen/cultivation/internal/testutil"
)

// stubGen returns copies of a fixed monster and counts calls.
type stubGen struct {
	m     monster.Monster
	calls int
}

func (g *stubGen) Create(templateID string, level int) (*monster.Monster, error) {
	g.calls++
	if templateID != g.m.ID {
		return nil, monster.ErrTemplateNotFound
	}
	m := g.m
	m.Level = level
	return &m, nil
}

func wolf() monster.Monster {
	return monster.Monster{
		ID: "grey_wolf", Name: "灰狼", Level: 1,
		HP: 100, MaxHP: 100, Attack: 30, Defense: 7,
		ExpReward: 15, SpiritStonesReward: 8,
		Drops: []monster.Drop{{Item: "狼皮", Quantity: 2}},
	}
}

func newEngine(t *testing.T, gen combat.Generator, settings combat.Settings, draws ...float64) (*combat.Engine, *testutil.ScriptedSource) {
	t.Helper()
	src := testutil.NewScriptedSource(t, draws...)
	logger := zaptest.NewLogger(t)
	return combat.NewEngine(gen, dice.NewLoggedRoller(src, logger), narrate.Canned{}, character.DefaultLeveler, settings, logger), src
}

func newHero(t *testing.T) *character.Character {
	t.Helper()
	ch, err := character.New("韩立", "三灵根")
	require.NoError(t, err)
	return ch
}

// putInCombat stores a snapshot for the stub wolf with the given hp.
func putInCombat(t *testing.T, ch *character.Character, monsterHP int, monsterLevel int) {
	t.Helper()
	w := wolf()
	blob, err := combat.State{
		MonsterID: w.ID, MonsterName: w.Name,
		MonsterHP: monsterHP, MonsterMaxHP: w.MaxHP,
		MonsterAttack: w.Attack, MonsterDefense: w.Defense,
		MonsterLevel: monsterLevel,
		Turn:         combat.TurnPlayer, Round: 1,
	}.Encode()
	require.NoError(t, err)
	ch.CombatState = blob
}

func decode(t *testing.T, ch *character.Character) combat.State {
	t.Helper()
	st, err := combat.Decode(ch.CombatState)
	require.NoError(t, err)
	return st
}

func TestStart_StoresSnapshotAtRoundOne(t *testing.T) {
	gen := &stubGen{m: wolf()}
	eng, _ := newEngine(t, gen, combat.DefaultSettings())
	ch := newHero(t)

	res, err := eng.Start(context.Background(), ch, "grey_wolf")
	require.NoError(t, err)
	assert.Equal(t, combat.OutcomeStarted, res.Outcome)
	assert.Contains(t, res.Message, "灰狼")
	assert.Contains(t, res.Message, "敌人攻击：30")

	st := decode(t, ch)
	assert.Equal(t, combat.TurnPlayer, st.Turn)
	assert.Equal(t, 1, st.Round)
	assert.Equal(t, st.MonsterMaxHP, st.MonsterHP)
	assert.Equal(t, ch.Level, st.MonsterLevel)
}

func TestStart_UnknownTemplate(t *testing.T) {
	eng, _ := newEngine(t, &stubGen{m: wolf()}, combat.DefaultSettings())
	ch := newHero(t)

	_, err := eng.Start(context.Background(), ch, "dragon")
	assert.True(t, errors.Is(err, monster.ErrTemplateNotFound))
	assert.False(t, ch.InCombat())
}

func TestStart_AlreadyInCombat(t *testing.T) {
	eng, _ := newEngine(t, &stubGen{m: wolf()}, combat.DefaultSettings())
	ch := newHero(t)
	putInCombat(t, ch, 50, 1)
	before := ch.CombatState

	_, err := eng.Start(context.Background(), ch, "grey_wolf")
	assert.True(t, errors.Is(err, combat.ErrAlreadyInCombat))
	assert.Equal(t, before, ch.CombatState)
}

func TestStart_ReplacesUnreadableSnapshot(t *testing.T) {
	eng, _ := newEngine(t, &stubGen{m: wolf()}, combat.DefaultSettings())
	ch := newHero(t)
	ch.CombatState = "{not json"

	_, err := eng.Start(context.Background(), ch, "grey_wolf")
	require.NoError(t, err)
	assert.Equal(t, 1, decode(t, ch).Round)
}

func TestPlayerAttack_KillsMonsterWithOneHP(t *testing.T) {
	gen := &stubGen{m: wolf()}
	// variation, crit
	eng, src := newEngine(t, gen, combat.DefaultSettings(), 0.75, 0.9)
	ch := newHero(t)
	putInCombat(t, ch, 1, ch.Level)

	res, err := eng.PlayerAttack(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, combat.OutcomeWon, res.Outcome)
	assert.False(t, ch.InCombat())
	assert.Equal(t, 15, res.ExpGained)
	assert.Equal(t, 15, ch.Exp)
	assert.Equal(t, 8, ch.SpiritStones)
	assert.Equal(t, 2, ch.Inventory.Count("狼皮"))
	assert.Equal(t, 1, res.Round)
	assert.Equal(t, 100, ch.Stats.HP, "no counter-attack after a kill")
	assert.Equal(t, 0, src.Remaining())
}

func TestPlayerAttack_ExpPenaltyForWeakMonster(t *testing.T) {
	gen := &stubGen{m: wolf()}
	gen.m.ExpReward = 25
	eng, _ := newEngine(t, gen, combat.DefaultSettings(), 0.75, 0.9)
	ch := newHero(t)
	ch.Level = 12
	putInCombat(t, ch, 1, 3)

	res, err := eng.PlayerAttack(context.Background(), ch)
	require.NoError(t, err)
	// diff 9 -> 25 / 5
	assert.Equal(t, 5, res.ExpGained)
}

func TestPlayerAttack_ExpPenaltyFloorsAtOne(t *testing.T) {
	gen := &stubGen{m: wolf()}
	gen.m.ExpReward = 1
	eng, _ := newEngine(t, gen, combat.DefaultSettings(), 0.75, 0.9)
	ch := newHero(t)
	ch.Level = 7
	putInCombat(t, ch, 1, 1)

	res, err := eng.PlayerAttack(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExpGained)
}

func TestPlayerAttack_LevelUpOnWin(t *testing.T) {
	gen := &stubGen{m: wolf()}
	gen.m.ExpReward = 150
	eng, _ := newEngine(t, gen, combat.DefaultSettings(), 0.75, 0.9)
	ch := newHero(t)
	putInCombat(t, ch, 1, 1)

	res, err := eng.PlayerAttack(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, 2, ch.Level)
	assert.Len(t, res.LevelUps, 1)
}

func TestPlayerAttack_ExchangeContinuesAndAdvancesRound(t *testing.T) {
	// variation, crit, dodge, monster variation
	eng, src := newEngine(t, &stubGen{m: wolf()}, combat.DefaultSettings(), 0.75, 0.9, 0.99, 0.75)
	ch := newHero(t)
	putInCombat(t, ch, 100, 1)

	res, err := eng.PlayerAttack(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, combat.OutcomeContinue, res.Outcome)
	// (10 - 7/2) * 1.1
	assert.Equal(t, 7, res.DamageDealt)
	// (30 - 5/2) * 1.1
	assert.Equal(t, 30, res.DamageTaken)
	assert.Equal(t, 70, ch.Stats.HP)
	assert.Equal(t, 0, src.Remaining())

	st := decode(t, ch)
	assert.Equal(t, 93, st.MonsterHP)
	assert.Equal(t, combat.TurnPlayer, st.Turn)
	assert.Equal(t, 2, st.Round)
	assert.Equal(t, 2, res.Round)
}

func TestPlayerAttack_CriticalMultipliesDamage(t *testing.T) {
	eng, _ := newEngine(t, &stubGen{m: wolf()}, combat.DefaultSettings(), 0.75, 0.01, 0.99, 0.75)
	ch := newHero(t)
	putInCombat(t, ch, 100, 1)

	res, err := eng.PlayerAttack(context.Background(), ch)
	require.NoError(t, err)
	assert.True(t, res.Critical)
	// int(7 * 1.5)
	assert.Equal(t, 10, res.DamageDealt)
	assert.Contains(t, res.Message, "暴击")
}

func TestPlayerAttack_DodgeSkipsDamageRoll(t *testing.T) {
	eng, src := newEngine(t, &stubGen{m: wolf()}, combat.DefaultSettings(), 0.75, 0.9, 0.0)
	ch := newHero(t)
	putInCombat(t, ch, 100, 1)

	res, err := eng.PlayerAttack(context.Background(), ch)
	require.NoError(t, err)
	assert.True(t, res.Dodged)
	assert.Equal(t, 0, res.DamageTaken)
	assert.Equal(t, 100, ch.Stats.HP)
	assert.Contains(t, res.Message, "闪避")
	assert.Equal(t, 0, src.Remaining())
}

func TestPlayerAttack_DeathLeavesOneHP(t *testing.T) {
	gen := &stubGen{m: wolf()}
	eng, _ := newEngine(t, gen, combat.DefaultSettings(), 0.75, 0.9, 0.99, 0.75)
	ch := newHero(t)
	ch.Stats.HP = 5
	ch.Exp = 95
	ch.SpiritStones = 41
	putInCombat(t, ch, 100, 1)

	res, err := eng.PlayerAttack(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, combat.OutcomeLost, res.Outcome)
	assert.Equal(t, 1, ch.Stats.HP)
	assert.Equal(t, 9, res.ExpLost)
	assert.Equal(t, 86, ch.Exp)
	assert.Equal(t, 2, res.SpiritStonesLost)
	assert.Equal(t, 39, ch.SpiritStones)
	assert.False(t, ch.InCombat())
	assert.Equal(t, 1, res.Round)
	assert.Equal(t, 0, gen.calls, "no rewards on defeat")
}

func TestPlayerAttack_WrongTurn(t *testing.T) {
	eng, _ := newEngine(t, &stubGen{m: wolf()}, combat.DefaultSettings())
	ch := newHero(t)
	blob, err := combat.State{
		MonsterID: "grey_wolf", MonsterName: "灰狼", MonsterHP: 10, MonsterMaxHP: 10,
		MonsterLevel: 1, Turn: combat.TurnMonster, Round: 3,
	}.Encode()
	require.NoError(t, err)
	ch.CombatState = blob

	_, err = eng.PlayerAttack(context.Background(), ch)
	assert.True(t, errors.Is(err, combat.ErrWrongTurn))
	assert.Equal(t, blob, ch.CombatState)
	assert.Equal(t, 100, ch.Stats.HP)
}

func TestActions_RequireReadableSnapshot(t *testing.T) {
	eng, _ := newEngine(t, &stubGen{m: wolf()}, combat.DefaultSettings())
	ch := newHero(t)

	_, err := eng.PlayerAttack(context.Background(), ch)
	assert.True(t, errors.Is(err, combat.ErrNotInCombat))
	_, err = eng.AttemptFlee(context.Background(), ch)
	assert.True(t, errors.Is(err, combat.ErrNotInCombat))

	ch.CombatState = `{"monster_id": 7`
	_, err = eng.PlayerAttack(context.Background(), ch)
	assert.True(t, errors.Is(err, combat.ErrStateCorrupt))
	_, err = eng.AttemptFlee(context.Background(), ch)
	assert.True(t, errors.Is(err, combat.ErrStateCorrupt))
	assert.Equal(t, `{"monster_id": 7`, ch.CombatState)
}

func TestAttemptFlee_DrawEqualToRateFails(t *testing.T) {
	settings := combat.Settings{BaseDodgeRate: 0.05, BaseFleeRate: 0.5}
	// flee, dodge, monster variation
	eng, src := newEngine(t, &stubGen{m: wolf()}, settings, 0.5, 0.99, 0.75)
	ch := newHero(t)
	ch.Stats.Speed = 0
	putInCombat(t, ch, 100, ch.Level)
	st := decode(t, ch)
	st.Round = 4
	blob, err := st.Encode()
	require.NoError(t, err)
	ch.CombatState = blob

	res, err := eng.AttemptFlee(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.FleeRate)
	assert.Equal(t, combat.OutcomeContinue, res.Outcome)
	assert.Equal(t, 30, res.DamageTaken)
	assert.Equal(t, 0, src.Remaining())

	after := decode(t, ch)
	assert.Equal(t, 4, after.Round, "failed flee does not advance the round")
	assert.Equal(t, combat.TurnPlayer, after.Turn)
}

func TestAttemptFlee_Success(t *testing.T) {
	eng, _ := newEngine(t, &stubGen{m: wolf()}, combat.DefaultSettings(), 0.1)
	ch := newHero(t)
	putInCombat(t, ch, 100, 1)

	res, err := eng.AttemptFlee(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, combat.OutcomeFled, res.Outcome)
	assert.True(t, res.Outcome.Ended())
	assert.False(t, ch.InCombat())
	assert.Contains(t, res.Message, "逃跑成功率")
}

func TestAttemptFlee_FailureCanKill(t *testing.T) {
	eng, _ := newEngine(t, &stubGen{m: wolf()}, combat.DefaultSettings(), 0.99, 0.99, 0.75)
	ch := newHero(t)
	ch.Stats.HP = 3
	putInCombat(t, ch, 100, 1)

	res, err := eng.AttemptFlee(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, combat.OutcomeLost, res.Outcome)
	assert.Equal(t, 1, ch.Stats.HP)
	assert.False(t, ch.InCombat())
}

func TestState_EncodeUsesSnapshotFieldNames(t *testing.T) {
	original := combat.State{
		MonsterID: "grey_wolf", MonsterName: "灰狼", MonsterHP: 3, MonsterMaxHP: 100,
		MonsterAttack: 22, MonsterDefense: 11, MonsterLevel: 3, Turn: combat.TurnPlayer, Round: 2,
	}
	blob, err := original.Encode()
	require.NoError(t, err)
	for _, key := range []string{"monster_id", "monster_name", "monster_hp", "monster_max_hp",
		"monster_attack", "monster_defense", "monster_level", "turn", "round"} {
		assert.True(t, strings.Contains(blob, `"`+key+`"`), "missing %s", key)
	}
	st, err := combat.Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, original, st)
}

func TestProperty_StateSurvivesEncodeDecode(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		original := combat.State{
			MonsterID:      rapid.StringMatching(`[a-z_]{1,16}`).Draw(rt, "id"),
			MonsterName:    rapid.StringMatching(`\p{Han}{0,6}`).Draw(rt, "name"),
			MonsterHP:      rapid.IntRange(0, 100000).Draw(rt, "hp"),
			MonsterMaxHP:   rapid.IntRange(1, 100000).Draw(rt, "max_hp"),
			MonsterAttack:  rapid.IntRange(0, 10000).Draw(rt, "attack"),
			MonsterDefense: rapid.IntRange(0, 10000).Draw(rt, "defense"),
			MonsterLevel:   rapid.IntRange(1, 200).Draw(rt, "level"),
			Turn:           rapid.SampledFrom([]combat.Turn{combat.TurnPlayer, combat.TurnMonster}).Draw(rt, "turn"),
			Round:          rapid.IntRange(1, 1000).Draw(rt, "round"),
		}
		blob, err := original.Encode()
		if err != nil {
			rt.Fatalf("encode: %v", err)
		}
		st, err := combat.Decode(blob)
		if err != nil {
			rt.Fatalf("decode %s: %v", blob, err)
		}
		if st != original {
			rt.Fatalf("round trip changed state: got %+v, want %+v", st, original)
		}
	})
}

func TestDecode_RejectsUnknownTurn(t *testing.T) {
	_, err := combat.Decode(`{"monster_id":"a","monster_max_hp":5,"turn":"npc","round":1}`)
	assert.True(t, errors.Is(err, combat.ErrStateCorrupt))
}

func TestFullFightWithShippedContent(t *testing.T) {
	reg := content.NewRegistry()
	require.NoError(t, reg.Load(filepath.Join("..", "..", "..", "content")))
	roller := dice.NewLoggedRoller(dice.NewSeededSource(11), zap.NewNop())
	gen := monster.NewGenerator(reg, roller, zap.NewNop())
	eng := combat.NewEngine(gen, roller, nil, character.DefaultLeveler, combat.DefaultSettings(), zap.NewNop())

	ch := newHero(t)
	ch.Stats.Attack = 60
	_, err := eng.Start(context.Background(), ch, "grey_wolf")
	require.NoError(t, err)

	var res *combat.Result
	for i := 0; i < 100 && ch.InCombat(); i++ {
		res, err = eng.PlayerAttack(context.Background(), ch)
		require.NoError(t, err)
	}
	require.NotNil(t, res)
	assert.True(t, res.Outcome.Ended())
	assert.False(t, ch.InCombat())
	assert.GreaterOrEqual(t, ch.Stats.HP, 1)
}

func TestProperty_DamageIsAtLeastOne(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64().Draw(rt, "seed")
		roller := dice.NewLoggedRoller(dice.NewSeededSource(seed), zap.NewNop())
		w := wolf()
		w.Attack = rapid.IntRange(0, 50).Draw(rt, "monster_attack")
		eng := combat.NewEngine(&stubGen{m: w}, roller, narrate.Canned{}, character.DefaultLeveler, combat.DefaultSettings(), zap.NewNop())

		ch, err := character.New("test", "五灵根")
		require.NoError(rt, err)
		ch.Stats.HP, ch.Stats.MaxHP = 10000, 10000
		ch.Stats.Attack = rapid.IntRange(0, 50).Draw(rt, "attack")
		ch.Stats.Defense = rapid.IntRange(0, 1000).Draw(rt, "defense")
		blob, err := combat.State{
			MonsterID: w.ID, MonsterName: w.Name, MonsterHP: 100000, MonsterMaxHP: 100000,
			MonsterAttack: w.Attack, MonsterDefense: rapid.IntRange(0, 1000).Draw(rt, "monster_defense"),
			MonsterLevel: 1, Turn: combat.TurnPlayer, Round: 1,
		}.Encode()
		require.NoError(rt, err)
		ch.CombatState = blob

		res, err := eng.PlayerAttack(context.Background(), ch)
		require.NoError(rt, err)
		assert.GreaterOrEqual(rt, res.DamageDealt, 1)
		if !res.Dodged {
			assert.GreaterOrEqual(rt, res.DamageTaken, 1)
		}
	})
}

func TestProperty_RoundAdvancesOnlyOnContinue(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64().Draw(rt, "seed")
		roller := dice.NewLoggedRoller(dice.NewSeededSource(seed), zap.NewNop())
		eng := combat.NewEngine(&stubGen{m: wolf()}, roller, nil, character.DefaultLeveler, combat.DefaultSettings(), zap.NewNop())

		ch, err := character.New("test", "五灵根")
		require.NoError(rt, err)
		ch.Stats.HP = rapid.IntRange(1, 300).Draw(rt, "hp")
		_, err = eng.Start(context.Background(), ch, "grey_wolf")
		require.NoError(rt, err)

		round := 1
		for steps := 0; ch.InCombat() && steps < 50; steps++ {
			flee := rapid.Bool().Draw(rt, "flee")
			var res *combat.Result
			if flee {
				res, err = eng.AttemptFlee(context.Background(), ch)
			} else {
				res, err = eng.PlayerAttack(context.Background(), ch)
			}
			require.NoError(rt, err)
			switch {
			case res.Outcome.Ended():
				assert.Equal(rt, round, res.Round)
				assert.False(rt, ch.InCombat())
			case flee:
				st, err := combat.Decode(ch.CombatState)
				require.NoError(rt, err)
				assert.Equal(rt, round, st.Round)
			default:
				round++
				st, err := combat.Decode(ch.CombatState)
				require.NoError(rt, err)
				assert.Equal(rt, round, st.Round)
			}
			assert.GreaterOrEqual(rt, ch.Stats.HP, 1)
		}
	})
}

func TestProperty_FleeRateClamped(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := rapid.Float64Range(0, 1).Draw(rt, "base")
		cl := rapid.IntRange(1, 100).Draw(rt, "char_level")
		ml := rapid.IntRange(1, 100).Draw(rt, "monster_level")
		speed := rapid.IntRange(-100, 500).Draw(rt, "speed")
		rate := combat.FleeRate(base, cl, ml, character.Profile{Speed: speed})
		assert.GreaterOrEqual(rt, rate, combat.MinFleeRate)
		assert.LessOrEqual(rt, rate, combat.MaxFleeRate)
	})
}

func TestProperty_BaseDamageAtLeastOne(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		atk := rapid.IntRange(-100, 1000).Draw(rt, "attack")
		def := rapid.IntRange(-100, 5000).Draw(rt, "defense")
		assert.GreaterOrEqual(rt, combat.BaseDamage(atk, def), 1)
	})
}
