package character_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/cultivation/internal/game/character"
)

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

func newHero(t *testing.T) *character.Character {
	t.Helper()
	c, err := character.New("韩立", "四灵根")
	require.NoError(t, err)
	return c
}

func TestNew_StartingState(t *testing.T) {
	c := newHero(t)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, 1, c.Level)
	assert.Equal(t, character.InitialRealm, c.Realm)
	assert.Equal(t, "四灵根", c.SpiritRoot)
	assert.Equal(t, 100, c.Stats.HP)
	assert.Equal(t, c.Stats.MaxHP, c.Stats.HP)
	assert.Equal(t, c.Stats.MaxQi, c.Stats.Qi)
	assert.False(t, c.InCombat())
	for _, s := range character.Slots() {
		eq, ok := c.Equipment[s]
		assert.True(t, ok, "slot %s present", s)
		assert.Nil(t, eq)
	}
}

func TestNew_RejectsEmptyFields(t *testing.T) {
	_, err := character.New("", "天灵根")
	assert.Error(t, err)
	_, err = character.New("韩立", "")
	assert.Error(t, err)
}

func TestNew_AssignsDistinctIDs(t *testing.T) {
	a := newHero(t)
	b := newHero(t)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestAggregate_SumsPresentBonuses(t *testing.T) {
	base := character.Stats{HP: 80, MaxHP: 100, MaxQi: 50, Attack: 10, Defense: 5, CritRate: 0.05, CritDamage: 1.5}
	equipped := map[character.Slot]*character.Equipment{
		character.SlotWeapon: {Name: "青锋剑", Slot: character.SlotWeapon, Bonus: character.Bonus{
			Attack: intPtr(12), CritRate: floatPtr(0.1),
		}},
		character.SlotArmor: {Name: "玄铁甲", Slot: character.SlotArmor, Bonus: character.Bonus{
			Defense: intPtr(8), HP: intPtr(30),
		}},
		character.SlotAccessory: nil,
	}
	p := character.Aggregate(base, equipped)
	assert.Equal(t, 22, p.Attack)
	assert.Equal(t, 13, p.Defense)
	assert.Equal(t, 130, p.MaxHP)
	assert.Equal(t, 80, p.HP)
	assert.Equal(t, 50, p.MaxQi)
	assert.InDelta(t, 0.15, p.CritRate, 1e-9)
	assert.Equal(t, 1.5, p.CritDamage)
}

func TestAggregate_ExplicitZeroEqualsAbsent(t *testing.T) {
	base := character.Stats{Attack: 10}
	zero := map[character.Slot]*character.Equipment{
		character.SlotWeapon: {Name: "木剑", Slot: character.SlotWeapon, Bonus: character.Bonus{Attack: intPtr(0)}},
	}
	none := map[character.Slot]*character.Equipment{
		character.SlotWeapon: {Name: "木剑", Slot: character.SlotWeapon},
	}
	assert.Equal(t, character.Aggregate(base, none), character.Aggregate(base, zero))
	assert.Equal(t, 10, character.Aggregate(base, nil).Attack)
}

func TestProfile_ReflectsEquipChanges(t *testing.T) {
	c := newHero(t)
	before := c.Profile().Attack
	_, err := c.Equip(&character.Equipment{Name: "青锋剑", Slot: character.SlotWeapon, Bonus: character.Bonus{Attack: intPtr(7)}})
	require.NoError(t, err)
	assert.Equal(t, before+7, c.Profile().Attack)

	_, err = c.Unequip(character.SlotWeapon)
	require.NoError(t, err)
	assert.Equal(t, before, c.Profile().Attack)
}

func TestEquip_ReturnsReplacedItem(t *testing.T) {
	c := newHero(t)
	first := &character.Equipment{Name: "木剑", Slot: character.SlotWeapon}
	second := &character.Equipment{Name: "青锋剑", Slot: character.SlotWeapon}

	old, err := c.Equip(first)
	require.NoError(t, err)
	assert.Nil(t, old)
	old, err = c.Equip(second)
	require.NoError(t, err)
	assert.Same(t, first, old)
	assert.Same(t, second, c.Equipment[character.SlotWeapon])
}

func TestEquip_UnknownSlot(t *testing.T) {
	c := newHero(t)
	_, err := c.Equip(&character.Equipment{Name: "怪物", Slot: "头盔"})
	assert.True(t, errors.Is(err, character.ErrUnknownSlot))
}

func TestUnequip_MovesItemToInventory(t *testing.T) {
	c := newHero(t)
	_, err := c.Equip(&character.Equipment{Name: "玄铁甲", Slot: character.SlotArmor})
	require.NoError(t, err)

	eq, err := c.Unequip(character.SlotArmor)
	require.NoError(t, err)
	assert.Equal(t, "玄铁甲", eq.Name)
	assert.Nil(t, c.Equipment[character.SlotArmor])
	assert.Equal(t, 1, c.Inventory.Count("玄铁甲"))
}

func TestUnequip_EmptySlot(t *testing.T) {
	c := newHero(t)
	_, err := c.Unequip(character.SlotTreasure)
	assert.True(t, errors.Is(err, character.ErrSlotEmpty))
	_, err = c.Unequip("头盔")
	assert.True(t, errors.Is(err, character.ErrUnknownSlot))
}

func TestInventory_AddRemove(t *testing.T) {
	var inv character.Inventory
	require.NoError(t, inv.Add("筑基丹", 2, character.KindConsumable))
	require.NoError(t, inv.Add("筑基丹", 1, character.KindConsumable))
	assert.Equal(t, 3, inv.Count("筑基丹"))
	assert.True(t, inv.Has("筑基丹", 3))
	assert.False(t, inv.Has("筑基丹", 4))

	err := inv.Remove("筑基丹", 5)
	assert.True(t, errors.Is(err, character.ErrInsufficientItems))
	assert.Equal(t, 3, inv.Count("筑基丹"), "failed remove must not change the count")

	require.NoError(t, inv.Remove("筑基丹", 3))
	assert.Equal(t, 0, inv.Count("筑基丹"))
	assert.Empty(t, inv.Stacks())
}

func TestInventory_RejectsBadInput(t *testing.T) {
	var inv character.Inventory
	assert.Error(t, inv.Add("", 1, character.KindMaterial))
	assert.Error(t, inv.Add("狼皮", 0, character.KindMaterial))
	assert.Error(t, inv.Remove("狼皮", 0))
}

func TestInventory_StacksSortedByName(t *testing.T) {
	var inv character.Inventory
	require.NoError(t, inv.Add("b", 1, character.KindMaterial))
	require.NoError(t, inv.Add("a", 1, character.KindMaterial))
	stacks := inv.Stacks()
	require.Len(t, stacks, 2)
	assert.Equal(t, "a", stacks[0].Name)
	assert.Equal(t, "b", stacks[1].Name)
}

func TestLevelUp_SpendsExpAcrossLevels(t *testing.T) {
	c := newHero(t)
	c.Exp = 100 + 200 + 50
	maxHP := c.Stats.MaxHP

	msgs := character.LevelUp(c)
	assert.Len(t, msgs, 2)
	assert.Equal(t, 3, c.Level)
	assert.Equal(t, 50, c.Exp)
	assert.Equal(t, maxHP+20, c.Stats.MaxHP)
}

func TestLevelUp_NoGain(t *testing.T) {
	c := newHero(t)
	c.Exp = 99
	assert.Nil(t, character.LevelUp(c))
	assert.Equal(t, 1, c.Level)
}

func TestProperty_LevelUpLeavesExpBelowThreshold(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c, err := character.New("test", "五灵根")
		require.NoError(rt, err)
		c.Level = rapid.IntRange(1, 80).Draw(rt, "level")
		c.Exp = rapid.IntRange(0, 100000).Draw(rt, "exp")
		startLevel := c.Level

		msgs := character.DefaultLeveler.LevelUp(c)
		assert.Less(rt, c.Exp, character.ExpToNextLevel(c.Level))
		assert.Equal(rt, startLevel+len(msgs), c.Level)
	})
}

func TestProperty_AggregateIsAdditive(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		atk := rapid.IntRange(0, 500).Draw(rt, "atk")
		w := rapid.IntRange(-50, 500).Draw(rt, "weapon")
		a := rapid.IntRange(-50, 500).Draw(rt, "accessory")
		p := character.Aggregate(character.Stats{Attack: atk}, map[character.Slot]*character.Equipment{
			character.SlotWeapon:    {Slot: character.SlotWeapon, Bonus: character.Bonus{Attack: intPtr(w)}},
			character.SlotAccessory: {Slot: character.SlotAccessory, Bonus: character.Bonus{Attack: intPtr(a)}},
		})
		assert.Equal(rt, atk+w+a, p.Attack)
	})
}
