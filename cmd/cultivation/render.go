package main

import (
	"fmt"
	"io"

	"github.com/cory-johannsen/cultivation/internal/game/character"
	"github.com/cory-johannsen/cultivation/internal/gameserver"
)

func renderStatus(w io.Writer, st *gameserver.Status) {
	c, p := st.Character, st.Profile
	fmt.Fprintf(w, "【%s】 %s · 等级%d · %s\n", c.Name, c.Realm, c.Level, c.SpiritRoot)
	fmt.Fprintf(w, "修为：%d/%d  灵石：%d  位置：%s\n", c.Exp, character.ExpToNextLevel(c.Level), c.SpiritStones, c.Location)
	fmt.Fprintf(w, "生命：%d/%d  真元：%d/%d\n", p.HP, p.MaxHP, p.Qi, p.MaxQi)
	fmt.Fprintf(w, "攻击：%d  防御：%d  速度：%d  幸运：%d\n", p.Attack, p.Defense, p.Speed, p.Luck)
	fmt.Fprintf(w, "暴击：%.0f%%  暴伤：%.0f%%\n", p.CritRate*100, p.CritDamage*100)

	fmt.Fprintln(w, "装备：")
	for _, slot := range character.Slots() {
		name := "无"
		if eq := c.Equipment[slot]; eq != nil {
			name = eq.Name
		}
		fmt.Fprintf(w, "  %s：%s\n", slot, name)
	}

	if stacks := c.Inventory.Stacks(); len(stacks) > 0 {
		fmt.Fprintln(w, "储物袋：")
		for _, s := range stacks {
			fmt.Fprintf(w, "  %s ×%d\n", s.Name, s.Quantity)
		}
	}

	if st.Combat != nil {
		fmt.Fprintf(w, "战斗中：%s (等级%d) %s，第%d回合\n",
			st.Combat.MonsterName, st.Combat.MonsterLevel, st.MonsterCondition, st.Combat.Round)
	}
	if st.Next != nil {
		fmt.Fprintf(w, "可尝试突破：%s → %s（消耗灵石%d）\n", st.Next.FromRealm, st.Next.ToRealm, st.Next.SpiritStonesCost)
	}
}
