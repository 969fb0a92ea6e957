package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cory-johannsen/cultivation/internal/app"
	"github.com/cory-johannsen/cultivation/internal/game/combat"
	"github.com/cory-johannsen/cultivation/internal/game/monster"
	"github.com/cory-johannsen/cultivation/internal/game/realm"
	"github.com/cory-johannsen/cultivation/internal/gameserver"
	"github.com/cory-johannsen/cultivation/internal/storage"
)

// errUsage reports a malformed command line.
var errUsage = errors.New("invalid arguments")

type command struct {
	args int
	run  func(ctx context.Context, a *app.App, args []string, w io.Writer) error
}

var commands = map[string]command{
	"create": {2, func(ctx context.Context, a *app.App, args []string, w io.Writer) error {
		c, err := a.Service.CreateCharacter(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s 踏上仙途，灵根：%s，境界：%s\n", c.Name, c.SpiritRoot, c.Realm)
		return nil
	}},
	"status": {1, func(ctx context.Context, a *app.App, args []string, w io.Writer) error {
		st, err := a.Service.Status(ctx, args[0])
		if err != nil {
			return err
		}
		renderStatus(w, st)
		return nil
	}},
	"fight": {2, func(ctx context.Context, a *app.App, args []string, w io.Writer) error {
		res, err := a.Service.StartCombat(ctx, args[0], args[1])
		return printCombat(w, res, err)
	}},
	"attack": {1, func(ctx context.Context, a *app.App, args []string, w io.Writer) error {
		res, err := a.Service.Attack(ctx, args[0])
		return printCombat(w, res, err)
	}},
	"flee": {1, func(ctx context.Context, a *app.App, args []string, w io.Writer) error {
		res, err := a.Service.Flee(ctx, args[0])
		return printCombat(w, res, err)
	}},
	"breakthrough": {1, func(ctx context.Context, a *app.App, args []string, w io.Writer) error {
		res, err := a.Service.Breakthrough(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, res.Message)
		return nil
	}},
	"monsters": {0, func(_ context.Context, a *app.App, _ []string, w io.Writer) error {
		for _, id := range a.Registry.MonsterIDs() {
			m, _ := a.Registry.Monster(id)
			level := "随修为"
			if m.Level != nil {
				level = fmt.Sprintf("等级%d", *m.Level)
			}
			fmt.Fprintf(w, "%-16s %s (%s)\n", id, m.Name, level)
		}
		return nil
	}},
	"roots": {0, func(_ context.Context, a *app.App, _ []string, w io.Writer) error {
		for _, name := range a.Registry.SpiritRootNames() {
			fmt.Fprintf(w, "%s ×%.1f\n", name, a.Registry.SpiritRootEfficiency(name))
		}
		return nil
	}},
}

// run dispatches one command line.
func run(ctx context.Context, a *app.App, args []string, w io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	if len(args)-1 != cmd.args {
		return fmt.Errorf("%w: %s takes %d argument(s), got %d", errUsage, args[0], cmd.args, len(args)-1)
	}
	return cmd.run(ctx, a, args[1:], w)
}

func printCombat(w io.Writer, res *combat.Result, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(w, res.Message)
	return nil
}

// describeError turns known failures into player-facing text.
func describeError(err error) string {
	switch {
	case errors.Is(err, errUsage):
		return err.Error() + " (run with -h for help)"
	case errors.Is(err, storage.ErrCharacterNotFound):
		return "找不到该角色。"
	case errors.Is(err, storage.ErrCharacterNameTaken):
		return "该道号已被占用。"
	case errors.Is(err, gameserver.ErrUnknownSpiritRoot):
		return "未知的灵根。"
	case errors.Is(err, monster.ErrTemplateNotFound):
		return "未知的妖兽。"
	case errors.Is(err, combat.ErrAlreadyInCombat):
		return "你正在战斗中！"
	case errors.Is(err, combat.ErrNotInCombat):
		return "你当前不在战斗中。"
	case errors.Is(err, combat.ErrWrongTurn):
		return "还未轮到你行动。"
	case errors.Is(err, combat.ErrStateCorrupt):
		return "战斗状态异常。"
	case errors.Is(err, realm.ErrNotEligible):
		return "修为不足，尚无法突破。"
	case errors.Is(err, realm.ErrInsufficientSpiritStones):
		return "灵石不足，无法突破。"
	case errors.Is(err, realm.ErrMissingItem):
		return "缺少突破所需的物品。"
	default:
		return err.Error()
	}
}
