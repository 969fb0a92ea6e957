// Package narrate produces the flavor text attached to encounters, attacks,
// tribulations, and breakthroughs. Narration never influences a numeric
// outcome: every failure falls back to canned text.
package narrate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Kind identifies what is being narrated.
type Kind string

const (
	KindEncounter    Kind = "encounter"
	KindAttack       Kind = "attack"
	KindTribulation  Kind = "tribulation"
	KindBreakthrough Kind = "breakthrough"
)

// Event carries the facts a narration is about. Only the fields relevant to
// Kind are read.
type Event struct {
	Kind      Kind
	Character string
	Location  string
	Monster   string
	Damage    int
	Critical  bool
	FromRealm string
	ToRealm   string
	// Tribulation is the name of the tribulation being faced.
	Tribulation string
	Success     bool
}

// Narrator turns an Event into prose.
type Narrator interface {
	Narrate(ctx context.Context, ev Event) (string, error)
}

// Canned is a Narrator that never fails and never leaves the process.
type Canned struct{}

// Narrate returns the fixed description for ev.
func (Canned) Narrate(_ context.Context, ev Event) (string, error) {
	return cannedText(ev), nil
}

func cannedText(ev Event) string {
	switch ev.Kind {
	case KindEncounter:
		return fmt.Sprintf("%s在%s四处探索，忽然一道身影拦住了去路——%s！", ev.Character, ev.Location, ev.Monster)
	case KindAttack:
		if ev.Critical {
			return fmt.Sprintf("%s抓住破绽，全力一击正中%s要害！", ev.Character, ev.Monster)
		}
		return fmt.Sprintf("%s运转真元，向%s发起攻击。", ev.Character, ev.Monster)
	case KindTribulation:
		if ev.Success {
			return fmt.Sprintf("乌云密布，雷声阵阵。%s毫不畏惧，直面天劫。经过一番惊心动魄的较量，终于成功渡过%s！", ev.Character, ev.Tribulation)
		}
		return fmt.Sprintf("%s威力超出预期，%s虽全力应对，但终究功力不足，渡劫失败。好在性命无虞，来日可期。", ev.Tribulation, ev.Character)
	case KindBreakthrough:
		if ev.Success {
			return fmt.Sprintf("%s盘坐修炼，突然间天地灵气疯狂涌入体内。经过一番苦战，终于冲破了境界桎梏，从%s成功突破至%s！", ev.Character, ev.FromRealm, ev.ToRealm)
		}
		return fmt.Sprintf("%s尝试冲击更高境界，但在关键时刻功力不继，突破失败。虽有遗憾，但此次经历让你对%s的门槛有了更深理解。", ev.Character, ev.ToRealm)
	default:
		return ""
	}
}

// Describe asks n to narrate ev and falls back to canned text when n is nil,
// fails, or returns nothing.
//
// Postcondition: Never returns an error; failures are logged at warn.
func Describe(ctx context.Context, n Narrator, logger *zap.Logger, ev Event) string {
	if n == nil {
		return cannedText(ev)
	}
	text, err := n.Narrate(ctx, ev)
	if err != nil {
		logger.Warn("narration failed, using canned text",
			zap.String("kind", string(ev.Kind)),
			zap.Error(err),
		)
		return cannedText(ev)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		logger.Warn("narration empty, using canned text", zap.String("kind", string(ev.Kind)))
		return cannedText(ev)
	}
	return text
}
