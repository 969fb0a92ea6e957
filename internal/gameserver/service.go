// Package gameserver runs one game action per request against a stored
// character: it serializes writers per character, loads the record, applies
// a single combat or breakthrough step, and saves the record only when the
// step succeeded.
package gameserver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/cultivation/internal/game/character"
	"github.com/cory-johannsen/cultivation/internal/game/combat"
	"github.com/cory-johannsen/cultivation/internal/game/content"
	"github.com/cory-johannsen/cultivation/internal/game/monster"
	"github.com/cory-johannsen/cultivation/internal/game/realm"
	"github.com/cory-johannsen/cultivation/internal/observability"
)

// ErrUnknownSpiritRoot is returned when creating a character with a spirit
// root absent from the content catalog.
var ErrUnknownSpiritRoot = errors.New("unknown spirit root")

// CharacterStore loads and saves characters. Both storage/postgres and
// storage/sqlite satisfy it.
type CharacterStore interface {
	Create(ctx context.Context, c *character.Character) (*character.Character, error)
	GetByName(ctx context.Context, name string) (*character.Character, error)
	Save(ctx context.Context, c *character.Character) error
}

// Combat runs the turn-based fight steps.
type Combat interface {
	Start(ctx context.Context, ch *character.Character, templateID string) (*combat.Result, error)
	PlayerAttack(ctx context.Context, ch *character.Character) (*combat.Result, error)
	AttemptFlee(ctx context.Context, ch *character.Character) (*combat.Result, error)
}

// Breakthrough resolves realm advancement attempts.
type Breakthrough interface {
	Attempt(ctx context.Context, ch *character.Character) (*realm.Result, error)
}

// Catalog answers the content lookups the service needs for creation and status.
type Catalog interface {
	RequirementFor(level int, realm string) (content.Requirement, bool)
	SpiritRoot(name string) (content.SpiritRoot, bool)
}

// Status is a read-only view of a character.
type Status struct {
	Character *character.Character
	Profile   character.Profile
	// Combat is nil when the character is not fighting.
	Combat *combat.State
	// MonsterCondition describes the opponent's wounds while in combat.
	MonsterCondition string
	// Next is the breakthrough currently open to the character, if any.
	Next *content.Requirement
}

// Service is the single entry point for game actions on stored characters.
// All methods are safe for concurrent use; actions on the same character
// are serialized.
type Service struct {
	store   CharacterStore
	combat  Combat
	realm   Breakthrough
	catalog Catalog
	locks   *lockTable
	logger  *zap.Logger
}

// NewService wires a Service.
//
// Precondition: every argument must be non-nil.
func NewService(store CharacterStore, fight Combat, breakthrough Breakthrough, catalog Catalog, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		combat:  fight,
		realm:   breakthrough,
		catalog: catalog,
		locks:   newLockTable(),
		logger:  logger,
	}
}

// CreateCharacter builds a new mortal with the given spirit root and stores it.
//
// Postcondition: Returns the stored character, ErrUnknownSpiritRoot, or the
// store's name-taken error.
func (s *Service) CreateCharacter(ctx context.Context, name, spiritRoot string) (*character.Character, error) {
	if _, ok := s.catalog.SpiritRoot(spiritRoot); !ok {
		return nil, fmt.Errorf("creating %q: %w: %q", name, ErrUnknownSpiritRoot, spiritRoot)
	}
	c, err := character.New(name, spiritRoot)
	if err != nil {
		return nil, fmt.Errorf("creating %q: %w", name, err)
	}

	release := s.locks.acquire(name)
	defer release()
	created, err := s.store.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("creating %q: %w", name, err)
	}
	observability.ForCharacter(s.logger, created.ID, created.Name).Info("character created",
		zap.String("spirit_root", spiritRoot),
	)
	return created, nil
}

// Status loads the named character and summarizes it.
func (s *Service) Status(ctx context.Context, name string) (*Status, error) {
	c, err := s.store.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", name, err)
	}
	st := &Status{Character: c, Profile: c.Profile()}
	if c.InCombat() {
		if cs, err := combat.Decode(c.CombatState); err == nil {
			st.Combat = &cs
			st.MonsterCondition = monster.HealthDescription(cs.MonsterHP, cs.MonsterMaxHP)
		}
	}
	if req, ok := s.catalog.RequirementFor(c.Level, c.Realm); ok {
		st.Next = &req
	}
	return st, nil
}

// StartCombat opens a fight between the named character and a monster
// generated from templateID.
func (s *Service) StartCombat(ctx context.Context, name, templateID string) (*combat.Result, error) {
	var res *combat.Result
	err := s.withCharacter(ctx, name, "start combat", func(c *character.Character) error {
		var err error
		res, err = s.combat.Start(ctx, c, templateID)
		return err
	})
	return res, err
}

// Attack runs one exchange of the named character's fight.
func (s *Service) Attack(ctx context.Context, name string) (*combat.Result, error) {
	var res *combat.Result
	err := s.withCharacter(ctx, name, "attack", func(c *character.Character) error {
		var err error
		res, err = s.combat.PlayerAttack(ctx, c)
		return err
	})
	return res, err
}

// Flee attempts to escape the named character's fight.
func (s *Service) Flee(ctx context.Context, name string) (*combat.Result, error) {
	var res *combat.Result
	err := s.withCharacter(ctx, name, "flee", func(c *character.Character) error {
		var err error
		res, err = s.combat.AttemptFlee(ctx, c)
		return err
	})
	return res, err
}

// Breakthrough attempts the named character's next realm advancement.
func (s *Service) Breakthrough(ctx context.Context, name string) (*realm.Result, error) {
	var res *realm.Result
	err := s.withCharacter(ctx, name, "breakthrough", func(c *character.Character) error {
		var err error
		res, err = s.realm.Attempt(ctx, c)
		return err
	})
	return res, err
}

// withCharacter holds the character's lock while it loads the record, runs
// step, and saves the record.
//
// Postcondition: The record is saved iff step returned nil. Step errors are
// returned wrapped with action.
func (s *Service) withCharacter(ctx context.Context, name, action string, step func(*character.Character) error) error {
	release := s.locks.acquire(name)
	defer release()

	c, err := s.store.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("%s: loading %q: %w", action, name, err)
	}
	logger := observability.ForCharacter(s.logger, c.ID, c.Name)
	if err := step(c); err != nil {
		logger.Info("action rejected", zap.String("action", action), zap.Error(err))
		return fmt.Errorf("%s: %w", action, err)
	}
	if err := s.store.Save(ctx, c); err != nil {
		logger.Error("saving character failed", zap.String("action", action), zap.Error(err))
		return fmt.Errorf("%s: saving %q: %w", action, name, err)
	}
	logger.Info("action applied",
		zap.String("action", action),
		zap.Int("level", c.Level),
		zap.String("realm", c.Realm),
		zap.Bool("in_combat", c.InCombat()),
	)
	return nil
}
