// Package app is the composition root: it turns a validated Config into a
// ready gameserver.Service and the cleanup that releases its resources.
package app

import (
	"context"
	"fmt"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/cultivation/internal/config"
	"github.com/cory-johannsen/cultivation/internal/game/character"
	"github.com/cory-johannsen/cultivation/internal/game/combat"
	"github.com/cory-johannsen/cultivation/internal/game/content"
	"github.com/cory-johannsen/cultivation/internal/game/dice"
	"github.com/cory-johannsen/cultivation/internal/game/monster"
	"github.com/cory-johannsen/cultivation/internal/game/realm"
	"github.com/cory-johannsen/cultivation/internal/gameserver"
	"github.com/cory-johannsen/cultivation/internal/narrate"
	"github.com/cory-johannsen/cultivation/internal/observability"
	"github.com/cory-johannsen/cultivation/internal/storage/postgres"
	"github.com/cory-johannsen/cultivation/internal/storage/sqlite"
)

// App holds the long-lived components a command needs.
type App struct {
	Logger   *zap.Logger
	Registry *content.Registry
	Service  *gameserver.Service
}

// ProviderSet builds an App from a context and a Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideSource,
	ProvideRoller,
	ProvideGenerator,
	ProvideNarrator,
	ProvideEngine,
	ProvideResolver,
	ProvideStore,
	ProvideService,
	wire.Struct(new(App), "*"),
)

// ProvideLogger builds the process logger.
func ProvideLogger(cfg config.Config) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideRegistry loads every catalog under cfg.Content.Dir.
func ProvideRegistry(cfg config.Config, logger *zap.Logger) (*content.Registry, error) {
	reg := content.NewRegistry()
	if err := reg.Load(cfg.Content.Dir); err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}
	logger.Info("content loaded",
		zap.String("dir", cfg.Content.Dir),
		zap.Int("monsters", len(reg.MonsterIDs())),
		zap.Uint64("version", reg.Version()),
	)
	return reg, nil
}

// ProvideSource returns a seeded source when cfg.Random.Seed is set and the
// crypto source otherwise.
func ProvideSource(cfg config.Config) dice.Source {
	if cfg.Random.Seed != 0 {
		return dice.NewSeededSource(cfg.Random.Seed)
	}
	return dice.NewCryptoSource()
}

// ProvideRoller wraps src with debug roll logging.
func ProvideRoller(src dice.Source, logger *zap.Logger) *dice.Roller {
	return dice.NewLoggedRoller(src, logger)
}

// ProvideGenerator builds the monster generator over the registry.
func ProvideGenerator(reg *content.Registry, roller *dice.Roller, logger *zap.Logger) *monster.Generator {
	return monster.NewGenerator(reg, roller, logger)
}

// ProvideNarrator builds the configured narrator.
func ProvideNarrator(ctx context.Context, cfg config.Config, logger *zap.Logger) (narrate.Narrator, func(), error) {
	return narrate.New(ctx, cfg.Narrator, logger)
}

// ProvideEngine builds the combat engine with the configured base rates.
func ProvideEngine(gen *monster.Generator, roller *dice.Roller, n narrate.Narrator, cfg config.Config, logger *zap.Logger) *combat.Engine {
	settings := combat.Settings{
		BaseDodgeRate: cfg.Combat.BaseDodgeRate,
		BaseFleeRate:  cfg.Combat.BaseFleeRate,
	}
	return combat.NewEngine(gen, roller, n, character.DefaultLeveler, settings, logger)
}

// ProvideResolver builds the breakthrough resolver.
func ProvideResolver(reg *content.Registry, roller *dice.Roller, n narrate.Narrator, logger *zap.Logger) *realm.Resolver {
	return realm.NewResolver(reg, roller, n, logger)
}

// ProvideStore opens the character store selected by cfg.Storage.Driver.
//
// Postcondition: The returned cleanup closes the store.
func ProvideStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (gameserver.CharacterStore, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		repo, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		logger.Info("sqlite store ready", zap.String("path", cfg.Storage.SQLitePath))
		return repo, func() {
			if err := repo.Close(); err != nil {
				logger.Warn("closing sqlite store", zap.Error(err))
			}
		}, nil
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := pool.CheckSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
		)
		return pool.Characters(), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// ProvideService assembles the gameserver.
func ProvideService(store gameserver.CharacterStore, eng *combat.Engine, res *realm.Resolver, reg *content.Registry, logger *zap.Logger) *gameserver.Service {
	return gameserver.NewService(store, eng, res, reg, logger)
}
