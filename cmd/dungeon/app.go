package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/loot"
	"github.com/cory-johannsen/dungeon/internal/game/mastery"
	"github.com/cory-johannsen/dungeon/internal/game/npc"
	"github.com/cory-johannsen/dungeon/internal/game/ruleset"
	"github.com/cory-johannsen/dungeon/internal/observability"
	"github.com/cory-johannsen/dungeon/internal/storage/postgres"
	"github.com/cory-johannsen/dungeon/internal/storage/redis"
)

// healthTimeout bounds the storage reachability check.
const healthTimeout = 5 * time.Second

// app holds everything a command needs, built once from the configuration.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	rules   *ruleset.Rules
	enemies *npc.Catalogue
	pools   loot.NamePools
	src     dice.Source
}

// loadConfig reads the configuration file and applies the --seed flag.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("seed") {
		seed, err := cmd.Flags().GetUint64("seed")
		if err != nil {
			return config.Config{}, err
		}
		cfg.Game.Seed = seed
	}
	return cfg, nil
}

// newApp builds the logger, loads the content tree and picks the random source.
//
// Precondition: cfg.Validate() == nil.
func newApp(cfg config.Config) (*app, error) {
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	start := time.Now()
	fsys, err := ruleset.OpenContent(cfg.Content.Dir)
	if err != nil {
		return nil, err
	}
	rules, err := ruleset.Load(fsys)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	enemies, err := npc.LoadCatalogue(fsys)
	if err != nil {
		return nil, fmt.Errorf("loading enemies: %w", err)
	}
	pools, err := loot.LoadNamePools(fsys)
	if err != nil {
		return nil, fmt.Errorf("loading item names: %w", err)
	}
	logger.Info("content loaded",
		zap.String("dir", cfg.Content.Dir),
		zap.Int("heroes", len(rules.HeroIDs())),
		zap.Int("enemies", enemies.Len()),
		zap.Int("floors", rules.FloorCount()),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		rules:   rules,
		enemies: enemies,
		pools:   pools,
		src:     newSource(cfg.Game.Seed),
	}, nil
}

func newSource(seed uint64) dice.Source {
	if seed == 0 {
		return dice.NewCryptoSource()
	}
	return dice.NewSeededSource(seed)
}

func (a *app) close() {
	_ = observability.Sync(a.logger)
}

// openStore connects the configured mastery backend. The returned func
// releases its connections.
func (a *app) openStore(ctx context.Context) (mastery.Store, func(), error) {
	s := a.cfg.Storage
	switch s.Backend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, a.cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		a.logger.Info("database connected", zap.String("host", a.cfg.Database.Host), zap.String("key", s.Key))
		return pool.Mastery(s.Key), pool.Close, nil
	case config.BackendRedis:
		client, err := redis.NewClient(a.cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if err := redis.Health(ctx, client, healthTimeout); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		a.logger.Info("redis connected", zap.String("addr", a.cfg.Redis.Addr), zap.String("key", s.Key))
		return redis.NewMasteryRepository(client, s.Key), func() { _ = client.Close() }, nil
	default:
		a.logger.Debug("using mastery file", zap.String("path", s.FilePath))
		return mastery.NewFileStore(s.FilePath), func() {}, nil
	}
}
