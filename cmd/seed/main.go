// Package main loads the demo catalog (challenges, rewards, achievements and
// quiz questions) into the configured PostgreSQL database.
//
// Entries carry stable IDs, so running the tool twice updates rows in place
// instead of duplicating them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/learnquest/ledger/config"
	"github.com/learnquest/ledger/internal/infrastructure/persistence/postgres"
	redisstore "github.com/learnquest/ledger/internal/infrastructure/persistence/redis"
	"github.com/learnquest/ledger/internal/infrastructure/persistence/seed"
	"github.com/learnquest/ledger/pkg/logger"
	"github.com/learnquest/ledger/pkg/retry"
)

func main() {
	var (
		ifEmpty   bool
		noMigrate bool
		verbose   bool
	)
	flag.BoolVar(&ifEmpty, "if-empty", false, "skip loading when the catalog already has entries")
	flag.BoolVar(&noMigrate, "no-migrate", false, "do not apply pending migrations first")
	flag.BoolVar(&verbose, "v", false, "verbose output")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx, ifEmpty, !noMigrate, verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, ifEmpty, migrate, verbose bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Storage.Driver != config.DriverPostgres {
		return errors.New("seeding requires STORAGE_DRIVER=postgres; the in-memory store seeds itself via FEATURE_CATALOG_SEED_ON_START")
	}

	level := logger.LevelInfo
	if verbose {
		level = logger.LevelDebug
	}
	log := logger.New(logger.Options{
		Output: os.Stdout,
		Format: logger.ParseFormat(cfg.Observability.LogFormat),
		Level:  level,
	}).With(logger.Component("seed"))

	r := retry.StartupRetrier(func(attempt int, err error, delay time.Duration) {
		log.Warn("database not reachable yet", logger.Int("attempt", attempt), logger.Err(err))
	})
	conn, err := retry.DoWithData(ctx, r, func(ctx context.Context) (*postgres.Connection, error) {
		return postgres.NewConnectionFromURL(ctx, cfg.Database.URL, postgres.PoolLimits{MaxConns: 2, MinConns: 1})
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	if migrate {
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Debug("migrations applied")
	}

	store := postgres.NewStore(conn, log)
	now := time.Now().UTC()

	var sum seed.Summary
	if ifEmpty {
		var loaded bool
		sum, loaded, err = seed.LoadIfEmpty(ctx, store, store, now)
		if err != nil {
			return err
		}
		if !loaded {
			log.Info("catalog already populated, nothing to do")
			return nil
		}
	} else {
		sum, err = seed.Load(ctx, store, now)
		if err != nil {
			return err
		}
	}

	log.Info("catalog seeded",
		logger.Int("challenges", sum.Challenges),
		logger.Int("rewards", sum.Rewards),
		logger.Int("achievements", sum.Achievements),
		logger.Int("questions", sum.Questions),
	)

	invalidateCache(ctx, cfg, store, log)
	return nil
}

// invalidateCache drops cached catalog reads so running servers pick up the
// new rows. A missing Redis is not an error here.
func invalidateCache(ctx context.Context, cfg *config.Config, store *postgres.Store, log *logger.Logger) {
	if cfg.Redis.Disabled {
		return
	}
	rc := redisstore.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.DialTimeout = cfg.Redis.DialTimeout

	cache, err := redisstore.NewCache(rc)
	if err != nil {
		log.Warn("redis unavailable, catalog cache left as is", logger.Err(err))
		return
	}
	defer cache.Close()

	if err := redisstore.NewCatalogCache(store, cache, log).Invalidate(ctx); err != nil {
		log.Warn("failed to invalidate catalog cache", logger.Err(err))
		return
	}
	log.Debug("catalog cache invalidated")
}
