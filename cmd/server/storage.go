package main

import (
	"context"
	"fmt"
	"time"

	"github.com/learnquest/ledger/config"
	"github.com/learnquest/ledger/internal/domain/catalog"
	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/user"
	"github.com/learnquest/ledger/internal/infrastructure/persistence/memory"
	"github.com/learnquest/ledger/internal/infrastructure/persistence/postgres"
	redisstore "github.com/learnquest/ledger/internal/infrastructure/persistence/redis"
	"github.com/learnquest/ledger/internal/interface/http/handlers"
	"github.com/learnquest/ledger/pkg/logger"
	"github.com/learnquest/ledger/pkg/retry"
)

// storage groups the ports a single backing store provides.
type storage struct {
	progress progress.Repository
	users    user.Repository
	catalog  catalog.Repository
	writer   catalog.Writer
	pinger   handlers.Pinger
	close    func()
}

func (s *storage) Close() {
	if s.close != nil {
		s.close()
	}
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver != config.DriverPostgres {
		log.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &storage{progress: store, users: store, catalog: store, writer: store, pinger: store}, nil
	}

	log.Info("connecting to database...")
	conn, err := connectPostgres(ctx, cfg.Database.URL, postgres.PoolLimits{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connection established")

	if cfg.Database.AutoMigrate {
		if err := migrate(ctx, conn, log); err != nil {
			conn.Close()
			return nil, err
		}
	}

	store := postgres.NewStore(conn, log)
	return &storage{
		progress: store,
		users:    store,
		catalog:  store,
		writer:   store,
		pinger:   store,
		close: func() {
			log.Info("closing database connection...")
			conn.Close()
		},
	}, nil
}

// connectPostgres keeps dialing while the database is still starting.
func connectPostgres(ctx context.Context, url string, limits postgres.PoolLimits, log *logger.Logger) (*postgres.Connection, error) {
	r := retry.StartupRetrier(func(attempt int, err error, delay time.Duration) {
		log.Warn("database not reachable yet",
			logger.Int("attempt", attempt), logger.Duration("retry_in", delay), logger.Err(err))
	})
	return retry.DoWithData(ctx, r, func(ctx context.Context) (*postgres.Connection, error) {
		return postgres.NewConnectionFromURL(ctx, url, limits)
	})
}

func migrate(ctx context.Context, conn *postgres.Connection, log *logger.Logger) error {
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(conn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		log.Warn("failed to get migration status", logger.Err(err))
		return nil
	}
	applied := 0
	for _, m := range status {
		if m.IsApplied {
			applied++
		}
	}
	log.Info("migrations completed", logger.Int("applied", applied), logger.Int("total", len(status)))
	return nil
}

func openRedis(cfg *config.Config) (*redisstore.Cache, error) {
	rc := redisstore.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout
	return redisstore.NewCache(rc)
}
