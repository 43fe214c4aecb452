// Package main is the entry point of the LearnQuest ledger API.
//
// The service owns the progression ledger (XP, points, levels and streaks),
// the reward economy and the per-user activity log. Every state change runs
// in one per-user transaction; events are published after commit.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/learnquest/ledger/config"
	"github.com/learnquest/ledger/internal/application/command"
	"github.com/learnquest/ledger/internal/application/query"
	"github.com/learnquest/ledger/internal/domain/activity"
	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/internal/infrastructure/messaging"
	redisstore "github.com/learnquest/ledger/internal/infrastructure/persistence/redis"
	"github.com/learnquest/ledger/internal/infrastructure/persistence/seed"
	httpserver "github.com/learnquest/ledger/internal/interface/http"
	"github.com/learnquest/ledger/internal/interface/http/handlers"
	"github.com/learnquest/ledger/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION & LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := newLogger(cfg)
	log.Info("starting LearnQuest ledger",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("storage", cfg.Storage.Driver),
	)
	for _, f := range cfg.Features.All() {
		log.Debug("feature flag", logger.String("name", f.Name), logger.Bool("enabled", f.Enabled), logger.Bool("from_env", f.FromEnv))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var cache *redisstore.Cache
	if !cfg.Redis.Disabled {
		cache, err = openRedis(cfg)
		if err != nil {
			log.Warn("failed to connect to Redis, continuing without it", logger.Err(err))
		} else {
			defer cache.Close()
			log.Info("Redis connection established", logger.String("addr", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)))
		}
	}

	catalogRepo := st.catalog
	var catalogCache *redisstore.CatalogCache
	if cache != nil && cfg.Features.Enabled(config.FeatureCatalogCache) {
		catalogCache = redisstore.NewCatalogCache(st.catalog, cache, log)
		catalogRepo = catalogCache
		log.Info("catalog read-through cache enabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. CATALOG SEED (optional)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Features.Enabled(config.FeatureCatalogSeed) {
		sum, loaded, err := seed.LoadIfEmpty(ctx, st.catalog, st.writer, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
		if loaded {
			log.Info("demo catalog loaded", logger.Int("entries", sum.Total()))
			if catalogCache != nil {
				if err := catalogCache.Invalidate(ctx); err != nil {
					log.Warn("failed to invalidate catalog cache", logger.Err(err))
				}
			}
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	bus, closeBus, err := openEventBus(ctx, cfg, cache, log)
	if err != nil {
		return err
	}
	defer closeBus()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. LEDGER & APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	policy, err := levelPolicy(cfg.Ledger)
	if err != nil {
		return err
	}

	clock := shared.SystemClock{}
	ledger := progress.NewLedger(progress.LedgerConfig{
		Policy:         policy,
		StreakLocation: cfg.Ledger.StreakLocation,
		TrackStreak:    cfg.Features.Enabled(config.FeatureStreaks),
	}, clock)
	recorder := activity.NewRecorder(st.progress, clock, uuid.NewString, cfg.Ledger.ActivityPageLimit)

	deps := command.Deps{
		Repo:      st.progress,
		Catalog:   catalogRepo,
		Ledger:    ledger,
		Recorder:  recorder,
		Publisher: bus,
		Clock:     clock,
		NewID:     uuid.NewString,
		Logger:    log.With(logger.Component("command")),
	}

	httpDeps := httpserver.Dependencies{
		RegisterUser:            command.NewRegisterUserHandler(deps, cfg.Ledger.BcryptCost),
		StartChallenge:          command.NewStartChallengeHandler(deps),
		UpdateChallengeProgress: command.NewUpdateChallengeProgressHandler(deps),
		CompleteChallenge:       command.NewCompleteChallengeHandler(deps),
		RedeemReward:            command.NewRedeemRewardHandler(deps),
		SubmitAnswer:            command.NewSubmitAnswerHandler(deps),
		UnlockAchievement:       command.NewUnlockAchievementHandler(deps),
		Dashboard:               query.NewGetDashboardHandler(st.progress, st.users, policy, cfg.Ledger.RecentAchievements),
		ActivityLog:             query.NewGetActivityLogHandler(recorder),
		UserProgress:            query.NewUserProgressHandler(st.progress),
		Catalog:                 query.NewCatalogHandler(catalogRepo),
		HealthChecker:           healthChecker(cfg, st, cache),
		Logger:                  log,
	}
	if cfg.Features.Enabled(config.FeaturePenalties) {
		httpDeps.ApplyPenalty = command.NewApplyPenaltyHandler(deps)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.DefaultActivityLimit = cfg.Ledger.ActivityPageLimit
	httpConfig.Version = cfg.App.Version
	if cfg.HTTP.AdminAPIKey != "" {
		httpConfig.APIKeys = []string{cfg.HTTP.AdminAPIKey}
	} else {
		log.Warn("ADMIN_API_KEY not set, administrative routes disabled")
	}

	httpServer := httpserver.NewServer(httpConfig, httpDeps)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("LearnQuest ledger is running", logger.String("http_address", httpServer.Address()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	case <-ctx.Done():
	}

	log.Info("starting graceful shutdown", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown complete")
	return nil
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Options{
		Output:    os.Stdout,
		Format:    logger.ParseFormat(cfg.Observability.LogFormat),
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	}).With(logger.String("service", cfg.App.Name))
}

func levelPolicy(cfg config.LedgerConfig) (progress.LevelPolicy, error) {
	if cfg.LevelPolicy == config.PolicyThreshold {
		p, err := progress.NewThresholdLevelPolicy(cfg.LevelThresholds)
		if err != nil {
			return nil, fmt.Errorf("invalid level thresholds: %w", err)
		}
		return p, nil
	}
	return progress.NewLinearLevelPolicy(cfg.XPPerLevel), nil
}

func healthChecker(cfg *config.Config, st *storage, cache *redisstore.Cache) handlers.HealthChecker {
	checker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	checker.AddCheck(cfg.Storage.Driver, handlers.NewPingCheck(st.pinger))
	if cache != nil {
		checker.AddOptionalCheck("redis", handlers.NewPingCheck(cache))
	}
	return checker
}

// openEventBus picks the publisher: none, in-process, or Redis-mirrored.
// The returned func drains and closes the bus.
func openEventBus(ctx context.Context, cfg *config.Config, cache *redisstore.Cache, log *logger.Logger) (shared.EventPublisher, func(), error) {
	if !cfg.Features.Enabled(config.FeatureEventsPublish) {
		log.Info("event publishing disabled")
		return shared.NopPublisher{}, func() {}, nil
	}

	local := messaging.DefaultInMemoryEventBusConfig()
	local.Logger = log

	trace := func(ev shared.Event) error {
		log.Debug("domain event",
			logger.String("event_type", string(ev.EventType())),
			logger.String("aggregate_id", ev.AggregateID()))
		return nil
	}

	if cache != nil && cfg.Features.Enabled(config.FeatureEventsRedis) {
		bus, err := messaging.NewRedisEventBus(ctx, messaging.RedisEventBusConfig{
			Client: messaging.NewRedisPubSub(cache),
			Local:  local,
			Logger: log,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start redis event bus: %w", err)
		}
		if err := bus.SubscribeAll(trace); err != nil {
			return nil, nil, err
		}
		log.Info("publishing events to Redis pub/sub")
		return bus, func() {
			bus.Drain()
			_ = bus.Close()
		}, nil
	}

	bus := messaging.NewInMemoryEventBus(local)
	if err := bus.SubscribeAll(trace); err != nil {
		return nil, nil, err
	}
	return bus, func() {
		bus.Drain()
		_ = bus.Close()
	}, nil
}
