package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/learnquest/ledger/internal/domain/catalog"
	"github.com/learnquest/ledger/pkg/circuitbreaker"
	"github.com/learnquest/ledger/pkg/logger"
)

// store is the subset of *Cache the catalog cache needs.
type store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CatalogCache is a read-through decorator over catalog.Repository.
// Cache failures degrade to direct reads; missing entries are never cached.
// After repeated failures the breaker opens and Redis is skipped entirely
// until a trial call succeeds.
type CatalogCache struct {
	next    catalog.Repository
	cache   store
	breaker *circuitbreaker.CircuitBreaker
	log     *logger.Logger
}

var _ catalog.Repository = (*CatalogCache)(nil)

// NewCatalogCache wraps next. cache is usually a *Cache.
func NewCatalogCache(next catalog.Repository, cache store, log *logger.Logger) *CatalogCache {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("catalog_cache"))
	breaker := circuitbreaker.CacheBreaker("catalog-cache",
		func(err error) bool { return !errors.Is(err, ErrCacheMiss) },
		func(name string, from, to circuitbreaker.State) {
			log.Warn("cache breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	)
	return &CatalogCache{next: next, cache: cache, breaker: breaker, log: log}
}

// BreakerState reports whether Redis is currently being bypassed.
func (c *CatalogCache) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}

func (c *CatalogCache) GetChallenge(ctx context.Context, id string) (*catalog.Challenge, error) {
	return readThrough(ctx, c, CatalogKey("challenge", id), TTLCatalogEntry, func(ctx context.Context) (*catalog.Challenge, error) {
		return c.next.GetChallenge(ctx, id)
	})
}

func (c *CatalogCache) GetReward(ctx context.Context, id string) (*catalog.Reward, error) {
	return readThrough(ctx, c, CatalogKey("reward", id), TTLCatalogEntry, func(ctx context.Context) (*catalog.Reward, error) {
		return c.next.GetReward(ctx, id)
	})
}

func (c *CatalogCache) GetAchievement(ctx context.Context, id string) (*catalog.Achievement, error) {
	return readThrough(ctx, c, CatalogKey("achievement", id), TTLCatalogEntry, func(ctx context.Context) (*catalog.Achievement, error) {
		return c.next.GetAchievement(ctx, id)
	})
}

func (c *CatalogCache) GetQuestion(ctx context.Context, id string) (*catalog.Question, error) {
	return readThrough(ctx, c, CatalogKey("question", id), TTLCatalogEntry, func(ctx context.Context) (*catalog.Question, error) {
		return c.next.GetQuestion(ctx, id)
	})
}

func (c *CatalogCache) ListActiveChallenges(ctx context.Context) ([]*catalog.Challenge, error) {
	return readThrough(ctx, c, CatalogListKey("challenges"), TTLCatalogListing, c.next.ListActiveChallenges)
}

func (c *CatalogCache) ListActiveRewards(ctx context.Context) ([]*catalog.Reward, error) {
	return readThrough(ctx, c, CatalogListKey("rewards"), TTLCatalogListing, c.next.ListActiveRewards)
}

func (c *CatalogCache) ListAchievements(ctx context.Context) ([]*catalog.Achievement, error) {
	return readThrough(ctx, c, CatalogListKey("achievements"), TTLCatalogListing, c.next.ListAchievements)
}

func (c *CatalogCache) ListQuestionsBySubject(ctx context.Context, subject string) ([]*catalog.Question, error) {
	key := CatalogListKey("questions:" + strings.ToLower(strings.TrimSpace(subject)))
	return readThrough(ctx, c, key, TTLCatalogListing, func(ctx context.Context) ([]*catalog.Question, error) {
		return c.next.ListQuestionsBySubject(ctx, subject)
	})
}

// Invalidate drops every cached catalog key. Call it after seeding or editing
// the catalog through a catalog.Writer.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	return c.cache.DeleteByPattern(ctx, PrefixCatalog+"*")
}

func readThrough[T any](ctx context.Context, c *CatalogCache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.cache.Get(ctx, key, &cached)
	})
	if err == nil {
		return cached, nil
	}
	bypass := circuitbreaker.IsRejected(err)
	if !bypass && !errors.Is(err, ErrCacheMiss) {
		c.log.Warn("cache read failed", logger.String("key", key), logger.Err(err))
	}

	value, err := load(ctx)
	if err != nil || bypass {
		return value, err
	}

	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.cache.Set(ctx, key, value, ttl)
	})
	if err != nil && !circuitbreaker.IsRejected(err) {
		c.log.Warn("cache write failed", logger.String("key", key), logger.Err(err))
	}
	return value, nil
}
