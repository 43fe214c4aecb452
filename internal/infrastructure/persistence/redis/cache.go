// Package redis holds the Redis-backed pieces of the ledger: a read-through
// cache for the catalog and the pub/sub transport used by the event bus.
// Neither is authoritative; every balance lives in the primary store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config describes how to reach Redis. cmd/server fills it from REDIS_* env.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int
	MaxRetries   int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig targets a local Redis with short timeouts.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   1,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	}
}

// Addr is "host:port".
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrCacheMiss: nothing stored under the key. Not a failure.
	ErrCacheMiss = errors.New("cache: miss")

	// ErrCacheConnection wraps a failed initial PING.
	ErrCacheConnection = errors.New("cache: redis unreachable")

	// ErrCacheEncoding wraps JSON errors in either direction.
	ErrCacheEncoding = errors.New("cache: bad payload")

	errEmptyKey = errors.New("cache: empty key")
)

// ══════════════════════════════════════════════════════════════════════════════
// KEYS AND TTLs
// ══════════════════════════════════════════════════════════════════════════════

const (
	// PrefixCatalog namespaces cached catalog entries and listings.
	PrefixCatalog = "catalog:"

	// PrefixPubSub namespaces ledger event channels.
	PrefixPubSub = "pubsub:"
)

const (
	// TTLCatalogEntry bounds how stale a cached challenge, reward,
	// achievement or question may be after an out-of-band edit.
	TTLCatalogEntry = 10 * time.Minute

	// TTLCatalogListing is shorter: listings change when anything is (de)activated.
	TTLCatalogListing = 2 * time.Minute
)

// CatalogKey builds "catalog:<kind>:<id>".
func CatalogKey(kind, id string) string {
	return PrefixCatalog + kind + ":" + id
}

// CatalogListKey builds "catalog:list:<name>".
func CatalogListKey(name string) string {
	return PrefixCatalog + "list:" + name
}

// PubSubChannel is the channel an event type is published on.
func PubSubChannel(eventType string) string {
	return PrefixPubSub + eventType
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Cache is a go-redis client storing values as JSON.
type Cache struct {
	rdb *redis.Client
}

// NewCache dials Redis and fails unless a PING succeeds within DialTimeout.
func NewCache(cfg Config) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w at %s: %v", ErrCacheConnection, cfg.Addr(), err)
	}
	return &Cache{rdb: rdb}, nil
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Ping backs the readiness check.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Set stores value as JSON. A zero ttl keeps the key until it is deleted.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if key == "" {
		return errEmptyKey
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheEncoding, err)
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

// Get decodes the value under key into dest, or returns ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	if key == "" {
		return errEmptyKey
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrCacheMiss
	case err != nil:
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCacheEncoding, key, err)
	}
	return nil
}

const scanBatch = 100

// DeleteByPattern removes every key matching a glob. It walks the keyspace
// with SCAN, so keys written meanwhile may survive.
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string) error {
	if pattern == "" {
		return errEmptyKey
	}

	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := c.rdb.Unlink(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}

	it := c.rdb.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for it.Next(ctx) {
		batch = append(batch, it.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := it.Err(); err != nil {
		return err
	}
	return flush()
}

// ══════════════════════════════════════════════════════════════════════════════
// PUB/SUB
// ══════════════════════════════════════════════════════════════════════════════

// Publish sends an encoded event to channel.
func (c *Cache) Publish(ctx context.Context, channel string, payload []byte) error {
	if channel == "" {
		return errEmptyKey
	}
	return c.rdb.Publish(ctx, channel, payload).Err()
}

// PSubscribe opens a pattern subscription; the caller closes it.
func (c *Cache) PSubscribe(ctx context.Context, patterns ...string) *redis.PubSub {
	return c.rdb.PSubscribe(ctx, patterns...)
}
