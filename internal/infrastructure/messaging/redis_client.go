package messaging

import (
	"context"

	redisstore "github.com/learnquest/ledger/internal/infrastructure/persistence/redis"
)

// redisPubSub adapts a redisstore.Cache to PubSub.
type redisPubSub struct {
	cache *redisstore.Cache
}

// NewRedisPubSub returns a PubSub backed by the given cache connection.
func NewRedisPubSub(cache *redisstore.Cache) PubSub {
	return &redisPubSub{cache: cache}
}

func (r *redisPubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	return r.cache.Publish(ctx, channel, payload)
}

// Subscribe waits for the subscription to be confirmed before returning.
func (r *redisPubSub) Subscribe(ctx context.Context, pattern string) (<-chan RedisMessage, func() error, error) {
	ps := r.cache.PSubscribe(ctx, pattern)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, nil, err
	}

	in := ps.Channel()
	out := make(chan RedisMessage)
	go func() {
		defer close(out)
		for msg := range in {
			select {
			case out <- RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, ps.Close, nil
}
