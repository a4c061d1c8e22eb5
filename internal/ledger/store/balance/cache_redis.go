package balance

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	id "rightsledger/pkg/domain"
	"rightsledger/pkg/platform/circuit"
)

// cacheTTL bounds staleness if an invalidation is ever lost.
const cacheTTL = 5 * time.Minute

// Store is the balance interface the cache wraps.
type Store interface {
	Add(ctx context.Context, tokenID id.TokenID, holder id.Address, amount uint64) error
	Sub(ctx context.Context, tokenID id.TokenID, holder id.Address, amount uint64) error
	Get(ctx context.Context, tokenID id.TokenID, holder id.Address) (uint64, error)
}

// RedisCache is a read-through cache in front of a balance store. The
// access-control gateway polls BalanceOf on every document access, which
// makes Get by far the hottest path; mutations pass through and invalidate.
//
// Redis is an optional dependency: a circuit breaker routes reads straight
// to the inner store while redis is unhealthy, so cache outages degrade
// latency rather than availability.
type RedisCache struct {
	inner   Store
	client  *redis.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type CacheOption func(*RedisCache)

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *RedisCache) {
		c.logger = logger
	}
}

func NewRedisCache(inner Store, client *redis.Client, opts ...CacheOption) *RedisCache {
	c := &RedisCache{
		inner:  inner,
		client: client,
		breaker: circuit.New("balance-cache",
			circuit.WithFailureThreshold(3),
			circuit.WithSuccessThreshold(2),
		),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cacheKey(tokenID id.TokenID, holder id.Address) string {
	return fmt.Sprintf("ledger:balance:%d:%s", uint64(tokenID), holder)
}

func (c *RedisCache) Add(ctx context.Context, tokenID id.TokenID, holder id.Address, amount uint64) error {
	if err := c.inner.Add(ctx, tokenID, holder, amount); err != nil {
		return err
	}
	c.invalidate(ctx, tokenID, holder)
	return nil
}

func (c *RedisCache) Sub(ctx context.Context, tokenID id.TokenID, holder id.Address, amount uint64) error {
	if err := c.inner.Sub(ctx, tokenID, holder, amount); err != nil {
		return err
	}
	c.invalidate(ctx, tokenID, holder)
	return nil
}

func (c *RedisCache) Get(ctx context.Context, tokenID id.TokenID, holder id.Address) (uint64, error) {
	key := cacheKey(tokenID, holder)
	if !c.breaker.IsOpen() {
		val, err := c.client.Get(ctx, key).Result()
		switch {
		case err == nil:
			c.recordSuccess(ctx)
			if amount, parseErr := strconv.ParseUint(val, 10, 64); parseErr == nil {
				return amount, nil
			}
		case err == redis.Nil:
			c.recordSuccess(ctx)
		default:
			c.recordFailure(ctx, err)
		}
	}

	amount, err := c.inner.Get(ctx, tokenID, holder)
	if err != nil {
		return 0, err
	}
	if !c.breaker.IsOpen() {
		// Best-effort populate; a failed cache write must not fail the read.
		if setErr := c.client.Set(ctx, key, strconv.FormatUint(amount, 10), cacheTTL).Err(); setErr != nil {
			c.recordFailure(ctx, setErr)
		}
	}
	return amount, nil
}

func (c *RedisCache) invalidate(ctx context.Context, tokenID id.TokenID, holder id.Address) {
	if c.breaker.IsOpen() {
		// Probe with the invalidation itself so the breaker can close again.
		if err := c.client.Del(ctx, cacheKey(tokenID, holder)).Err(); err == nil {
			c.recordSuccess(ctx)
		}
		return
	}
	if err := c.client.Del(ctx, cacheKey(tokenID, holder)).Err(); err != nil {
		c.recordFailure(ctx, err)
		return
	}
	c.recordSuccess(ctx)
}

func (c *RedisCache) recordFailure(ctx context.Context, err error) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "balance cache circuit opened, bypassing redis",
			"breaker", c.breaker.Name(),
			"error", err,
		)
	}
}

func (c *RedisCache) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "balance cache circuit closed, redis restored",
			"breaker", c.breaker.Name(),
		)
	}
}
