package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tokonova/tokonova/application/port/outbound"
	"github.com/tokonova/tokonova/infrastructure/service/logger"
)

// emptySentinel is a placeholder some writers store for "known empty".
// Reads treat it as a miss.
const emptySentinel = "{}"

type Config struct {
	RedisURL       string
	ConnectTimeout time.Duration
	DefaultTTL     time.Duration
}

// RedisCache is a best-effort cache-aside layer over an optional Redis
// backend. The connection is established lazily on first use, exactly once:
// if the backend is down at that moment it stays unavailable for the process
// lifetime and every operation degrades to a miss or no-op. The cache is
// never allowed to fail an otherwise-successful request.
type RedisCache struct {
	url            string
	connectTimeout time.Duration
	defaultTTL     time.Duration
	logger         logger.Logger

	once   sync.Once
	client *redis.Client
}

func NewRedisCache(cfg Config, log logger.Logger) *RedisCache {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 3 * time.Second
	}
	defaultTTL := cfg.DefaultTTL
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}

	return &RedisCache{
		url:            cfg.RedisURL,
		connectTimeout: connectTimeout,
		defaultTTL:     defaultTTL,
		logger:         log,
	}
}

// backend returns the Redis client, attempting the connection on first call.
// A nil return means the backend was unreachable and will not be retried.
func (c *RedisCache) backend(ctx context.Context) *redis.Client {
	c.once.Do(func() {
		opt, err := redis.ParseURL(c.url)
		if err != nil {
			c.logger.Warn(ctx, "Invalid cache URL, cache disabled", map[string]interface{}{
				"redis_url": c.url,
				"error":     err.Error(),
			})
			return
		}

		client := redis.NewClient(opt)

		pingCtx, cancel := context.WithTimeout(context.Background(), c.connectTimeout)
		defer cancel()

		if err := client.Ping(pingCtx).Err(); err != nil {
			c.logger.Warn(ctx, "Cache backend unavailable, degrading to pass-through", map[string]interface{}{
				"redis_url": c.url,
				"error":     err.Error(),
			})
			_ = client.Close()
			return
		}

		c.logger.Info(ctx, "Cache backend connected", map[string]interface{}{
			"redis_url": c.url,
		})
		c.client = client
	})

	return c.client
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) bool {
	client := c.backend(ctx)
	if client == nil {
		return false
	}

	val, err := client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug(ctx, "Cache get failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return false
	}

	if val == emptySentinel {
		return false
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		c.logger.Debug(ctx, "Cache unmarshal failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}

	return true
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) bool {
	client := c.backend(ctx)
	if client == nil {
		return false
	}

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Debug(ctx, "Cache marshal failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}

	if err := client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Debug(ctx, "Cache set failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}

	return true
}

func (c *RedisCache) Delete(ctx context.Context, key string) bool {
	client := c.backend(ctx)
	if client == nil {
		return false
	}

	if err := client.Del(ctx, key).Err(); err != nil {
		c.logger.Debug(ctx, "Cache delete failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}

	return true
}

func (c *RedisCache) ClearPattern(ctx context.Context, pattern string) bool {
	client := c.backend(ctx)
	if client == nil {
		return false
	}

	keys, err := client.Keys(ctx, pattern).Result()
	if err != nil {
		c.logger.Debug(ctx, "Cache keys scan failed", map[string]interface{}{
			"pattern": pattern,
			"error":   err.Error(),
		})
		return false
	}

	if len(keys) > 0 {
		if err := client.Del(ctx, keys...).Err(); err != nil {
			c.logger.Debug(ctx, "Cache pattern delete failed", map[string]interface{}{
				"pattern": pattern,
				"error":   err.Error(),
			})
			return false
		}
	}

	return true
}

// Memoize is the canonical cache-aside read path. fetch errors propagate to
// the caller; cache failures never do.
func (c *RedisCache) Memoize(ctx context.Context, key string, ttl time.Duration, fetch func() (interface{}, error), dest interface{}) error {
	if c.Get(ctx, key, dest) {
		return nil
	}

	value, err := fetch()
	if err != nil {
		return err
	}

	c.Set(ctx, key, value, ttl)

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// InvalidateResource clears every key derived from the resource type plus
// the homepage aggregate when the resource feeds it. List, detail and
// aggregate entries for one writable resource must go together; invalidating
// only the detail key would serve stale lists.
func (c *RedisCache) InvalidateResource(ctx context.Context, resource string) bool {
	ok := c.ClearPattern(ctx, resourcePattern(resource))

	switch resource {
	case ResourceProducts, ResourceServices:
		ok = c.Delete(ctx, HomepageKey()) && ok
	}

	return ok
}

func (c *RedisCache) HealthCheck(ctx context.Context) outbound.CacheHealth {
	client := c.backend(ctx)
	if client == nil {
		return outbound.CacheHealth{Available: false}
	}

	pingCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	start := time.Now()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return outbound.CacheHealth{Available: false}
	}

	return outbound.CacheHealth{
		Available: true,
		Latency:   time.Since(start),
	}
}
