package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tokonova/tokonova/infrastructure/service/logger"
)

// LoginLimiter throttles credential attempts per client IP. Like the cache
// layer it is additive-only: a missing or unreachable backend means requests
// are allowed, never blocked.
type LoginLimiter interface {
	Allow(ctx context.Context, ip string) bool
	RecordFailure(ctx context.Context, ip string)
	Reset(ctx context.Context, ip string)
}

type Config struct {
	Enabled        bool
	RedisURL       string
	MaxAttempts    int
	Window         time.Duration
	ConnectTimeout time.Duration
}

type redisLimiter struct {
	cfg    Config
	logger logger.Logger

	once   sync.Once
	client *redis.Client
}

func NewLoginLimiter(cfg Config, log logger.Logger) LoginLimiter {
	if !cfg.Enabled {
		return &noopLimiter{}
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 3 * time.Second
	}
	return &redisLimiter{cfg: cfg, logger: log}
}

func (l *redisLimiter) backend(ctx context.Context) *redis.Client {
	l.once.Do(func() {
		opt, err := redis.ParseURL(l.cfg.RedisURL)
		if err != nil {
			l.logger.Warn(ctx, "Invalid rate limit backend URL, limiter disabled", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}

		client := redis.NewClient(opt)
		pingCtx, cancel := context.WithTimeout(context.Background(), l.cfg.ConnectTimeout)
		defer cancel()

		if err := client.Ping(pingCtx).Err(); err != nil {
			l.logger.Warn(ctx, "Rate limit backend unavailable, limiter disabled", map[string]interface{}{
				"error": err.Error(),
			})
			_ = client.Close()
			return
		}
		l.client = client
	})
	return l.client
}

func (l *redisLimiter) Allow(ctx context.Context, ip string) bool {
	client := l.backend(ctx)
	if client == nil {
		return true
	}

	count, err := client.Get(ctx, loginKey(ip)).Int()
	if err != nil {
		return true
	}
	return count < l.cfg.MaxAttempts
}

func (l *redisLimiter) RecordFailure(ctx context.Context, ip string) {
	client := l.backend(ctx)
	if client == nil {
		return
	}

	pipe := client.Pipeline()
	pipe.Incr(ctx, loginKey(ip))
	pipe.Expire(ctx, loginKey(ip), l.cfg.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Debug(ctx, "Failed to record login failure", map[string]interface{}{
			"ip":    ip,
			"error": err.Error(),
		})
	}
}

func (l *redisLimiter) Reset(ctx context.Context, ip string) {
	client := l.backend(ctx)
	if client == nil {
		return
	}
	client.Del(ctx, loginKey(ip))
}

func loginKey(ip string) string {
	return fmt.Sprintf("tokonova:ratelimit:login:ip:%s", ip)
}

type noopLimiter struct{}

func (n *noopLimiter) Allow(ctx context.Context, ip string) bool { return true }
func (n *noopLimiter) RecordFailure(ctx context.Context, ip string) {}
func (n *noopLimiter) Reset(ctx context.Context, ip string) {}
