// Package ratelimit throttles repeated credential submissions per email and
// per client IP, backed by Redis so limits hold across instances.
package ratelimit

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ErrRateLimited is returned when an identifier has exceeded its attempt budget.
var ErrRateLimited = errors.New("too many attempts, try again later")

// Config tunes the limiter.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// DefaultConfig allows 10 attempts per 5 minutes.
func DefaultConfig() Config {
	return Config{MaxAttempts: 10, Window: 5 * time.Minute}
}

// LoginLimiter counts submissions in Redis with a rolling expiry window.
// A nil limiter (no Redis configured) allows everything.
type LoginLimiter struct {
	redis  *redis.Client
	config Config
}

// New creates a limiter on the given Redis client.
func New(redisClient *redis.Client, cfg Config) *LoginLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultConfig()
	}
	return &LoginLimiter{redis: redisClient, config: cfg}
}

// Allow checks and counts one submission for the identifier pair. Redis
// unavailability fails open: a broken limiter must not lock users out.
func (l *LoginLimiter) Allow(ctx context.Context, email, ip string) error {
	if l == nil || l.redis == nil {
		return nil
	}

	if email != "" {
		if err := l.count(ctx, "login:email:"+email); err != nil {
			return err
		}
	}
	if ip != "" {
		if err := l.count(ctx, "login:ip:"+ip); err != nil {
			return err
		}
	}
	return nil
}

func (l *LoginLimiter) count(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return nil // fail open
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return nil
		}
	}
	if count > int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}
