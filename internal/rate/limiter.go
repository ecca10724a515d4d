package rate

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rl:"

// Config holds rate limiter tuning parameters.
type Config struct {
	// MemoryMaxEntries caps the fallback map; the oldest entries are
	// evicted once the cap is exceeded.
	MemoryMaxEntries int
	// MemorySweepInterval bounds how often the fallback map is swept
	// for expired windows.
	MemorySweepInterval time.Duration
}

// Limiter enforces one attempt per cooldown window for each
// (action, identifier) pair. Redis is authoritative; a bounded
// in-process map takes over when Redis is unreachable.
type Limiter struct {
	redis  redis.UniversalClient
	memory *memoryWindows
}

// New creates a Limiter backed by the given Redis client.
func New(client redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  client,
		memory: newMemoryWindows(cfg.MemoryMaxEntries, cfg.MemorySweepInterval),
	}
}

func limiterKey(action, identifier string) string {
	return keyPrefix + action + ":" + identifier
}

// Allow reports whether an attempt for the pair is permitted now. The
// first attempt in a window is allowed and starts the window; retryAfter
// carries the remaining cooldown when denied.
func (l *Limiter) Allow(ctx context.Context, action, identifier string, window time.Duration) (bool, time.Duration) {
	if window <= 0 {
		return true, 0
	}

	key := limiterKey(action, identifier)

	ok, retryAfter, err := l.allowRedis(ctx, key, window)
	if err == nil {
		return ok, retryAfter
	}

	// Fail open to the in-process layer: limiter availability must
	// never depend on the shared store being up.
	log.Print("gatekit: rate limiter falling back to memory")
	return l.memory.allow(key, window, time.Now())
}

func (l *Limiter) allowRedis(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	set, err := l.redis.SetNX(ctx, key, time.Now().Unix(), window).Result()
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if set {
		return true, 0, nil
	}

	remaining, err := l.redis.PTTL(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if remaining < 0 {
		remaining = window
	}
	return false, remaining, nil
}

// Reset clears the window for the pair in both layers. Called after a
// successful attempt so legitimate callers are not penalized.
func (l *Limiter) Reset(ctx context.Context, action, identifier string) error {
	key := limiterKey(action, identifier)
	l.memory.reset(key)

	if err := l.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
