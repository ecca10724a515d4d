package rate

import "errors"

var (
	// ErrRateLimited signals that the cooldown window has not elapsed.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis transport failures before the
	// limiter falls back to the in-process layer.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
