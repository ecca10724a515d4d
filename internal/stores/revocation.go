package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable wraps every Redis transport failure so callers
// can distinguish infrastructure faults from domain outcomes.
var ErrStoreUnavailable = errors.New("revocation store unavailable")

const (
	revocationPrefix = "rvk:"
	familyPrefix     = "fam:"
)

// Revocation is a TTL keyed blacklist of token identifiers. It knows
// nothing about token structure; the Engine chooses every TTL.
type Revocation struct {
	redis   redis.UniversalClient
	timeout time.Duration
}

// NewRevocation creates a Revocation store backed by the given Redis
// client. opTimeout bounds every store call; zero disables the bound.
func NewRevocation(client redis.UniversalClient, opTimeout time.Duration) *Revocation {
	return &Revocation{redis: client, timeout: opTimeout}
}

func (r *Revocation) key(tokenID string) string {
	return revocationPrefix + tokenID
}

// Set blacklists a token ID for ttl, recording when the blacklisting
// happened. The caller must pass a TTL at least as long as the token's
// remaining signed lifetime, otherwise the entry could lapse while the
// signature is still good.
func (r *Revocation) Set(ctx context.Context, tokenID string, ttl time.Duration) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if ttl <= 0 {
		ttl = time.Second
	}
	if err := r.redis.Set(ctx, r.key(tokenID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Get returns when a token ID was blacklisted. The boolean is false
// when no entry exists.
func (r *Revocation) Get(ctx context.Context, tokenID string) (time.Time, bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	unix, err := r.redis.Get(ctx, r.key(tokenID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Unix(unix, 0), true, nil
}

// IsSet reports whether a token ID is blacklisted. Transport errors
// are returned so the caller can fail closed.
func (r *Revocation) IsSet(ctx context.Context, tokenID string) (bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	n, err := r.redis.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// Del removes a blacklist entry. Deleting a missing entry is not an error.
func (r *Revocation) Del(ctx context.Context, tokenID string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if err := r.redis.Del(ctx, r.key(tokenID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (r *Revocation) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}
