package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrFamilyNotFound is returned when a rotation family record does not
// exist: it was never created, expired, or was poisoned by a prior
// reuse or logout event.
var ErrFamilyNotFound = errors.New("token family not found")

// FamilyRecord tracks one rotation chain. CurrentTokenID is the jti of
// the most recently issued, not-yet-rotated refresh token — the single
// source of truth for which token in the chain is still unused.
type FamilyRecord struct {
	CurrentTokenID string `json:"current_token_id"`
	UserID         string `json:"user_id"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

// Family persists rotation family records in Redis with a TTL tied to
// refresh-token validity.
//
// Writes are plain overwrites, not compare-and-swap: two concurrent
// rotations of the same token can both read a matching record before
// either write lands. The reuse-detection read on the next rotation is
// the safety net for that window. Do not add a lock here.
type Family struct {
	redis   redis.UniversalClient
	timeout time.Duration
}

// NewFamily creates a Family store backed by the given Redis client.
func NewFamily(client redis.UniversalClient, opTimeout time.Duration) *Family {
	return &Family{redis: client, timeout: opTimeout}
}

func (f *Family) key(familyID string) string {
	return familyPrefix + familyID
}

// Create writes a brand new family record with the first refresh
// token's jti as current.
func (f *Family) Create(ctx context.Context, familyID, userID, tokenID string, ttl time.Duration) error {
	now := time.Now().Unix()
	return f.write(ctx, familyID, &FamilyRecord{
		CurrentTokenID: tokenID,
		UserID:         userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, ttl)
}

// Get fetches a family record. Missing records return ErrFamilyNotFound.
func (f *Family) Get(ctx context.Context, familyID string) (*FamilyRecord, error) {
	ctx, cancel := f.bound(ctx)
	defer cancel()

	data, err := f.redis.Get(ctx, f.key(familyID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrFamilyNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var rec FamilyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupt family record %s: %w", familyID, err)
	}
	return &rec, nil
}

// SetCurrent overwrites the record's current token ID and refreshes
// its TTL, preserving CreatedAt. The old token ID is discarded.
func (f *Family) SetCurrent(ctx context.Context, familyID string, prev *FamilyRecord, tokenID string, ttl time.Duration) error {
	return f.write(ctx, familyID, &FamilyRecord{
		CurrentTokenID: tokenID,
		UserID:         prev.UserID,
		CreatedAt:      prev.CreatedAt,
		UpdatedAt:      time.Now().Unix(),
	}, ttl)
}

// Delete removes a family record, poisoning the whole chain: no token
// bearing this family ID can rotate again. Idempotent.
func (f *Family) Delete(ctx context.Context, familyID string) error {
	ctx, cancel := f.bound(ctx)
	defer cancel()

	if err := f.redis.Del(ctx, f.key(familyID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (f *Family) write(ctx context.Context, familyID string, rec *FamilyRecord, ttl time.Duration) error {
	ctx, cancel := f.bound(ctx)
	defer cancel()

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := f.redis.Set(ctx, f.key(familyID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (f *Family) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, f.timeout)
}
