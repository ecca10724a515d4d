package gatekit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/avelldro/gatekit/password"
	"github.com/avelldro/gatekit/token"
)

// Config is the full engine configuration tree. Build it once at
// startup, validate it, and treat it as immutable afterwards.
type Config struct {
	JWT       JWTConfig
	Store     StoreConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
	Password  PasswordConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// JWTConfig configures the token codec.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "ed25519" or "hs256"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

// StoreConfig configures the shared-store access pattern.
type StoreConfig struct {
	// OpTimeout bounds every Redis call made by the stores.
	OpTimeout time.Duration
	// RevocationBuffer is added on top of a token's remaining lifetime
	// when writing a revocation entry, so the entry always outlives
	// the signature it blocks.
	RevocationBuffer time.Duration
}

// AdminConfig holds the single privileged identity this system
// authenticates. SecretHash is a PHC-encoded argon2id hash.
type AdminConfig struct {
	UserID     string
	Email      string
	Role       string
	SecretHash string
}

// RateLimitConfig configures cooldown windows per action. A zero
// window disables that throttle.
type RateLimitConfig struct {
	LoginWindow         time.Duration
	RefreshWindow       time.Duration
	MemoryMaxEntries    int
	MemorySweepInterval time.Duration
}

// PasswordConfig tunes the argon2id hasher.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// AuditConfig configures the buffered audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns production-leaning defaults. Keys and the
// admin identity must still be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: string(token.MethodEd25519),
			Issuer:        "gatekit",
			Leeway:        30 * time.Second,
		},
		Store: StoreConfig{
			OpTimeout:        3 * time.Second,
			RevocationBuffer: 5 * time.Minute,
		},
		Admin: AdminConfig{
			Role: "admin",
		},
		RateLimit: RateLimitConfig{
			LoginWindow:         30 * time.Second,
			RefreshWindow:       0,
			MemoryMaxEntries:    10000,
			MemorySweepInterval: time.Minute,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the engine cannot run safely with.
func (c Config) Validate() error {
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("refresh TTL must exceed access TTL")
	}
	if c.Store.RevocationBuffer < 0 {
		return errors.New("revocation buffer must not be negative")
	}
	if c.Store.OpTimeout < 0 {
		return errors.New("store op timeout must not be negative")
	}
	if c.Admin.Email == "" || c.Admin.SecretHash == "" {
		return errors.New("admin identity and secret hash are required")
	}
	if c.Admin.UserID == "" {
		return errors.New("admin user ID is required")
	}
	if c.RateLimit.LoginWindow < 0 || c.RateLimit.RefreshWindow < 0 {
		return errors.New("rate limit windows must not be negative")
	}
	return nil
}

func (c Config) passwordConfig() password.Config {
	return password.Config{
		Memory:      c.Password.Memory,
		Time:        c.Password.Time,
		Parallelism: c.Password.Parallelism,
		SaltLength:  c.Password.SaltLength,
		KeyLength:   c.Password.KeyLength,
	}
}

func (c Config) tokenConfig() token.Config {
	return token.Config{
		AccessTTL:     c.JWT.AccessTTL,
		RefreshTTL:    c.JWT.RefreshTTL,
		SigningMethod: token.SigningMethod(c.JWT.SigningMethod),
		PrivateKey:    c.JWT.PrivateKey,
		PublicKey:     c.JWT.PublicKey,
		Issuer:        c.JWT.Issuer,
		Leeway:        c.JWT.Leeway,
	}
}

// familyTTL is the lifetime of family records and refresh-token
// revocation entries: the refresh lifetime plus the safety buffer.
func (c Config) familyTTL() time.Duration {
	return c.JWT.RefreshTTL + c.Store.RevocationBuffer
}

// ParseLifetime converts a human duration string into a typed
// duration. It accepts everything time.ParseDuration does plus a "d"
// suffix for whole days ("7d"). Malformed input is a configuration
// error; the returned duration falls back to def so startup code can
// log the error and continue with a safe value.
func ParseLifetime(s string, def time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}

	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return def, fmt.Errorf("invalid lifetime %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def, fmt.Errorf("invalid lifetime %q", s)
	}
	return d, nil
}
