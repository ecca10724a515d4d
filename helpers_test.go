package gatekit

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/avelldro/gatekit/password"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	testUserID = "admin-1"
	testEmail  = "admin@example.com"
	testSecret = "correct-horse-battery"
)

// testConfig returns a config with a fresh ed25519 keypair and cheap
// argon2 parameters so the suite stays fast.
func testConfig(t *testing.T) Config {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("keygen failed: %v", err)
	}

	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = priv
	cfg.JWT.PublicKey = pub
	cfg.JWT.AccessTTL = 5 * time.Minute
	cfg.JWT.RefreshTTL = time.Hour
	cfg.Store.RevocationBuffer = 10 * time.Minute
	cfg.RateLimit.LoginWindow = 30 * time.Second
	cfg.Password = PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
	return cfg
}

func testSecretHash(t *testing.T, cfg Config) string {
	t.Helper()

	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		t.Fatalf("hasher init failed: %v", err)
	}
	hash, err := hasher.Hash(testSecret)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	return hash
}

func newTestEngine(t *testing.T) (*Engine, *miniredis.Miniredis, func()) {
	t.Helper()
	return newTestEngineWithConfig(t, testConfig(t))
}

func newTestEngineWithConfig(t *testing.T, cfg Config) (*Engine, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAdmin(testUserID, testEmail, testSecretHash(t, cfg)).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("engine build failed: %v", err)
	}

	return engine, mr, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}

// refreshTokenID extracts the jti of a refresh token without
// verifying it.
func refreshTokenID(t *testing.T, engine *Engine, refreshToken string) string {
	t.Helper()

	id := engine.codec.ExtractID(refreshToken)
	if id == "" {
		t.Fatal("refresh token has no extractable id")
	}
	return id
}
