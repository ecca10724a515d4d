package gatekit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestParseLifetime(t *testing.T) {
	def := 15 * time.Minute

	cases := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"empty uses default", "", def, false},
		{"plain duration", "45m", 45 * time.Minute, false},
		{"hours", "2h", 2 * time.Hour, false},
		{"day suffix", "7d", 7 * 24 * time.Hour, false},
		{"single day", "1d", 24 * time.Hour, false},
		{"whitespace trimmed", "  30s  ", 30 * time.Second, false},
		{"malformed", "soon", def, true},
		{"negative", "-5m", def, true},
		{"zero", "0s", def, true},
		{"zero days", "0d", def, true},
		{"negative days", "-2d", def, true},
		{"fractional days", "1.5d", def, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseLifetime(tc.in, def)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %q", tc.in)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("ParseLifetime(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := testConfig(t)
	valid.Admin.UserID = testUserID
	valid.Admin.Email = testEmail
	valid.Admin.SecretHash = "$argon2id$v=19$m=8192,t=1,p=1$placeholder$placeholder"

	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero access TTL", func(c *Config) { c.JWT.AccessTTL = 0 }},
		{"zero refresh TTL", func(c *Config) { c.JWT.RefreshTTL = 0 }},
		{"refresh not longer than access", func(c *Config) { c.JWT.RefreshTTL = c.JWT.AccessTTL }},
		{"negative revocation buffer", func(c *Config) { c.Store.RevocationBuffer = -time.Second }},
		{"negative op timeout", func(c *Config) { c.Store.OpTimeout = -time.Second }},
		{"missing admin email", func(c *Config) { c.Admin.Email = "" }},
		{"missing secret hash", func(c *Config) { c.Admin.SecretHash = "" }},
		{"missing admin user id", func(c *Config) { c.Admin.UserID = "" }},
		{"negative login window", func(c *Config) { c.RateLimit.LoginWindow = -time.Second }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestBuilderRequiresRedis(t *testing.T) {
	cfg := testConfig(t)

	_, err := New().
		WithConfig(cfg).
		WithAdmin(testUserID, testEmail, testSecretHash(t, cfg)).
		Build()
	if err == nil {
		t.Fatal("expected build without redis to fail")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()

	cfg := testConfig(t)
	b := New().
		WithConfig(cfg).
		WithRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()})).
		WithAdmin(testUserID, testEmail, testSecretHash(t, cfg))

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second build to fail")
	}
}
