package gatekit

import (
	"errors"

	"github.com/avelldro/gatekit/internal/rate"
	"github.com/avelldro/gatekit/internal/stores"
	"github.com/avelldro/gatekit/password"
	"github.com/avelldro/gatekit/token"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine from explicitly supplied collaborators.
// There are no module-level singletons: the Redis client, audit sink,
// and config are injected here and nowhere else.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the shared store client used by the revocation
// store, family registry, and rate limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAdmin sets the single privileged identity and its PHC-encoded
// secret hash.
func (b *Builder) WithAdmin(userID, email, secretHash string) *Builder {
	b.config.Admin.UserID = userID
	b.config.Admin.Email = email
	b.config.Admin.SecretHash = secretHash
	return b
}

// WithAuditSink sets the destination for security audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration and constructs the Engine. A
// Builder can be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	codec, err := token.NewManager(b.config.tokenConfig())
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewArgon2(b.config.passwordConfig())
	if err != nil {
		return nil, err
	}

	b.built = true

	return &Engine{
		config:      b.config,
		codec:       codec,
		revocations: stores.NewRevocation(b.redis, b.config.Store.OpTimeout),
		families:    stores.NewFamily(b.redis, b.config.Store.OpTimeout),
		limiter: rate.New(b.redis, rate.Config{
			MemoryMaxEntries:    b.config.RateLimit.MemoryMaxEntries,
			MemorySweepInterval: b.config.RateLimit.MemorySweepInterval,
		}),
		hasher:      hasher,
		audit:       newAuditDispatcher(b.config.Audit, b.auditSink),
		metrics:     NewMetrics(b.config.Metrics),
		adminDigest: identityDigest(b.config.Admin.Email),
	}, nil
}
