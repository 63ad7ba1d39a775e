package adminauth

import (
	"errors"

	"github.com/credware/adminauth/internal/rate"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by adminauth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	identity IdentityProvider
	sessions SessionStore
	policy   PasswordPolicy
	limiter  RateLimiter
	sender   CodeSender

	requests      RequestStore
	verifications VerificationStore
	cooldowns     CooldownStore

	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis selects Redis-backed stores and the built-in Redis rate limiter.
// Without it the engine runs on in-memory stores, which only suit tests and
// single-process deployments.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithIdentityProvider describes the withidentityprovider operation and its observable behavior.
//
// WithIdentityProvider may return an error when input validation, dependency calls, or security checks fail.
// WithIdentityProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithIdentityProvider(provider IdentityProvider) *Builder {
	b.identity = provider
	return b
}

// WithSessionStore describes the withsessionstore operation and its observable behavior.
//
// WithSessionStore may return an error when input validation, dependency calls, or security checks fail.
// WithSessionStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSessionStore(store SessionStore) *Builder {
	b.sessions = store
	return b
}

// WithPasswordPolicy describes the withpasswordpolicy operation and its observable behavior.
//
// WithPasswordPolicy may return an error when input validation, dependency calls, or security checks fail.
// WithPasswordPolicy does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithPasswordPolicy(policy PasswordPolicy) *Builder {
	b.policy = policy
	return b
}

// WithRateLimiter overrides the built-in Redis fixed-window limiter.
func (b *Builder) WithRateLimiter(limiter RateLimiter) *Builder {
	b.limiter = limiter
	return b
}

// WithCodeSender describes the withcodesender operation and its observable behavior.
//
// WithCodeSender may return an error when input validation, dependency calls, or security checks fail.
// WithCodeSender does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCodeSender(sender CodeSender) *Builder {
	b.sender = sender
	return b
}

// WithStores injects explicit store implementations and overrides both the
// Redis and in-memory defaults.
func (b *Builder) WithStores(requests RequestStore, verifications VerificationStore, cooldowns CooldownStore) *Builder {
	b.requests = requests
	b.verifications = verifications
	b.cooldowns = cooldowns
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.identity == nil {
		return nil, errors.New("identity provider required")
	}

	engine := &Engine{
		config:        cfg,
		identity:      b.identity,
		sessions:      b.sessions,
		policy:        b.policy,
		limiter:       b.limiter,
		sender:        b.sender,
		requests:      b.requests,
		verifications: b.verifications,
		cooldowns:     b.cooldowns,
	}

	if engine.policy == nil {
		engine.policy = NewDefaultPasswordPolicy()
	}

	if engine.requests == nil || engine.verifications == nil || engine.cooldowns == nil {
		if engine.requests != nil || engine.verifications != nil || engine.cooldowns != nil {
			return nil, errors.New("stores must be injected together")
		}
		if b.redis != nil {
			engine.requests = newRedisRequestStore(b.redis)
			engine.verifications = newRedisVerificationStore(b.redis)
			engine.cooldowns = newRedisCooldownStore(b.redis)
		} else {
			engine.requests = NewMemoryRequestStore()
			engine.verifications = NewMemoryVerificationStore()
			engine.cooldowns = NewMemoryCooldownStore()
		}
	}

	if cfg.RateLimit.Enabled && engine.limiter == nil {
		if b.redis == nil {
			return nil, errors.New("RateLimit requires a redis client or a custom limiter")
		}
		engine.limiter = NewRedisRateLimiter(rate.New(b.redis, rate.Config{
			MaxAttempts: cfg.RateLimit.MaxAttempts,
			Window:      cfg.RateLimit.Window,
		}))
	}

	engine.correlator = NewCorrelator(cfg.Correlator)
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)

	if cfg.Sweeper.Enabled {
		engine.sweeper = startSweeper(engine, cfg.Sweeper.Interval)
	}

	b.built = true
	return engine, nil
}
