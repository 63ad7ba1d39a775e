package adminauth

import (
	"context"
	"time"

	"github.com/credware/adminauth/internal/rate"
)

// Engine defines a public type used by adminauth APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config        Config
	identity      IdentityProvider
	sessions      SessionStore
	policy        PasswordPolicy
	limiter       RateLimiter
	sender        CodeSender
	requests      RequestStore
	verifications VerificationStore
	cooldowns     CooldownStore
	correlator    *Correlator
	sweeper       *sweeper
	audit         *auditDispatcher
	metrics       *Metrics
}

// Close stops the background sweeper and drains the audit dispatcher. It is
// safe to call more than once.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.sweeper != nil {
		e.sweeper.stop()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters: map[MetricID]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Sweep runs one cleanup pass over the three stores and the correlator
// windows. The background sweeper calls this on its interval; it is exported
// so deployments that schedule cleanup themselves can drive it directly.
// Sweeping is idempotent and safe to run concurrently with Initiate and
// Complete.
func (e *Engine) Sweep(ctx context.Context) (int, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}

	now := time.Now()
	total := 0

	purged, err := e.verifications.SweepExpired(ctx, now)
	if err != nil {
		return total, err
	}
	total += purged

	purged, err = e.requests.SweepExpired(ctx, now)
	if err != nil {
		return total, err
	}
	total += purged

	purged, err = e.cooldowns.SweepExpired(ctx, now)
	if err != nil {
		return total, err
	}
	total += purged

	e.correlator.Prune(now)

	if total > 0 {
		e.metrics.Add(MetricSweepPurged, uint64(total))
	}
	return total, nil
}

// RecordSecurityEvent feeds an externally observed event (a login outcome,
// an account mutation) into the audit pipeline and the correlator. The
// engine's own operations record their events internally; this entry point
// exists for surrounding application code that shares the correlation
// window.
func (e *Engine) RecordSecurityEvent(ctx context.Context, actorID string, action SecurityAction, success bool) {
	if e == nil {
		return
	}
	e.emitAudit(ctx, "security_event", action, "", success, actorID, "", nil, nil)
}

// redisRateLimiter adapts the fixed-window limiter to the [RateLimiter]
// collaborator interface.
type redisRateLimiter struct {
	limiter *rate.Limiter
}

// NewRedisRateLimiter wraps the built-in Redis fixed-window limiter in the
// [RateLimiter] interface. The builder installs one automatically when a
// Redis client is present and rate limiting is enabled.
func NewRedisRateLimiter(limiter *rate.Limiter) RateLimiter {
	return &redisRateLimiter{limiter: limiter}
}

// CheckAndConsume describes the checkandconsume operation and its observable behavior.
//
// CheckAndConsume may return an error when input validation, dependency calls, or security checks fail.
// CheckAndConsume does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (l *redisRateLimiter) CheckAndConsume(ctx context.Context, ip, bucket, actorID string) (Decision, error) {
	allowed, retryAfter, err := l.limiter.CheckAndConsume(ctx, ip, bucket, actorID)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Allowed: allowed, RetryAfter: retryAfter}, nil
}
