package adminauth

import (
	"context"
	"errors"
	"time"
)

// Store-level sentinels, shared by the Redis and in-memory implementations.
// The engine maps them onto the public error taxonomy.
var (
	errRecordNotFound   = errors.New("record not found")
	errCodeMismatch     = errors.New("verification code mismatch")
	errAttemptsExceeded = errors.New("verification attempts exceeded")
)

// RequestStore persists pending password-change requests keyed by request
// ID. Implementations must treat Delete of an absent key as a no-op and must
// never surface an error for a missing key outside of Get's not-found.
type RequestStore interface {
	Save(ctx context.Context, request *PendingRequest, ttl time.Duration) error
	Get(ctx context.Context, requestID string) (*PendingRequest, error)
	Delete(ctx context.Context, requestID string) error
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// VerificationStore persists verification records keyed by token. Consume is
// the at-most-once gate: it must atomically validate the request pairing and
// the optional code digest, count failed code attempts in place, and delete
// the record only on success, so that two concurrent consumers can never
// both succeed for the same token.
type VerificationStore interface {
	Save(ctx context.Context, token string, record *VerificationRecord, ttl time.Duration) error
	Get(ctx context.Context, token string) (*VerificationRecord, error)
	Consume(ctx context.Context, token, requestID string, codeHash [32]byte, codeRequired bool, maxAttempts int) (*VerificationRecord, error)
	Delete(ctx context.Context, token string) error
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// CooldownStore tracks per-actor emergency reset cooldowns as absolute
// deadlines.
type CooldownStore interface {
	Active(ctx context.Context, actorID string, now time.Time) (bool, time.Duration, error)
	Set(ctx context.Context, actorID string, until time.Time) error
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}
