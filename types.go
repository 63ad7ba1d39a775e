package adminauth

import (
	"context"
	"time"
)

// AdminRecord is the account record returned by [IdentityProvider]. It
// carries only what the workflow needs: identity, contact address, and the
// two privilege flags the authorization rules evaluate.
type AdminRecord struct {
	UserID     string
	Email      string
	Admin      bool
	SuperAdmin bool
}

// IdentityProvider is the interface that callers must implement to connect
// the engine to their user database and credential storage. Credential
// hashing, claim issuance, and token verification stay on the provider side;
// the engine only asks questions and requests mutations.
type IdentityProvider interface {
	GetUser(ctx context.Context, userID string) (AdminRecord, error)
	GetUserByEmail(ctx context.Context, email string) (AdminRecord, error)
	VerifyPassword(ctx context.Context, userID, plaintext string) (bool, error)
	UpdateCredential(ctx context.Context, userID, newPassword string) error
}

// SessionStore invalidates persistent sessions after a credential change.
// The mechanism (revocation list, claim version bump, cookie blacklist) is
// the implementer's choice.
type SessionStore interface {
	InvalidateAllSessions(ctx context.Context, userID string) error
}

// PolicyResult is returned by [PasswordPolicy.Validate]. Violations is
// non-empty exactly when Valid is false.
type PolicyResult struct {
	Valid      bool
	Violations []string
}

// PasswordPolicy evaluates candidate passwords. [DefaultPasswordPolicy] is a
// usable built-in; production deployments typically inject their own.
type PasswordPolicy interface {
	Validate(plaintext string) PolicyResult
}

// Decision is returned by [RateLimiter.CheckAndConsume]. RetryAfter is only
// meaningful when Allowed is false.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RateLimiter throttles initiate attempts per (ip, bucket, actor) triple.
// [NewRedisRateLimiter] provides the default fixed-window implementation.
type RateLimiter interface {
	CheckAndConsume(ctx context.Context, ip, bucket, actorID string) (Decision, error)
}

// CodeSender delivers verification and override codes out of band. The
// engine never returns these codes to the caller.
type CodeSender interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// PendingRequest is an in-flight password-change request. It is created by
// [Engine.Initiate], deleted by the one successful [Engine.Complete], and
// otherwise garbage-collected after [ChangeConfig.RequestTTL]. It is never
// mutated after creation.
type PendingRequest struct {
	RequestID      string
	RequestorID    string
	RequestorEmail string
	TargetID       string
	TargetEmail    string
	CreatedAt      int64
	Reason         string
	Emergency      bool
}

// VerificationRequirements is the proof breakdown computed at initiate time.
type VerificationRequirements struct {
	CurrentPassword   bool
	EmailVerification bool
	TwoFactor         bool
	EmergencyOverride bool
}

// VerificationRecord pairs a high-entropy token with a pending request and
// tracks which proofs were established at initiate time. CodeHash and
// OverrideHash are sha256 digests; the plaintext codes are only ever handed
// to the [CodeSender].
type VerificationRecord struct {
	RequestID               string
	CurrentPasswordVerified bool
	EmailVerificationSent   bool
	TwoFactorRequired       bool
	EmergencyOverride       bool
	CodeHash                [32]byte
	OverrideHash            [32]byte
	NewPasswordHash         [32]byte
	Attempts                uint16
	ExpiresAt               int64
}

// Expired reports whether the verification window has closed as of now.
func (r *VerificationRecord) Expired(now time.Time) bool {
	return now.Unix() >= r.ExpiresAt
}

// InitiateRequest is the input for [Engine.Initiate]. CurrentPassword is
// required for self-service changes; leaving it empty turns the call into a
// requirements discovery that creates no state.
type InitiateRequest struct {
	RequestorID     string
	TargetID        string
	CurrentPassword string
	NewPassword     string
	Reason          string
	Emergency       bool
}

// InitiateResult is returned by [Engine.Initiate]. RequestID and the
// verification token are only set when a pending request was actually
// created; PolicyViolations accompanies [ErrWeakPassword].
type InitiateResult struct {
	RequestID             string
	VerificationToken     string
	VerificationRequired  VerificationRequirements
	CurrentPasswordNeeded bool
	Message               string
	PolicyViolations      []string
	RetryAfter            time.Duration
}

// CompleteRequest is the input for [Engine.Complete]. NewPassword must match
// the password that will actually be applied; CallerID is the authenticated
// admin attempting the completion.
type CompleteRequest struct {
	RequestID    string
	Token        string
	EmailCode    string
	OverrideCode string
	NewPassword  string
	CallerID     string
}

// CompleteResult is returned by [Engine.Complete]. SessionsInvalidated is
// false with a Warning when the post-change session sweep failed; the
// credential change itself is never rolled back at that point.
type CompleteResult struct {
	VerificationMethod  string
	SessionsInvalidated bool
	Warning             string
	Message             string
}

// EmergencyResetRequest is the input for [Engine.EmergencyReset].
type EmergencyResetRequest struct {
	ActorID  string
	TargetID string
	Reason   string
}

// EmergencyResetResult carries the generated temporary password. It is
// returned exactly once and never stored or retrievable afterward.
type EmergencyResetResult struct {
	TemporaryPassword   string
	SessionsInvalidated bool
	Warning             string
	Message             string
}

// SecurityAction is the coarse action classification used for risk scoring
// and correlation.
type SecurityAction string

const (
	// ActionLogin is an exported constant or variable used by the password-change engine.
	ActionLogin SecurityAction = "LOGIN"
	// ActionPasswordChange is an exported constant or variable used by the password-change engine.
	ActionPasswordChange SecurityAction = "PASSWORD_CHANGE"
	// ActionUserCreate is an exported constant or variable used by the password-change engine.
	ActionUserCreate SecurityAction = "USER_CREATE"
	// ActionUserUpdate is an exported constant or variable used by the password-change engine.
	ActionUserUpdate SecurityAction = "USER_UPDATE"
	// ActionUserDelete is an exported constant or variable used by the password-change engine.
	ActionUserDelete SecurityAction = "USER_DELETE"
	// ActionRoleChange is an exported constant or variable used by the password-change engine.
	ActionRoleChange SecurityAction = "ROLE_CHANGE"
	// ActionAccountLockout is an exported constant or variable used by the password-change engine.
	ActionAccountLockout SecurityAction = "ACCOUNT_LOCKOUT"
	// ActionAdminAccess is an exported constant or variable used by the password-change engine.
	ActionAdminAccess SecurityAction = "ADMIN_ACCESS"
	// ActionConfigurationChange is an exported constant or variable used by the password-change engine.
	ActionConfigurationChange SecurityAction = "CONFIGURATION_CHANGE"
	// ActionSuspiciousActivity is an exported constant or variable used by the password-change engine.
	ActionSuspiciousActivity SecurityAction = "SUSPICIOUS_ACTIVITY"
)

// RiskLevel is the derived severity of a [SecurityEvent]. It is computed
// once at event creation and never mutated.
type RiskLevel string

const (
	// RiskLow is an exported constant or variable used by the password-change engine.
	RiskLow RiskLevel = "low"
	// RiskMedium is an exported constant or variable used by the password-change engine.
	RiskMedium RiskLevel = "medium"
	// RiskHigh is an exported constant or variable used by the password-change engine.
	RiskHigh RiskLevel = "high"
	// RiskCritical is an exported constant or variable used by the password-change engine.
	RiskCritical RiskLevel = "critical"
)

// ClassifyRisk derives the risk level for an action outcome. It is a pure
// function; named audit events may carry an explicit severity instead.
func ClassifyRisk(action SecurityAction, success bool) RiskLevel {
	if !success && (action == ActionLogin || action == ActionPasswordChange) {
		return RiskCritical
	}

	switch action {
	case ActionUserDelete, ActionRoleChange, ActionAccountLockout:
		return RiskCritical
	}

	if success {
		switch action {
		case ActionPasswordChange, ActionAdminAccess, ActionUserCreate:
			return RiskHigh
		case ActionLogin, ActionUserUpdate, ActionConfigurationChange:
			return RiskMedium
		}
	}

	return RiskLow
}

// SecurityEvent is the normalized view of an audit event consumed by the
// [Correlator].
type SecurityEvent struct {
	ActorID   string
	Action    SecurityAction
	Success   bool
	Timestamp time.Time
	Risk      RiskLevel
}
