package adminauth

import "errors"

var (
	// ErrIdentityLookupFailed is an exported constant or variable used by the password-change engine.
	//
	// Its message is intentionally identical to [ErrInsufficientPrivilege] so
	// that wording never reveals whether a target account exists to a caller
	// who lacks the privilege to know.
	ErrIdentityLookupFailed = errors.New("password change not permitted")
	// ErrInsufficientPrivilege is an exported constant or variable used by the password-change engine.
	ErrInsufficientPrivilege = errors.New("password change not permitted")
	// ErrSuperAdminProtected is an exported constant or variable used by the password-change engine.
	ErrSuperAdminProtected = errors.New("super administrator credentials are self-service only")
	// ErrWeakPassword is an exported constant or variable used by the password-change engine.
	ErrWeakPassword = errors.New("new password rejected by policy")
	// ErrRateLimited is an exported constant or variable used by the password-change engine.
	ErrRateLimited = errors.New("password change rate limited")
	// ErrCurrentPasswordInvalid is an exported constant or variable used by the password-change engine.
	ErrCurrentPasswordInvalid = errors.New("current password invalid")
	// ErrRequestNotFound is an exported constant or variable used by the password-change engine.
	ErrRequestNotFound = errors.New("password change request not found or expired")
	// ErrVerificationExpired is an exported constant or variable used by the password-change engine.
	ErrVerificationExpired = errors.New("verification window expired")
	// ErrIdentityMismatch is an exported constant or variable used by the password-change engine.
	ErrIdentityMismatch = errors.New("request belongs to a different administrator")
	// ErrPasswordMismatch is an exported constant or variable used by the password-change engine.
	ErrPasswordMismatch = errors.New("new password does not match the initiated request")
	// ErrEmailVerificationRequired is an exported constant or variable used by the password-change engine.
	ErrEmailVerificationRequired = errors.New("email verification code required")
	// ErrEmailCodeInvalid is an exported constant or variable used by the password-change engine.
	ErrEmailCodeInvalid = errors.New("invalid email verification code")
	// ErrEmailCodeAttempts is an exported constant or variable used by the password-change engine.
	ErrEmailCodeAttempts = errors.New("email verification attempts exceeded")
	// ErrEmergencyOverrideRequired is an exported constant or variable used by the password-change engine.
	ErrEmergencyOverrideRequired = errors.New("emergency override code required")
	// ErrEmergencyOverrideInvalid is an exported constant or variable used by the password-change engine.
	ErrEmergencyOverrideInvalid = errors.New("invalid emergency override code")
	// ErrEmergencyCooldownActive is an exported constant or variable used by the password-change engine.
	ErrEmergencyCooldownActive = errors.New("emergency reset cooldown active")
	// ErrIdentityProviderError is an exported constant or variable used by the password-change engine.
	ErrIdentityProviderError = errors.New("identity provider error")
	// ErrSessionInvalidationFailed is an exported constant or variable used by the password-change engine.
	ErrSessionInvalidationFailed = errors.New("session invalidation failed")
	// ErrStoreUnavailable is an exported constant or variable used by the password-change engine.
	ErrStoreUnavailable = errors.New("request store backend unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the password-change engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
