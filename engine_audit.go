package adminauth

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventPasswordChangeInitiated     = "password_change_initiated"
	auditEventPasswordChangeCompleted     = "password_change_completed"
	auditEventPasswordChangeAttempt       = "password_change_attempt"
	auditEventUnauthorizedPasswordChange  = "unauthorized_password_change_attempt"
	auditEventSuperAdminPasswordChange    = "super_admin_password_change_attempt"
	auditEventPasswordChangeRateLimit     = "password_change_rate_limit"
	auditEventInvalidCurrentPassword      = "invalid_current_password"
	auditEventIdentityLookupFailed        = "identity_lookup_failed"
	auditEventPasswordChangeIdentityMism  = "password_change_identity_mismatch"
	auditEventInvalidEmailVerification    = "invalid_email_verification"
	auditEventEmailCodeAttemptsExceeded   = "email_code_attempts_exceeded"
	auditEventInvalidEmergencyOverride    = "invalid_emergency_override"
	auditEventEmergencyPasswordReset      = "emergency_password_reset"
	auditEventEmergencyResetFailed        = "emergency_reset_failed"
	auditEventUnauthorizedEmergencyReset  = "unauthorized_emergency_reset"
	auditEventEmergencyCooldownRejected   = "emergency_cooldown_rejected"
	auditEventSessionInvalidationDegraded = "session_invalidation_degraded"
	auditEventSuspiciousActivity          = "suspicious_activity"
)

// AuditErrorCode defines a public type used by adminauth APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrLookupFailed          AuditErrorCode = "identity_lookup_failed"
	auditErrInsufficientPrivilege AuditErrorCode = "insufficient_privilege"
	auditErrSuperAdminProtected   AuditErrorCode = "super_admin_protected"
	auditErrWeakPassword          AuditErrorCode = "weak_password"
	auditErrRateLimited           AuditErrorCode = "rate_limited"
	auditErrCurrentPassword       AuditErrorCode = "current_password_invalid"
	auditErrRequestNotFound       AuditErrorCode = "request_not_found_or_expired"
	auditErrVerificationExpired   AuditErrorCode = "verification_expired"
	auditErrIdentityMismatch      AuditErrorCode = "identity_mismatch"
	auditErrPasswordMismatch      AuditErrorCode = "password_mismatch"
	auditErrEmailCodeRequired     AuditErrorCode = "email_verification_required"
	auditErrEmailCodeInvalid      AuditErrorCode = "email_code_invalid"
	auditErrAttemptsExceeded      AuditErrorCode = "attempts_exceeded"
	auditErrOverrideRequired      AuditErrorCode = "emergency_override_required"
	auditErrOverrideInvalid       AuditErrorCode = "emergency_override_invalid"
	auditErrCooldownActive        AuditErrorCode = "emergency_cooldown_active"
	auditErrProvider              AuditErrorCode = "identity_provider_error"
	auditErrSessionInvalidation   AuditErrorCode = "session_invalidation_failed"
	auditErrUnavailable           AuditErrorCode = "backend_unavailable"
	auditErrInternal              AuditErrorCode = "internal_error"
)

// emitAudit builds the event, hands it to the async dispatcher, and feeds
// the correlator synchronously. Escalations the correlator produces are
// dispatched but never re-observed.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	action SecurityAction,
	risk RiskLevel,
	success bool,
	actorID string,
	targetID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil {
		return
	}
	if risk == "" {
		risk = ClassifyRisk(action, success)
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Action:    action,
		Risk:      risk,
		ActorID:   actorID,
		TargetID:  targetID,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)

	if e.correlator == nil || action == ActionSuspiciousActivity {
		return
	}
	// A successful initiation has not changed a credential yet; only applied
	// changes may count toward the rapid-change window.
	if eventType == auditEventPasswordChangeInitiated {
		return
	}
	for _, escalation := range e.correlator.Observe(SecurityEvent{
		ActorID:   actorID,
		Action:    action,
		Success:   success,
		Timestamp: event.Timestamp,
		Risk:      risk,
	}) {
		e.metricInc(MetricSuspiciousActivity)
		e.audit.Emit(ctx, AuditEvent{
			Timestamp: time.Now().UTC(),
			EventType: auditEventSuspiciousActivity,
			Action:    ActionSuspiciousActivity,
			Risk:      RiskCritical,
			ActorID:   escalation.ActorID,
			IP:        clientIPFromContext(ctx),
			Success:   false,
			Metadata: map[string]string{
				"reason": escalation.Reason,
			},
		})
	}
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrIdentityLookupFailed):
		return auditErrLookupFailed
	case errors.Is(err, ErrSuperAdminProtected):
		return auditErrSuperAdminProtected
	case errors.Is(err, ErrInsufficientPrivilege):
		return auditErrInsufficientPrivilege
	case errors.Is(err, ErrWeakPassword):
		return auditErrWeakPassword
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrCurrentPasswordInvalid):
		return auditErrCurrentPassword
	case errors.Is(err, ErrRequestNotFound):
		return auditErrRequestNotFound
	case errors.Is(err, ErrVerificationExpired):
		return auditErrVerificationExpired
	case errors.Is(err, ErrIdentityMismatch):
		return auditErrIdentityMismatch
	case errors.Is(err, ErrPasswordMismatch):
		return auditErrPasswordMismatch
	case errors.Is(err, ErrEmailVerificationRequired):
		return auditErrEmailCodeRequired
	case errors.Is(err, ErrEmailCodeInvalid):
		return auditErrEmailCodeInvalid
	case errors.Is(err, ErrEmailCodeAttempts):
		return auditErrAttemptsExceeded
	case errors.Is(err, ErrEmergencyOverrideRequired):
		return auditErrOverrideRequired
	case errors.Is(err, ErrEmergencyOverrideInvalid):
		return auditErrOverrideInvalid
	case errors.Is(err, ErrEmergencyCooldownActive):
		return auditErrCooldownActive
	case errors.Is(err, ErrIdentityProviderError):
		return auditErrProvider
	case errors.Is(err, ErrSessionInvalidationFailed):
		return auditErrSessionInvalidation
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
