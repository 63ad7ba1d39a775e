package adminauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/credware/adminauth/internal"
)

// Verification method labels reported in CompleteResult and audit metadata.
const (
	verificationMethodCurrentPassword = "current_password"
	verificationMethodEmailCode       = "email_code"
	verificationMethodOverrideCode    = "emergency_override"
)

// Complete finishes a pending password change. It validates the token and
// request pairing, the verification window, the caller identity, that the
// new password is the one the request was initiated with, and any
// required email or override codes, then consumes the verification record
// atomically before applying the new credential. The atomic consume is what
// bounds a request to at most one successful completion, even under
// concurrent calls with the same token.
//
// A caller-identity mismatch and a missing email code both leave the pending
// state intact: a third party must not be able to destroy a legitimate
// request by poking at it.
//
// Complete may return an error when input validation, dependency calls, or security checks fail.
// Complete does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Complete(ctx context.Context, req CompleteRequest) (*CompleteResult, error) {
	if e == nil || e.identity == nil || e.requests == nil || e.verifications == nil {
		return nil, ErrEngineNotReady
	}
	if req.RequestID == "" || req.Token == "" {
		return nil, e.failCompleteNotFound(ctx, req)
	}
	if err := internal.ValidateVerificationToken(req.Token); err != nil {
		return nil, e.failCompleteNotFound(ctx, req)
	}

	request, err := e.requests.Get(ctx, req.RequestID)
	if err != nil {
		if errors.Is(err, errRecordNotFound) {
			return nil, e.failCompleteNotFound(ctx, req)
		}
		return nil, err
	}
	record, err := e.verifications.Get(ctx, req.Token)
	if err != nil {
		if errors.Is(err, errRecordNotFound) {
			return nil, e.failCompleteNotFound(ctx, req)
		}
		return nil, err
	}
	if record.RequestID != request.RequestID {
		return nil, e.failCompleteNotFound(ctx, req)
	}

	if record.Expired(time.Now()) {
		cleanupCtx := context.WithoutCancel(ctx)
		_ = e.verifications.Delete(cleanupCtx, req.Token)
		_ = e.requests.Delete(cleanupCtx, req.RequestID)
		e.metricInc(MetricCompleteExpired)
		e.emitAudit(ctx, auditEventPasswordChangeAttempt, ActionPasswordChange, "", false, req.CallerID, request.TargetID, ErrVerificationExpired, nil)
		return nil, ErrVerificationExpired
	}

	if request.RequestorID != req.CallerID {
		e.metricInc(MetricCompleteIdentityMismatch)
		e.emitAudit(ctx, auditEventPasswordChangeIdentityMism, ActionPasswordChange, RiskCritical, false, req.CallerID, request.TargetID, ErrIdentityMismatch, func() map[string]string {
			return map[string]string{
				"request_id": request.RequestID,
				"requestor":  request.RequestorID,
			}
		})
		return nil, ErrIdentityMismatch
	}

	// The credential applied below must be the one that passed the policy
	// gate at initiation; anything else is rejected before any code attempt
	// is spent.
	passwordDigest := internal.HashSecret(req.NewPassword)
	if subtle.ConstantTimeCompare(record.NewPasswordHash[:], passwordDigest[:]) != 1 {
		e.metricInc(MetricCompletePasswordMismatch)
		e.emitAudit(ctx, auditEventPasswordChangeAttempt, ActionPasswordChange, RiskHigh, false, req.CallerID, request.TargetID, ErrPasswordMismatch, nil)
		return nil, ErrPasswordMismatch
	}

	if record.EmailVerificationSent && req.EmailCode == "" {
		return nil, ErrEmailVerificationRequired
	}
	if record.EmergencyOverride {
		if req.OverrideCode == "" {
			return nil, ErrEmergencyOverrideRequired
		}
		provided := internal.HashSecret(req.OverrideCode)
		if subtle.ConstantTimeCompare(record.OverrideHash[:], provided[:]) != 1 {
			e.emitAudit(ctx, auditEventInvalidEmergencyOverride, ActionPasswordChange, RiskCritical, false, req.CallerID, request.TargetID, ErrEmergencyOverrideInvalid, nil)
			return nil, ErrEmergencyOverrideInvalid
		}
	}

	// Point of no return: the consume below is the single atomic
	// compare-and-delete. A second completion with the same token loses the
	// race inside the store, never after it.
	consumed, err := e.verifications.Consume(
		ctx,
		req.Token,
		req.RequestID,
		internal.HashSecret(req.EmailCode),
		record.EmailVerificationSent,
		e.config.Change.MaxCodeAttempts,
	)
	if err != nil {
		switch {
		case errors.Is(err, errCodeMismatch):
			e.metricInc(MetricCompleteCodeInvalid)
			e.emitAudit(ctx, auditEventInvalidEmailVerification, ActionPasswordChange, RiskHigh, false, req.CallerID, request.TargetID, ErrEmailCodeInvalid, nil)
			return nil, ErrEmailCodeInvalid
		case errors.Is(err, errAttemptsExceeded):
			cleanupCtx := context.WithoutCancel(ctx)
			_ = e.requests.Delete(cleanupCtx, req.RequestID)
			e.metricInc(MetricCompleteCodeInvalid)
			e.emitAudit(ctx, auditEventEmailCodeAttemptsExceeded, ActionPasswordChange, RiskCritical, false, req.CallerID, request.TargetID, ErrEmailCodeAttempts, nil)
			return nil, ErrEmailCodeAttempts
		case errors.Is(err, errRecordNotFound):
			return nil, e.failCompleteNotFound(ctx, req)
		default:
			return nil, err
		}
	}

	method := verificationMethodCurrentPassword
	switch {
	case consumed.EmergencyOverride:
		method = verificationMethodOverrideCode
	case consumed.EmailVerificationSent:
		method = verificationMethodEmailCode
	}

	if err := e.identity.UpdateCredential(ctx, request.TargetID, req.NewPassword); err != nil {
		// The record is already consumed; the request is burned rather than
		// left completable without its verification pair.
		_ = e.requests.Delete(context.WithoutCancel(ctx), req.RequestID)
		e.emitAudit(ctx, auditEventPasswordChangeAttempt, ActionPasswordChange, "", false, req.CallerID, request.TargetID, ErrIdentityProviderError, nil)
		return nil, fmt.Errorf("%w: %v", ErrIdentityProviderError, err)
	}

	_ = e.requests.Delete(context.WithoutCancel(ctx), req.RequestID)

	e.metricInc(MetricCompleteSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeCompleted, ActionPasswordChange, "", true, req.CallerID, request.TargetID, nil, func() map[string]string {
		return map[string]string{
			"request_id": request.RequestID,
			"method":     method,
		}
	})

	result := &CompleteResult{
		VerificationMethod:  method,
		SessionsInvalidated: true,
		Message:             "password changed",
	}
	if err := e.invalidateSessions(ctx, request.TargetID); err != nil {
		result.SessionsInvalidated = false
		result.Warning = "active sessions could not be invalidated"
	}

	return result, nil
}

func (e *Engine) failCompleteNotFound(ctx context.Context, req CompleteRequest) error {
	e.metricInc(MetricCompleteNotFound)
	e.emitAudit(ctx, auditEventPasswordChangeAttempt, ActionPasswordChange, "", false, req.CallerID, "", ErrRequestNotFound, nil)
	return ErrRequestNotFound
}

// invalidateSessions is best effort after a committed credential change. A
// failure degrades to an audit event and a result warning; the password
// change is never rolled back at this point.
func (e *Engine) invalidateSessions(ctx context.Context, targetID string) error {
	if e.sessions == nil {
		return nil
	}
	if err := e.sessions.InvalidateAllSessions(ctx, targetID); err != nil {
		e.emitAudit(ctx, auditEventSessionInvalidationDegraded, ActionPasswordChange, RiskHigh, false, "", targetID, ErrSessionInvalidationFailed, nil)
		return fmt.Errorf("%w: %v", ErrSessionInvalidationFailed, err)
	}
	e.metricInc(MetricSessionsInvalidated)
	return nil
}
