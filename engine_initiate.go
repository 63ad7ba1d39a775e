package adminauth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/credware/adminauth/internal"
	"github.com/google/uuid"
)

const rateBucketPasswordChange = "passwordChange"

// Initiate starts a password-change request after authorization, policy,
// rate-limit, and current-password checks. On success it persists a pending
// request plus its verification record and, when the target is an admin,
// triggers the email-verification side effect. A self-change call without a
// current password returns a requirements breakdown instead of creating
// state, so callers can discover what a completion will need.
//
// Initiate may return an error when input validation, dependency calls, or security checks fail.
// Initiate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if e == nil || e.identity == nil || e.policy == nil || e.requests == nil || e.verifications == nil {
		return nil, ErrEngineNotReady
	}
	if req.RequestorID == "" || req.TargetID == "" {
		return nil, ErrIdentityLookupFailed
	}

	requestor, err := e.identity.GetUser(ctx, req.RequestorID)
	if err != nil {
		return nil, e.failInitiateLookup(ctx, req, err)
	}
	target, err := e.identity.GetUser(ctx, req.TargetID)
	if err != nil {
		return nil, e.failInitiateLookup(ctx, req, err)
	}

	selfChange := IsSelfChange(req.RequestorID, req.TargetID)

	if err := CanInitiate(&requestor, &target, selfChange); err != nil {
		eventType := auditEventUnauthorizedPasswordChange
		if errors.Is(err, ErrSuperAdminProtected) {
			eventType = auditEventSuperAdminPasswordChange
		}
		e.metricInc(MetricInitiateDenied)
		e.emitAudit(ctx, eventType, ActionPasswordChange, RiskCritical, false, req.RequestorID, req.TargetID, err, func() map[string]string {
			return map[string]string{
				"self_change": strconv.FormatBool(selfChange),
			}
		})
		return nil, err
	}

	policy := e.policy.Validate(req.NewPassword)
	if !policy.Valid {
		e.metricInc(MetricInitiateWeakPassword)
		e.emitAudit(ctx, auditEventPasswordChangeAttempt, ActionPasswordChange, "", false, req.RequestorID, req.TargetID, ErrWeakPassword, func() map[string]string {
			return map[string]string{
				"violations": strconv.Itoa(len(policy.Violations)),
			}
		})
		return &InitiateResult{
			PolicyViolations: policy.Violations,
			Message:          "new password does not satisfy policy",
		}, ErrWeakPassword
	}

	if e.config.RateLimit.Enabled && e.limiter != nil {
		decision, err := e.limiter.CheckAndConsume(ctx, clientIPFromContext(ctx), rateBucketPasswordChange, req.RequestorID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if !decision.Allowed {
			e.metricInc(MetricInitiateRateLimited)
			e.emitAudit(ctx, auditEventPasswordChangeRateLimit, ActionPasswordChange, RiskHigh, false, req.RequestorID, req.TargetID, ErrRateLimited, nil)
			return &InitiateResult{
				RetryAfter: decision.RetryAfter,
				Message:    "too many password change attempts",
			}, ErrRateLimited
		}
	}

	requirements := RequirementsFor(&target, selfChange, req.Emergency)

	currentPasswordVerified := false
	if requirements.CurrentPassword {
		if req.CurrentPassword == "" {
			// Requirements discovery: tell the caller what a real attempt
			// will need without creating any state.
			return &InitiateResult{
				VerificationRequired:  requirements,
				CurrentPasswordNeeded: true,
				Message:               "current password required to proceed",
			}, nil
		}

		ok, err := e.identity.VerifyPassword(ctx, req.RequestorID, req.CurrentPassword)
		if err != nil {
			e.emitAudit(ctx, auditEventPasswordChangeAttempt, ActionPasswordChange, "", false, req.RequestorID, req.TargetID, ErrIdentityProviderError, nil)
			return nil, fmt.Errorf("%w: %v", ErrIdentityProviderError, err)
		}
		if !ok {
			e.metricInc(MetricInitiateInvalidCurrent)
			e.emitAudit(ctx, auditEventInvalidCurrentPassword, ActionPasswordChange, RiskHigh, false, req.RequestorID, req.TargetID, ErrCurrentPasswordInvalid, nil)
			return nil, ErrCurrentPasswordInvalid
		}
		currentPasswordVerified = true
	}

	token, err := internal.NewVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	requestID := uuid.NewString()
	now := time.Now()

	request := &PendingRequest{
		RequestID:      requestID,
		RequestorID:    requestor.UserID,
		RequestorEmail: requestor.Email,
		TargetID:       target.UserID,
		TargetEmail:    target.Email,
		CreatedAt:      now.Unix(),
		Reason:         req.Reason,
		Emergency:      req.Emergency,
	}
	record := &VerificationRecord{
		RequestID:               requestID,
		CurrentPasswordVerified: currentPasswordVerified,
		EmailVerificationSent:   requirements.EmailVerification,
		TwoFactorRequired:       requirements.TwoFactor,
		EmergencyOverride:       requirements.EmergencyOverride,
		NewPasswordHash:         internal.HashSecret(req.NewPassword),
		ExpiresAt:               now.Add(e.config.Change.VerificationTTL).Unix(),
	}

	var emailCode, overrideCode string
	if requirements.EmailVerification {
		emailCode, err = internal.NewOTP(e.config.Change.CodeDigits)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		record.CodeHash = internal.HashSecret(emailCode)
	}
	if requirements.EmergencyOverride {
		overrideCode, err = internal.NewOTP(e.config.Change.CodeDigits)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		record.OverrideHash = internal.HashSecret(overrideCode)
	}

	// Both records plus the outbound code delivery succeed together or not
	// at all; a partial write would strand an uncompletable request.
	if err := e.verifications.Save(ctx, token, record, e.config.Change.RequestTTL); err != nil {
		return nil, err
	}
	if err := e.requests.Save(ctx, request, e.config.Change.RequestTTL); err != nil {
		_ = e.verifications.Delete(context.WithoutCancel(ctx), token)
		return nil, err
	}
	if err := e.sendInitiateCodes(ctx, request, emailCode, overrideCode); err != nil {
		cleanupCtx := context.WithoutCancel(ctx)
		_ = e.verifications.Delete(cleanupCtx, token)
		_ = e.requests.Delete(cleanupCtx, requestID)
		e.emitAudit(ctx, auditEventPasswordChangeAttempt, ActionPasswordChange, "", false, req.RequestorID, req.TargetID, ErrIdentityProviderError, func() map[string]string {
			return map[string]string{
				"reason": "code_delivery_failed",
			}
		})
		return nil, fmt.Errorf("%w: %v", ErrIdentityProviderError, err)
	}

	e.metricInc(MetricInitiateSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeInitiated, ActionPasswordChange, "", true, req.RequestorID, req.TargetID, nil, func() map[string]string {
		return map[string]string{
			"request_id":         requestID,
			"self_change":        strconv.FormatBool(selfChange),
			"emergency":          strconv.FormatBool(req.Emergency),
			"require_current":    strconv.FormatBool(requirements.CurrentPassword),
			"require_email_code": strconv.FormatBool(requirements.EmailVerification),
			"require_two_factor": strconv.FormatBool(requirements.TwoFactor),
			"require_override":   strconv.FormatBool(requirements.EmergencyOverride),
		}
	})

	return &InitiateResult{
		RequestID:            requestID,
		VerificationToken:    token,
		VerificationRequired: requirements,
		Message:              "password change initiated",
	}, nil
}

func (e *Engine) failInitiateLookup(ctx context.Context, req InitiateRequest, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	e.metricInc(MetricInitiateDenied)
	e.emitAudit(ctx, auditEventIdentityLookupFailed, ActionPasswordChange, "", false, req.RequestorID, req.TargetID, ErrIdentityLookupFailed, nil)
	return ErrIdentityLookupFailed
}

// sendInitiateCodes delivers the email verification code to the target and,
// for emergency requests, the override code to the requestor. Codes travel
// out of band only; they are never part of the returned result.
func (e *Engine) sendInitiateCodes(ctx context.Context, request *PendingRequest, emailCode, overrideCode string) error {
	if emailCode == "" && overrideCode == "" {
		return nil
	}
	if e.sender == nil {
		return errors.New("code sender not configured")
	}

	if emailCode != "" {
		if err := e.sender.SendVerificationCode(ctx, request.TargetEmail, emailCode); err != nil {
			return err
		}
	}
	if overrideCode != "" {
		if err := e.sender.SendVerificationCode(ctx, request.RequestorEmail, overrideCode); err != nil {
			return err
		}
	}
	return nil
}
