package adminauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/credware/adminauth/internal"
)

// EmergencyReset forcibly resets the target's credential to a generated
// temporary password. Only super-admins may call it, and each actor is held
// to one reset per cooldown window. The temporary password is returned to
// the caller exactly once; it is never stored and never appears in audit
// metadata.
//
// EmergencyReset may return an error when input validation, dependency calls, or security checks fail.
// EmergencyReset does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) EmergencyReset(ctx context.Context, req EmergencyResetRequest) (*EmergencyResetResult, error) {
	if e == nil || e.identity == nil || e.cooldowns == nil {
		return nil, ErrEngineNotReady
	}
	if req.ActorID == "" || req.TargetID == "" {
		return nil, ErrIdentityLookupFailed
	}

	actor, err := e.identity.GetUser(ctx, req.ActorID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		e.metricInc(MetricEmergencyDenied)
		e.emitAudit(ctx, auditEventUnauthorizedEmergencyReset, ActionPasswordChange, RiskCritical, false, req.ActorID, req.TargetID, ErrIdentityLookupFailed, nil)
		return nil, ErrIdentityLookupFailed
	}

	if err := CanEmergencyReset(&actor); err != nil {
		e.metricInc(MetricEmergencyDenied)
		e.emitAudit(ctx, auditEventUnauthorizedEmergencyReset, ActionPasswordChange, RiskCritical, false, req.ActorID, req.TargetID, err, nil)
		return nil, err
	}

	now := time.Now()
	active, remaining, err := e.cooldowns.Active(ctx, req.ActorID, now)
	if err != nil {
		return nil, err
	}
	if active {
		// Expected, non-adversarial rejection: normal logging only, no
		// escalation.
		e.metricInc(MetricEmergencyCooldownHit)
		e.emitAudit(ctx, auditEventEmergencyCooldownRejected, ActionPasswordChange, RiskLow, false, req.ActorID, req.TargetID, ErrEmergencyCooldownActive, func() map[string]string {
			return map[string]string{
				"retry_after": remaining.Round(time.Second).String(),
			}
		})
		return nil, ErrEmergencyCooldownActive
	}

	target, err := e.identity.GetUser(ctx, req.TargetID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		e.metricInc(MetricEmergencyDenied)
		e.emitAudit(ctx, auditEventEmergencyResetFailed, ActionPasswordChange, RiskHigh, false, req.ActorID, req.TargetID, ErrIdentityLookupFailed, nil)
		return nil, ErrIdentityLookupFailed
	}

	tempPassword, err := internal.NewTempPassword(e.config.Emergency.TempPasswordLength)
	if err != nil {
		e.emitAudit(ctx, auditEventEmergencyResetFailed, ActionPasswordChange, RiskHigh, false, req.ActorID, req.TargetID, ErrIdentityProviderError, nil)
		return nil, fmt.Errorf("%w: %v", ErrIdentityProviderError, err)
	}

	if err := e.identity.UpdateCredential(ctx, target.UserID, tempPassword); err != nil {
		e.emitAudit(ctx, auditEventEmergencyResetFailed, ActionPasswordChange, RiskHigh, false, req.ActorID, req.TargetID, ErrIdentityProviderError, nil)
		return nil, fmt.Errorf("%w: %v", ErrIdentityProviderError, err)
	}

	if err := e.cooldowns.Set(context.WithoutCancel(ctx), req.ActorID, now.Add(e.config.Emergency.Cooldown)); err != nil {
		// The credential is already reset; a cooldown write failure must not
		// unwind it. The audit trail records the degradation.
		e.emitAudit(ctx, auditEventEmergencyResetFailed, ActionPasswordChange, RiskHigh, false, req.ActorID, req.TargetID, err, func() map[string]string {
			return map[string]string{
				"reason": "cooldown_write_failed",
			}
		})
	}

	e.metricInc(MetricEmergencySuccess)
	e.emitAudit(ctx, auditEventEmergencyPasswordReset, ActionPasswordChange, RiskCritical, true, req.ActorID, req.TargetID, nil, func() map[string]string {
		return map[string]string{
			"reason":                  req.Reason,
			"temp_password_generated": "true",
		}
	})

	result := &EmergencyResetResult{
		TemporaryPassword:   tempPassword,
		SessionsInvalidated: true,
		Message:             "temporary password issued",
	}
	if err := e.invalidateSessions(ctx, target.UserID); err != nil {
		result.SessionsInvalidated = false
		result.Warning = "active sessions could not be invalidated"
	}

	return result, nil
}
