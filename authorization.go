package adminauth

// Authorization rules for the password-change flows. These are pure
// functions: no I/O, no store access, deterministic for a given pair of
// admin records. The orchestrator evaluates them before creating any state.

// IsSelfChange reports whether the requestor is changing their own
// credential.
func IsSelfChange(requestorID, targetID string) bool {
	return requestorID != "" && requestorID == targetID
}

// CanInitiate evaluates the deny rules for an ordinary (non-emergency)
// initiate call. Rules apply in order and the first match wins:
//
//  1. A non-self change requires a super-admin requestor.
//  2. A super-admin credential can only be changed by that super-admin
//     themselves or through the emergency path.
//
// The returned error is nil when the change is allowed.
func CanInitiate(requestor, target *AdminRecord, selfChange bool) error {
	if !selfChange && !requestor.SuperAdmin {
		return ErrInsufficientPrivilege
	}
	if !selfChange && target.SuperAdmin {
		return ErrSuperAdminProtected
	}
	return nil
}

// RequirementsFor derives which proofs a completion must present.
// Self-service changes always reprove the current credential; admin targets
// add email verification; super-admin targets force the two-factor flag;
// the emergency flag adds the override code requirement.
func RequirementsFor(target *AdminRecord, selfChange, emergency bool) VerificationRequirements {
	return VerificationRequirements{
		CurrentPassword:   selfChange,
		EmailVerification: target.Admin || target.SuperAdmin,
		TwoFactor:         target.SuperAdmin,
		EmergencyOverride: emergency,
	}
}

// CanEmergencyReset gates the emergency path on the actor's super-admin
// claim.
func CanEmergencyReset(actor *AdminRecord) error {
	if !actor.SuperAdmin {
		return ErrInsufficientPrivilege
	}
	return nil
}
