package adminauth

import "strings"

const defaultMinPasswordLength = 12

// DefaultPasswordPolicy is the built-in [PasswordPolicy]: minimum length
// plus all four character classes. Deployments with their own composition
// rules inject a replacement through the builder.
type DefaultPasswordPolicy struct {
	MinLength int
}

// NewDefaultPasswordPolicy describes the newdefaultpasswordpolicy operation and its observable behavior.
//
// NewDefaultPasswordPolicy may return an error when input validation, dependency calls, or security checks fail.
// NewDefaultPasswordPolicy does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewDefaultPasswordPolicy() *DefaultPasswordPolicy {
	return &DefaultPasswordPolicy{MinLength: defaultMinPasswordLength}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (p *DefaultPasswordPolicy) Validate(plaintext string) PolicyResult {
	minLength := p.MinLength
	if minLength <= 0 {
		minLength = defaultMinPasswordLength
	}

	var violations []string
	if len(plaintext) < minLength {
		violations = append(violations, "password too short")
	}
	if !strings.ContainsFunc(plaintext, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
		violations = append(violations, "missing lowercase character")
	}
	if !strings.ContainsFunc(plaintext, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		violations = append(violations, "missing uppercase character")
	}
	if !strings.ContainsFunc(plaintext, func(r rune) bool { return r >= '0' && r <= '9' }) {
		violations = append(violations, "missing digit")
	}
	if !strings.ContainsAny(plaintext, "!@#$%^&*()-_=+[]{};:'\",.<>/?`~\\|") {
		violations = append(violations, "missing symbol")
	}

	return PolicyResult{
		Valid:      len(violations) == 0,
		Violations: violations,
	}
}
