package adminauth

import "time"

type SecurityReport struct {
	VerificationTTL          time.Duration
	RequestTTL               time.Duration
	CodeDigits               int
	MaxCodeAttempts          int
	EmergencyCooldown        time.Duration
	TempPasswordLength       int
	MinPasswordLength        int
	RateLimitingActive       bool
	RateLimitMaxAttempts     int
	RateLimitWindow          time.Duration
	CorrelatorActive         bool
	CorrelatorWindow         time.Duration
	FailedLoginThreshold     int
	PasswordChangeThreshold  int
	SweeperActive            bool
	SweeperInterval          time.Duration
	AuditActive              bool
	SessionInvalidationWired bool
	MetricsEnabled           bool
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	minLength := 0
	if p, ok := e.policy.(*DefaultPasswordPolicy); ok && p != nil {
		minLength = p.MinLength
	}

	return SecurityReport{
		VerificationTTL:          e.config.Change.VerificationTTL,
		RequestTTL:               e.config.Change.RequestTTL,
		CodeDigits:               e.config.Change.CodeDigits,
		MaxCodeAttempts:          e.config.Change.MaxCodeAttempts,
		EmergencyCooldown:        e.config.Emergency.Cooldown,
		TempPasswordLength:       e.config.Emergency.TempPasswordLength,
		MinPasswordLength:        minLength,
		RateLimitingActive:       e.config.RateLimit.Enabled && e.limiter != nil,
		RateLimitMaxAttempts:     e.config.RateLimit.MaxAttempts,
		RateLimitWindow:          e.config.RateLimit.Window,
		CorrelatorActive:         e.correlator != nil,
		CorrelatorWindow:         e.config.Correlator.Window,
		FailedLoginThreshold:     e.config.Correlator.FailedLoginThreshold,
		PasswordChangeThreshold:  e.config.Correlator.PasswordChangeThreshold,
		SweeperActive:            e.sweeper != nil,
		SweeperInterval:          e.config.Sweeper.Interval,
		AuditActive:              e.audit != nil,
		SessionInvalidationWired: e.sessions != nil,
		MetricsEnabled:           e.config.Metrics.Enabled && e.metrics != nil,
	}
}
