package adminauth

import (
	"errors"
	"time"
)

// Config defines a public type used by adminauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Change     ChangeConfig
	Emergency  EmergencyConfig
	RateLimit  RateLimitConfig
	Correlator CorrelatorConfig
	Sweeper    SweeperConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
CHANGE CONFIG
====================================
*/

// ChangeConfig defines a public type used by adminauth APIs.
//
// ChangeConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ChangeConfig struct {
	// VerificationTTL bounds the window between Initiate and Complete.
	VerificationTTL time.Duration
	// RequestTTL is the garbage-collection horizon for pending requests,
	// and the storage TTL for both record kinds. Must be >= VerificationTTL
	// so that a Complete inside the GC horizon can report expiry precisely.
	RequestTTL      time.Duration
	CodeDigits      int
	MaxCodeAttempts int
}

// EmergencyConfig defines a public type used by adminauth APIs.
//
// EmergencyConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EmergencyConfig struct {
	Cooldown           time.Duration
	TempPasswordLength int
}

// RateLimitConfig defines a public type used by adminauth APIs.
//
// RateLimitConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RateLimitConfig struct {
	Enabled     bool
	MaxAttempts int
	Window      time.Duration
}

// CorrelatorConfig defines a public type used by adminauth APIs.
//
// CorrelatorConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CorrelatorConfig struct {
	Enabled                 bool
	Window                  time.Duration
	FailedLoginThreshold    int
	PasswordChangeThreshold int
}

// SweeperConfig defines a public type used by adminauth APIs.
//
// SweeperConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SweeperConfig struct {
	Enabled  bool
	Interval time.Duration
}

// AuditConfig defines a public type used by adminauth APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by adminauth APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Change: ChangeConfig{
			VerificationTTL: 15 * time.Minute,
			RequestTTL:      time.Hour,
			CodeDigits:      6,
			MaxCodeAttempts: 5,
		},
		Emergency: EmergencyConfig{
			Cooldown:           24 * time.Hour,
			TempPasswordLength: 16,
		},
		RateLimit: RateLimitConfig{
			Enabled:     true,
			MaxAttempts: 5,
			Window:      15 * time.Minute,
		},
		Correlator: CorrelatorConfig{
			Enabled:                 true,
			Window:                  15 * time.Minute,
			FailedLoginThreshold:    3,
			PasswordChangeThreshold: 2,
		},
		Sweeper: SweeperConfig{
			Enabled:  true,
			Interval: 5 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if c.Change.VerificationTTL <= 0 {
		return errors.New("Change VerificationTTL must be > 0")
	}
	if c.Change.RequestTTL <= 0 {
		return errors.New("Change RequestTTL must be > 0")
	}
	if c.Change.RequestTTL < c.Change.VerificationTTL {
		return errors.New("Change RequestTTL must be >= VerificationTTL")
	}
	if c.Change.CodeDigits < 6 || c.Change.CodeDigits > 10 {
		return errors.New("Change CodeDigits must be between 6 and 10")
	}
	if c.Change.MaxCodeAttempts <= 0 {
		return errors.New("Change MaxCodeAttempts must be > 0")
	}

	if c.Emergency.Cooldown <= 0 {
		return errors.New("Emergency Cooldown must be > 0")
	}
	if c.Emergency.TempPasswordLength < 12 {
		return errors.New("Emergency TempPasswordLength must be >= 12")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.MaxAttempts <= 0 {
			return errors.New("RateLimit MaxAttempts must be > 0 when enabled")
		}
		if c.RateLimit.Window <= 0 {
			return errors.New("RateLimit Window must be > 0 when enabled")
		}
	}

	if c.Correlator.Enabled {
		if c.Correlator.Window <= 0 {
			return errors.New("Correlator Window must be > 0 when enabled")
		}
		if c.Correlator.FailedLoginThreshold <= 0 {
			return errors.New("Correlator FailedLoginThreshold must be > 0 when enabled")
		}
		if c.Correlator.PasswordChangeThreshold <= 0 {
			return errors.New("Correlator PasswordChangeThreshold must be > 0 when enabled")
		}
	}

	if c.Sweeper.Enabled && c.Sweeper.Interval <= 0 {
		return errors.New("Sweeper Interval must be > 0 when enabled")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
