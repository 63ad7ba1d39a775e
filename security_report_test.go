package adminauth

import "testing"

func TestSecurityReportReflectsConfig(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb, newMockIdentityProvider(), newMockCodeSender(), nil)

	report := engine.SecurityReport()

	if report.VerificationTTL != engine.config.Change.VerificationTTL {
		t.Fatalf("VerificationTTL mismatch: %v", report.VerificationTTL)
	}
	if report.RequestTTL != engine.config.Change.RequestTTL {
		t.Fatalf("RequestTTL mismatch: %v", report.RequestTTL)
	}
	if report.CodeDigits != engine.config.Change.CodeDigits {
		t.Fatalf("CodeDigits mismatch: %d", report.CodeDigits)
	}
	if report.EmergencyCooldown != engine.config.Emergency.Cooldown {
		t.Fatalf("EmergencyCooldown mismatch: %v", report.EmergencyCooldown)
	}
	if report.MinPasswordLength != defaultMinPasswordLength {
		t.Fatalf("expected default MinPasswordLength, got %d", report.MinPasswordLength)
	}
	if !report.RateLimitingActive {
		t.Fatal("expected rate limiting active")
	}
	if !report.CorrelatorActive {
		t.Fatal("expected correlator active")
	}
	if !report.SessionInvalidationWired {
		t.Fatal("expected session invalidation wired")
	}
	if report.SweeperActive {
		t.Fatal("expected sweeper inactive in the test harness")
	}
}

func TestSecurityReportDisabledSubsystems(t *testing.T) {
	engine := newMemoryTestEngine(t, newMockIdentityProvider(), newMockCodeSender(), nil)
	engine.correlator = nil
	engine.sessions = nil

	report := engine.SecurityReport()

	if report.RateLimitingActive {
		t.Fatal("expected rate limiting inactive")
	}
	if report.CorrelatorActive {
		t.Fatal("expected correlator inactive")
	}
	if report.SessionInvalidationWired {
		t.Fatal("expected session invalidation unwired")
	}
	if report.SweeperActive {
		t.Fatal("expected sweeper inactive")
	}
}

func TestSecurityReportNilEngine(t *testing.T) {
	var engine *Engine
	report := engine.SecurityReport()

	if report.VerificationTTL != 0 || report.RateLimitingActive || report.AuditActive {
		t.Fatalf("expected zero report from nil engine, got %+v", report)
	}
}
