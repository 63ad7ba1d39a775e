package adminauth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEmergencyResetIssuesTemporaryPassword(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	identity := newMockIdentityProvider()
	sink := &captureSink{}
	engine := newTestEngine(t, rdb, identity, newMockCodeSender(), sink)

	result, err := engine.EmergencyReset(context.Background(), EmergencyResetRequest{
		ActorID:  "s1",
		TargetID: "a1",
		Reason:   "account takeover suspected",
	})
	if err != nil {
		t.Fatalf("EmergencyReset failed: %v", err)
	}

	password := result.TemporaryPassword
	if len(password) != engine.config.Emergency.TempPasswordLength {
		t.Fatalf("expected %d-char password, got %d", engine.config.Emergency.TempPasswordLength, len(password))
	}
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}
	if !lower || !upper || !digit || !symbol {
		t.Fatalf("temporary password missing a character class: %q", password)
	}
	if identity.updatedPassword["a1"] != password {
		t.Fatal("credential was not set to the temporary password")
	}
	if !result.SessionsInvalidated {
		t.Fatal("expected target sessions invalidated")
	}

	engine.Close()
	events := sink.byType(auditEventEmergencyPasswordReset)
	if len(events) != 1 {
		t.Fatalf("expected one emergency reset event, got %d", len(events))
	}
	if events[0].Risk != RiskCritical {
		t.Fatalf("expected critical risk, got %s", events[0].Risk)
	}
	if events[0].Metadata["temp_password_generated"] != "true" {
		t.Fatal("event must record that a password was generated")
	}
	for key, value := range events[0].Metadata {
		if strings.Contains(value, password) {
			t.Fatalf("temporary password leaked into audit metadata key %s", key)
		}
	}
}

func TestEmergencyResetRequiresSuperAdmin(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	identity := newMockIdentityProvider()
	sink := &captureSink{}
	engine := newTestEngine(t, rdb, identity, newMockCodeSender(), sink)

	_, err := engine.EmergencyReset(context.Background(), EmergencyResetRequest{
		ActorID:  "a1",
		TargetID: "u1",
	})
	if !errors.Is(err, ErrInsufficientPrivilege) {
		t.Fatalf("expected ErrInsufficientPrivilege, got %v", err)
	}
	if identity.updates() != 0 {
		t.Fatal("denied reset must not touch the credential")
	}

	engine.Close()
	if events := sink.byType(auditEventUnauthorizedEmergencyReset); len(events) != 1 {
		t.Fatalf("expected one unauthorized reset event, got %d", len(events))
	}
}

func TestEmergencyResetCooldown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	identity := newMockIdentityProvider()
	engine := newTestEngine(t, rdb, identity, newMockCodeSender(), nil)

	first, err := engine.EmergencyReset(context.Background(), EmergencyResetRequest{
		ActorID:  "s1",
		TargetID: "a1",
	})
	if err != nil {
		t.Fatalf("first EmergencyReset failed: %v", err)
	}

	_, err = engine.EmergencyReset(context.Background(), EmergencyResetRequest{
		ActorID:  "s1",
		TargetID: "u1",
	})
	if !errors.Is(err, ErrEmergencyCooldownActive) {
		t.Fatalf("expected ErrEmergencyCooldownActive, got %v", err)
	}

	// A different super-admin is not held by s1's cooldown.
	if _, err := engine.EmergencyReset(context.Background(), EmergencyResetRequest{
		ActorID:  "s2",
		TargetID: "u1",
	}); err != nil {
		t.Fatalf("second actor must not share the cooldown: %v", err)
	}

	mr.FastForward(engine.config.Emergency.Cooldown + time.Minute)

	second, err := engine.EmergencyReset(context.Background(), EmergencyResetRequest{
		ActorID:  "s1",
		TargetID: "a1",
	})
	if err != nil {
		t.Fatalf("EmergencyReset after cooldown failed: %v", err)
	}
	if second.TemporaryPassword == first.TemporaryPassword {
		t.Fatal("temporary passwords must not repeat")
	}
}

func TestEmergencyResetUnknownTarget(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	identity := newMockIdentityProvider()
	engine := newTestEngine(t, rdb, identity, newMockCodeSender(), nil)

	_, err := engine.EmergencyReset(context.Background(), EmergencyResetRequest{
		ActorID:  "s1",
		TargetID: "ghost",
	})
	if !errors.Is(err, ErrIdentityLookupFailed) {
		t.Fatalf("expected ErrIdentityLookupFailed, got %v", err)
	}
}

func TestEmergencyResetProviderFailure(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	identity := newMockIdentityProvider()
	identity.updateErr = errors.New("directory offline")
	sink := &captureSink{}
	engine := newTestEngine(t, rdb, identity, newMockCodeSender(), sink)

	_, err := engine.EmergencyReset(context.Background(), EmergencyResetRequest{
		ActorID:  "s1",
		TargetID: "a1",
	})
	if !errors.Is(err, ErrIdentityProviderError) {
		t.Fatalf("expected ErrIdentityProviderError, got %v", err)
	}

	// A failed reset must not start the cooldown.
	identity.updateErr = nil
	if _, err := engine.EmergencyReset(context.Background(), EmergencyResetRequest{
		ActorID:  "s1",
		TargetID: "a1",
	}); err != nil {
		t.Fatalf("retry after provider recovery failed: %v", err)
	}

	engine.Close()
	if events := sink.byType(auditEventEmergencyResetFailed); len(events) != 1 {
		t.Fatalf("expected one reset-failed event, got %d", len(events))
	}
}
