package adminauth

import (
	"errors"
	"testing"
)

func TestIsSelfChange(t *testing.T) {
	if !IsSelfChange("u1", "u1") {
		t.Fatal("same id must be a self change")
	}
	if IsSelfChange("u1", "u2") {
		t.Fatal("different ids must not be a self change")
	}
	if IsSelfChange("", "") {
		t.Fatal("empty ids must not count as a self change")
	}
}

func TestCanInitiateRuleOrder(t *testing.T) {
	admin := &AdminRecord{UserID: "a1", Admin: true}
	otherAdmin := &AdminRecord{UserID: "a2", Admin: true}
	super := &AdminRecord{UserID: "s1", Admin: true, SuperAdmin: true}
	otherSuper := &AdminRecord{UserID: "s2", Admin: true, SuperAdmin: true}

	cases := []struct {
		name       string
		requestor  *AdminRecord
		target     *AdminRecord
		selfChange bool
		want       error
	}{
		{"self change always allowed", admin, admin, true, nil},
		{"super admin self change allowed", super, super, true, nil},
		{"admin cannot change another admin", admin, otherAdmin, false, ErrInsufficientPrivilege},
		{"admin cannot change a super admin", admin, super, false, ErrInsufficientPrivilege},
		{"super admin may change an ordinary admin", super, admin, false, nil},
		{"super admin cannot change another super admin", super, otherSuper, false, ErrSuperAdminProtected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CanInitiate(tc.requestor, tc.target, tc.selfChange)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRequirementsFor(t *testing.T) {
	member := &AdminRecord{UserID: "m1"}
	admin := &AdminRecord{UserID: "a1", Admin: true}
	super := &AdminRecord{UserID: "s1", Admin: true, SuperAdmin: true}

	reqs := RequirementsFor(admin, true, false)
	if !reqs.CurrentPassword || !reqs.EmailVerification || reqs.TwoFactor || reqs.EmergencyOverride {
		t.Fatalf("admin self change: unexpected requirements %+v", reqs)
	}

	reqs = RequirementsFor(super, false, false)
	if reqs.CurrentPassword || !reqs.EmailVerification || !reqs.TwoFactor {
		t.Fatalf("super admin target: unexpected requirements %+v", reqs)
	}

	reqs = RequirementsFor(member, false, true)
	if reqs.EmailVerification || reqs.TwoFactor || !reqs.EmergencyOverride {
		t.Fatalf("non-admin emergency target: unexpected requirements %+v", reqs)
	}
}

func TestCanEmergencyReset(t *testing.T) {
	if err := CanEmergencyReset(&AdminRecord{UserID: "s1", SuperAdmin: true}); err != nil {
		t.Fatalf("super admin must pass: %v", err)
	}
	if err := CanEmergencyReset(&AdminRecord{UserID: "a1", Admin: true}); !errors.Is(err, ErrInsufficientPrivilege) {
		t.Fatalf("admin must be denied, got %v", err)
	}
}
