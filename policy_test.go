package adminauth

import (
	"slices"
	"testing"
)

func TestDefaultPasswordPolicy(t *testing.T) {
	policy := NewDefaultPasswordPolicy()

	tests := []struct {
		name       string
		plaintext  string
		valid      bool
		violations []string
	}{
		{
			name:      "strong password valid",
			plaintext: "Str0ng-Enough!Pass",
			valid:     true,
		},
		{
			name:       "too short",
			plaintext:  "Sh0rt!",
			valid:      false,
			violations: []string{"password too short"},
		},
		{
			name:       "missing lowercase",
			plaintext:  "ALLUPPER-123456!",
			valid:      false,
			violations: []string{"missing lowercase character"},
		},
		{
			name:       "missing uppercase",
			plaintext:  "alllower-123456!",
			valid:      false,
			violations: []string{"missing uppercase character"},
		},
		{
			name:       "missing digit",
			plaintext:  "NoDigitsHere-Why!",
			valid:      false,
			violations: []string{"missing digit"},
		},
		{
			name:       "missing symbol",
			plaintext:  "NoSymbolsHere123",
			valid:      false,
			violations: []string{"missing symbol"},
		},
		{
			name:      "empty collects every violation",
			plaintext: "",
			valid:     false,
			violations: []string{
				"password too short",
				"missing lowercase character",
				"missing uppercase character",
				"missing digit",
				"missing symbol",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := policy.Validate(tc.plaintext)
			if result.Valid != tc.valid {
				t.Fatalf("expected valid=%v, got %v (violations: %v)", tc.valid, result.Valid, result.Violations)
			}
			for _, want := range tc.violations {
				if !slices.Contains(result.Violations, want) {
					t.Fatalf("expected violation %q, got %v", want, result.Violations)
				}
			}
			if tc.valid && len(result.Violations) != 0 {
				t.Fatalf("valid result must carry no violations, got %v", result.Violations)
			}
		})
	}
}

func TestDefaultPasswordPolicyCustomMinLength(t *testing.T) {
	policy := &DefaultPasswordPolicy{MinLength: 20}

	if result := policy.Validate("Str0ng-Enough!Pass"); result.Valid {
		t.Fatal("expected 18-char password to fail a 20-char minimum")
	}
	if result := policy.Validate("Str0ng-Enough!Pass20"); !result.Valid {
		t.Fatalf("expected 20-char password to pass, got %v", result.Violations)
	}
}

func TestDefaultPasswordPolicyZeroMinLengthFallsBack(t *testing.T) {
	policy := &DefaultPasswordPolicy{}

	if result := policy.Validate("Sh0rt-1!"); result.Valid {
		t.Fatal("expected fallback minimum length to reject an 8-char password")
	}
	if result := policy.Validate("Long-Enough-1!"); !result.Valid {
		t.Fatalf("expected 14-char password to pass fallback minimum, got %v", result.Violations)
	}
}
