package security

import (
	"testing"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

func codesOf(violations []Violation) map[string]bool {
	codes := make(map[string]bool, len(violations))
	for _, v := range violations {
		codes[v.Code] = true
	}
	return codes
}

func TestPolicyValidatorSuccess(t *testing.T) {
	validator := PolicyValidator(12, 2, "diner", "diner")

	password := "C0mplex!Passphrase#2026"
	if strength := zxcvbn.PasswordStrength(password, nil); strength.Score < 2 {
		t.Fatalf("test password unexpectedly weak: score=%d", strength.Score)
	}
	if violations := validator.Validate(password); len(violations) != 0 {
		t.Fatalf("expected password to pass validation, got %v", violations)
	}
}

func TestPolicyValidatorAccumulatesViolations(t *testing.T) {
	validator := PolicyValidator(12, 2, "diner")

	violations := validator.Validate("diner1")
	if len(violations) < 3 {
		t.Fatalf("expected several violations at once, got %v", violations)
	}

	codes := codesOf(violations)
	for _, want := range []string{"min_length", "uppercase", "symbol", "similar_to_attribute"} {
		if !codes[want] {
			t.Errorf("expected violation %q, got %v", want, codes)
		}
	}
}

func TestPolicyValidatorSingleViolations(t *testing.T) {
	validator := PolicyValidator(8, 0)

	cases := []struct {
		password string
		code     string
	}{
		{"Sh0r!", "min_length"},
		{"lowercase-only-9", "uppercase"},
		{"UPPERCASE-ONLY-9", "lowercase"},
		{"No-Digits-Here!", "digit"},
		{"NoSymbolsHere9", "symbol"},
		{"Password123", "common_password"},
	}

	for _, tc := range cases {
		codes := codesOf(validator.Validate(tc.password))
		if !codes[tc.code] {
			t.Errorf("password %q: expected violation %q, got %v", tc.password, tc.code, codes)
		}
	}
}

func TestNotNumericOnlyRule(t *testing.T) {
	rule := NotNumericOnlyRule()

	if v := rule.Check("73829105847362"); v == nil || v.Code != "numeric_only" {
		t.Fatalf("expected numeric_only violation, got %v", v)
	}
	if v := rule.Check("73829105847362a"); v != nil {
		t.Fatalf("expected pass with a letter present, got %v", v)
	}
}

func TestNotSimilarToAttributesRule(t *testing.T) {
	rule := NotSimilarToAttributesRule("diner", "ab")

	if v := rule.Check("MyDinerPass!9"); v == nil {
		t.Fatal("expected rejection when the password contains the username")
	}
	// Attributes shorter than three runes are ignored.
	if v := rule.Check("Absolutely-Fine-Pass9!"); v != nil {
		t.Fatalf("expected short attribute ignored, got %v", v)
	}
}

func TestStrengthRule(t *testing.T) {
	rule := StrengthRule(3)

	if v := rule.Check("Password1!"); v == nil || v.Code != "weak_password" {
		t.Fatalf("expected weak_password violation, got %v", v)
	}
	if v := rule.Check("marble-tundra-sketch-ferry-5"); v != nil {
		t.Fatalf("expected long passphrase to pass, got %v", v)
	}

	// Disabled when the minimum score is zero.
	if v := StrengthRule(0).Check("abc"); v != nil {
		t.Fatalf("expected disabled rule to pass everything, got %v", v)
	}
}

func TestNilValidator(t *testing.T) {
	var validator *PasswordValidator
	if violations := validator.Validate("anything"); len(violations) != 1 {
		t.Fatalf("expected a single configuration violation, got %v", violations)
	}
}
