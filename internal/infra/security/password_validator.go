package security

import (
	"fmt"
	"strings"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// Violation describes a single password policy failure. Validation is not
// fail-fast: callers receive every violation so forms can show all errors at
// once.
type Violation struct {
	Code    string
	Message string
}

// PasswordRule checks one policy rule and reports nil when it passes.
type PasswordRule interface {
	Check(password string) *Violation
}

// PasswordRuleFunc adapts a function to be used as a PasswordRule.
type PasswordRuleFunc func(password string) *Violation

// Check executes the underlying rule function.
func (f PasswordRuleFunc) Check(password string) *Violation {
	return f(password)
}

// PasswordValidator applies a sequence of password rules, accumulating every
// violation instead of stopping at the first.
type PasswordValidator struct {
	rules []PasswordRule
}

// NewPasswordValidator constructs a validator with the provided rules.
func NewPasswordValidator(rules ...PasswordRule) *PasswordValidator {
	copied := make([]PasswordRule, len(rules))
	copy(copied, rules)
	return &PasswordValidator{rules: copied}
}

// Validate runs all rules and returns the collected violations, empty when
// the password passes.
func (v *PasswordValidator) Validate(password string) []Violation {
	if v == nil {
		return []Violation{{Code: "validator", Message: "password validator not configured"}}
	}

	var violations []Violation
	for _, rule := range v.rules {
		if viol := rule.Check(password); viol != nil {
			violations = append(violations, *viol)
		}
	}
	return violations
}

// MinLengthRule ensures the password has at least min characters.
func MinLengthRule(min int) PasswordRule {
	return PasswordRuleFunc(func(password string) *Violation {
		if len([]rune(password)) < min {
			return &Violation{
				Code:    "min_length",
				Message: fmt.Sprintf("password must be at least %d characters long", min),
			}
		}
		return nil
	})
}

// RequireUppercaseRule ensures at least one uppercase letter.
func RequireUppercaseRule() PasswordRule {
	return requireClass("uppercase", "password must include at least one uppercase letter", unicode.IsUpper)
}

// RequireLowercaseRule ensures at least one lowercase letter.
func RequireLowercaseRule() PasswordRule {
	return requireClass("lowercase", "password must include at least one lowercase letter", unicode.IsLower)
}

// RequireDigitRule ensures at least one digit.
func RequireDigitRule() PasswordRule {
	return requireClass("digit", "password must include at least one number", unicode.IsDigit)
}

// RequireSymbolRule ensures at least one non-alphanumeric character.
func RequireSymbolRule() PasswordRule {
	return requireClass("symbol", "password must include at least one special character", func(r rune) bool {
		return unicode.IsSymbol(r) || unicode.IsPunct(r) || r == '_'
	})
}

func requireClass(code, message string, match func(rune) bool) PasswordRule {
	return PasswordRuleFunc(func(password string) *Violation {
		for _, r := range password {
			if match(r) {
				return nil
			}
		}
		return &Violation{Code: code, Message: message}
	})
}

// NotNumericOnlyRule rejects passwords consisting entirely of digits.
func NotNumericOnlyRule() PasswordRule {
	return PasswordRuleFunc(func(password string) *Violation {
		if password == "" {
			return nil
		}
		for _, r := range password {
			if !unicode.IsDigit(r) {
				return nil
			}
		}
		return &Violation{
			Code:    "numeric_only",
			Message: "password cannot be entirely numeric",
		}
	})
}

// commonPasswords is a small embedded blocklist; the strength rule catches
// the long tail via zxcvbn's dictionaries.
var commonPasswords = map[string]struct{}{
	"password":      {},
	"password1":     {},
	"password123":   {},
	"passw0rd":      {},
	"qwerty":        {},
	"qwerty123":     {},
	"123456":        {},
	"12345678":      {},
	"123456789":     {},
	"111111":        {},
	"iloveyou":      {},
	"letmein":       {},
	"welcome":       {},
	"welcome1":      {},
	"admin":         {},
	"administrator": {},
	"dragon":        {},
	"monkey":        {},
	"abc123":        {},
	"sunshine":      {},
	"princess":      {},
	"football":      {},
	"baseball":      {},
	"trustno1":      {},
}

// NotCommonPasswordRule rejects passwords found in the embedded blocklist.
func NotCommonPasswordRule() PasswordRule {
	return PasswordRuleFunc(func(password string) *Violation {
		if _, found := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; found {
			return &Violation{
				Code:    "common_password",
				Message: "password is too common; choose something less guessable",
			}
		}
		return nil
	})
}

// NotSimilarToAttributesRule rejects passwords containing any of the supplied
// identifying attributes (username, email local-part), case-insensitively.
// Attributes shorter than 3 runes are ignored to avoid trivially matching.
func NotSimilarToAttributesRule(attributes ...string) PasswordRule {
	cleaned := make([]string, 0, len(attributes))
	for _, attr := range attributes {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if len([]rune(attr)) >= 3 {
			cleaned = append(cleaned, attr)
		}
	}

	return PasswordRuleFunc(func(password string) *Violation {
		lowered := strings.ToLower(password)
		for _, attr := range cleaned {
			if strings.Contains(lowered, attr) || strings.Contains(attr, lowered) {
				return &Violation{
					Code:    "similar_to_attribute",
					Message: "password is too similar to your username or email",
				}
			}
		}
		return nil
	})
}

// StrengthRule enforces a minimum zxcvbn score, feeding the user's
// identifying attributes in as extra dictionary inputs.
func StrengthRule(minScore int, userInputs ...string) PasswordRule {
	return PasswordRuleFunc(func(password string) *Violation {
		if minScore <= 0 {
			return nil
		}
		if minScore > 4 {
			minScore = 4
		}

		result := zxcvbn.PasswordStrength(password, userInputs)
		if result.Score >= minScore {
			return nil
		}

		return &Violation{
			Code:    "weak_password",
			Message: "password is too weak; choose a more complex value",
		}
	})
}

// ComplexityRules returns the character-composition rules shared by every
// password-accepting surface.
func ComplexityRules() []PasswordRule {
	return []PasswordRule{
		RequireUppercaseRule(),
		RequireLowercaseRule(),
		RequireDigitRule(),
		RequireSymbolRule(),
		NotNumericOnlyRule(),
		NotCommonPasswordRule(),
	}
}

// PolicyValidator builds the full validator for the given minimum length and
// identifying attributes.
func PolicyValidator(minLength, minScore int, attributes ...string) *PasswordValidator {
	rules := append([]PasswordRule{MinLengthRule(minLength)}, ComplexityRules()...)
	rules = append(rules,
		NotSimilarToAttributesRule(attributes...),
		StrengthRule(minScore, attributes...),
	)
	return NewPasswordValidator(rules...)
}
