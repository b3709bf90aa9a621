package security

import (
	"fmt"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// PasswordValidationError represents a single password policy violation.
type PasswordValidationError struct {
	Code    string
	Message string
}

// Error implements error for PasswordValidationError.
func (e *PasswordValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// PasswordRule validates a password according to a specific policy rule.
type PasswordRule interface {
	Validate(password string) error
}

// PasswordRuleFunc adapts a function to be used as a PasswordRule.
type PasswordRuleFunc func(password string) error

// Validate executes the underlying rule function.
func (f PasswordRuleFunc) Validate(password string) error {
	return f(password)
}

// PasswordValidator applies a sequence of password rules.
type PasswordValidator struct {
	rules []PasswordRule
}

// NewPasswordValidator constructs a validator with the provided rules.
func NewPasswordValidator(rules ...PasswordRule) *PasswordValidator {
	copied := make([]PasswordRule, len(rules))
	copy(copied, rules)
	return &PasswordValidator{rules: copied}
}

// DefaultPasswordValidator returns the validator used when no policy is
// configured: any non-empty password passes.
func DefaultPasswordValidator(userInputs ...string) *PasswordValidator {
	return PolicyPasswordValidator(0, 0, userInputs...)
}

// PolicyPasswordValidator builds a validator from policy knobs. A non-empty
// password is always required; length and zxcvbn strength rules are added
// only when their thresholds are positive.
func PolicyPasswordValidator(minLength, minScore int, userInputs ...string) *PasswordValidator {
	rules := []PasswordRule{NonEmptyRule()}
	if minLength > 0 {
		rules = append(rules, MinLengthRule(minLength))
	}
	if minScore > 0 {
		rules = append(rules, RequirePasswordStrengthRule(minScore, userInputs...))
	}
	return NewPasswordValidator(rules...)
}

// Validate executes all rules and returns the first encountered violation.
func (v *PasswordValidator) Validate(password string) error {
	if v == nil {
		return fmt.Errorf("password validator not configured")
	}
	for _, rule := range v.rules {
		if err := rule.Validate(password); err != nil {
			return err
		}
	}
	return nil
}

// NonEmptyRule rejects empty passwords.
func NonEmptyRule() PasswordRule {
	return PasswordRuleFunc(func(password string) error {
		if password == "" {
			return &PasswordValidationError{
				Code:    "required",
				Message: "password is required",
			}
		}
		return nil
	})
}

// MinLengthRule ensures the password has at least min characters.
func MinLengthRule(min int) PasswordRule {
	return PasswordRuleFunc(func(password string) error {
		if len([]rune(password)) < min {
			return &PasswordValidationError{
				Code:    "min_length",
				Message: fmt.Sprintf("password must be at least %d characters long", min),
			}
		}
		return nil
	})
}

// RequirePasswordStrengthRule enforces a minimum zxcvbn score to reject weak passwords.
func RequirePasswordStrengthRule(minScore int, userInputs ...string) PasswordRule {
	return PasswordRuleFunc(func(password string) error {
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

		return &PasswordValidationError{
			Code:    "strength",
			Message: "password is too easy to guess",
		}
	})
}
