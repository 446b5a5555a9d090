package security

import (
	"fmt"
	"strings"
	"unicode"
)

// Password strength levels and their indicator colors.
const (
	StrengthWeak   = "weak"
	StrengthMedium = "medium"
	StrengthStrong = "strong"

	StrengthColorRed    = "red"
	StrengthColorYellow = "yellow"
	StrengthColorGreen  = "green"
)

// PasswordPolicy enumerates the criteria a password must satisfy. The zero
// value is not usable; call DefaultPasswordPolicy.
type PasswordPolicy struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

// DefaultPasswordPolicy returns the platform default: 8+ characters with
// uppercase, lowercase, digit, and special character.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:      8,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSpecial: true,
	}
}

// PasswordValidation is the result of checking a password against the policy.
// Errors lists every violated criterion, in policy order.
type PasswordValidation struct {
	Valid  bool
	Errors []string
}

// PasswordStrength is a coarse classification for live feedback.
type PasswordStrength struct {
	Level string
	Color string
}

// Validate checks password against every criterion independently and reports
// all violations together. It never fails with an error of its own.
func (p PasswordPolicy) Validate(password string) PasswordValidation {
	var errs []string
	if len(password) < p.MinLength {
		errs = append(errs, fmt.Sprintf("password must be at least %d characters", p.MinLength))
	}
	c := countCriteria(password)
	if p.RequireUpper && !c.upper {
		errs = append(errs, "password must contain at least one uppercase letter")
	}
	if p.RequireLower && !c.lower {
		errs = append(errs, "password must contain at least one lowercase letter")
	}
	if p.RequireDigit && !c.digit {
		errs = append(errs, "password must contain at least one number")
	}
	if p.RequireSpecial && !c.special {
		errs = append(errs, "password must contain at least one special character ("+specialChars+")")
	}
	return PasswordValidation{Valid: len(errs) == 0, Errors: errs}
}

// Strength classifies password by how many policy criteria it satisfies.
// Monotonic: satisfying an additional criterion never lowers the level.
// Empty input is weak/red.
func (p PasswordPolicy) Strength(password string) PasswordStrength {
	total := 1 // length always counts
	met := 0
	if len(password) >= p.MinLength {
		met++
	}
	c := countCriteria(password)
	for _, crit := range []struct {
		required bool
		met      bool
	}{
		{p.RequireUpper, c.upper},
		{p.RequireLower, c.lower},
		{p.RequireDigit, c.digit},
		{p.RequireSpecial, c.special},
	} {
		if crit.required {
			total++
			if crit.met {
				met++
			}
		}
	}
	switch {
	case met >= total:
		return PasswordStrength{Level: StrengthStrong, Color: StrengthColorGreen}
	case met*2 >= total:
		return PasswordStrength{Level: StrengthMedium, Color: StrengthColorYellow}
	default:
		return PasswordStrength{Level: StrengthWeak, Color: StrengthColorRed}
	}
}

// specialChars is the explicit set accepted as special characters. Spaces
// and control characters do not count.
const specialChars = `!@#$%^&*()_+-=[]{};':"\|,.<>/?~` + "`"

type criteria struct {
	upper, lower, digit, special bool
}

func countCriteria(password string) criteria {
	var c criteria
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			c.upper = true
		case unicode.IsLower(r):
			c.lower = true
		case unicode.IsDigit(r):
			c.digit = true
		case strings.ContainsRune(specialChars, r):
			c.special = true
		}
	}
	return c
}
