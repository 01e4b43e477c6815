package auth

import (
	"regexp"
	"unicode"

	"ppms/internal/apperr"
)

type Strength string

const (
	Weak   Strength = "Weak"
	Medium Strength = "Medium"
	Strong Strength = "Strong"
)

const (
	MinPasswordLength = 6
	minUsernameLength = 3
	maxUsernameLength = 100
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// PasswordStrength scores a password by its character classes: upper,
// lower, digit and symbol.
func PasswordStrength(password string) Strength {
	n := len([]rune(password))
	if n < MinPasswordLength {
		return Weak
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r):
			symbol = true
		}
	}
	score := 0
	for _, ok := range []bool{upper, lower, digit, symbol} {
		if ok {
			score++
		}
	}

	switch {
	case score >= 3 && n >= 8:
		return Strong
	case score >= 2 || n >= 8:
		return Medium
	default:
		return Weak
	}
}

func validatePassword(password string) error {
	if password == "" {
		return apperr.Validation("password is required")
	}
	if len([]rune(password)) < MinPasswordLength {
		return apperr.Validation("password must be at least %d characters long", MinPasswordLength)
	}
	return nil
}

func validateUsername(username string) error {
	switch {
	case username == "":
		return apperr.Validation("username is required")
	case len(username) < minUsernameLength || len(username) > maxUsernameLength:
		return apperr.Validation("username must be %d to %d characters long", minUsernameLength, maxUsernameLength)
	case !usernamePattern.MatchString(username):
		return apperr.Validation("username can only contain letters, numbers and underscores")
	}
	return nil
}
