package validation

import (
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowercase = cases.Lower(language.Und)

// NormalizeUsername trims and case-folds a username. Usernames are stored
// lowercase so uniqueness is case-insensitive.
func NormalizeUsername(username string) string {
	return lowercase.String(strings.TrimSpace(username))
}

// ValidateUsername checks trimmed length and charset.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	if len(username) > 50 {
		return errors.New("username is too long (max 50 characters)")
	}
	for _, r := range username {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' && r != '-' && r != '.' {
			return errors.New("username may only contain lowercase letters, digits, '_', '-' and '.'")
		}
	}
	return nil
}

// ValidateName validates a first or last name.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errors.New("name is required")
	}
	if len(trimmed) > 50 {
		return errors.New("name is too long (max 50 characters)")
	}
	return nil
}

// ValidateEmail validates email format and length.
// Uses Go's built-in net/mail parser which follows RFC 5322.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email address is required")
	}
	// RFC 5321: local part max 64, domain max 255, total max 254 with @
	if len(email) > 254 {
		return errors.New("email address is too long (max 254 characters)")
	}
	_, err := mail.ParseAddress(email)
	if err != nil {
		return errors.New("invalid email address format")
	}
	return nil
}

// ValidatePassword enforces the registration complexity rules: at least 6
// characters with one digit, one lowercase, one uppercase, and one special
// character or underscore. Spaces are not allowed.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	// bcrypt silently truncates beyond 72 bytes
	if len(password) > 72 {
		return errors.New("password must not exceed 72 characters")
	}

	var hasDigit, hasLower, hasUpper, hasSpecial bool
	for _, r := range password {
		switch {
		case r == ' ':
			return errors.New("password must not contain spaces")
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		default:
			hasSpecial = true
		}
		if r == '_' {
			hasSpecial = true
		}
	}

	if !hasDigit || !hasLower || !hasUpper || !hasSpecial {
		return errors.New("password needs a digit, a lowercase letter, an uppercase letter and a special character")
	}
	return nil
}
