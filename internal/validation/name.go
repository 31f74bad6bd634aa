package validation

import (
	"strings"
	"unicode/utf8"
)

const (
	UsernameMinLength = 3
	UsernameMaxLength = 32
)

// ValidateUsername allows lowercase and uppercase ASCII letters, digits,
// dot, dash and underscore.
func ValidateUsername(username string) error {
	if username == "" {
		return Error("username is required")
	}

	if len(username) < UsernameMinLength || len(username) > UsernameMaxLength {
		return Error("username must be between 3 and 32 characters")
	}

	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '_':
		default:
			return Error("username may only contain letters, digits, '.', '-' and '_'")
		}
	}

	return nil
}

// ValidateName validates an optional first or last name
func ValidateName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) > 100 {
		return Error("name is too long (max 100 characters)")
	}

	return nil
}
