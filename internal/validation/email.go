package validation

import (
	"net/mail"
)

// ValidateEmail validates email format and length. Email is optional on a
// profile, so the empty string passes.
// Uses Go's built-in net/mail parser which follows RFC 5322
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}

	// RFC 5321: total max 254 with @
	if len(email) > 254 {
		return Error("email address is too long (max 254 characters)")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return Error("invalid email address format")
	}

	return nil
}
