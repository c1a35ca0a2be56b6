package domain

import (
	"fmt"
	"net/mail"
	"strings"
)

// ============================================================================
// Value Objects
// ============================================================================

// EnglishLevel is the learner level understood by the backend
type EnglishLevel string

const (
	LevelBeginner     EnglishLevel = "beginner"
	LevelIntermediate EnglishLevel = "intermediate"
	LevelAdvanced     EnglishLevel = "advanced"
)

// ParseEnglishLevel validates and normalizes a level name
func ParseEnglishLevel(s string) (EnglishLevel, error) {
	switch l := EnglishLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return l, nil
	default:
		return "", WrapValidationError("english level", fmt.Errorf("unknown level %q", s))
	}
}

// String returns the wire value of the level
func (l EnglishLevel) String() string {
	return string(l)
}

// ValidateCredentials performs the client-side checks done before a login or signup round trip.
// The backend remains the authority; this only rejects obviously malformed input.
func ValidateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return WrapValidationError("email", fmt.Errorf("email is required"))
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return WrapValidationError("email", err)
	}
	// ParseAddress also accepts "Name <a@b.com>"; the backend wants the bare address
	if addr.Address != email {
		return WrapValidationError("email", fmt.Errorf("email must be a bare address"))
	}
	if password == "" {
		return WrapValidationError("password", fmt.Errorf("password is required"))
	}
	return nil
}
