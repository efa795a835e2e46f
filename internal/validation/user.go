package validation

import (
	"errors"
	"regexp"
	"strings"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,50}$`)

// ValidateUsername validates a login username
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}

	if !usernamePattern.MatchString(username) {
		return errors.New("username must be 3-50 characters of letters, digits, or underscores")
	}

	return nil
}

// ValidateDisplayName validates a user's display name
func ValidateDisplayName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("display name is required")
	}

	if len(trimmed) > 100 {
		return errors.New("display name is too long (max 100 characters)")
	}

	return nil
}

// ValidateBio validates the free-text bio used for recommendation matching
func ValidateBio(bio string) error {
	if len(bio) > 2000 {
		return errors.New("bio is too long (max 2000 characters)")
	}

	return nil
}
