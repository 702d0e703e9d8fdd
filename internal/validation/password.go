package validation

import (
	"errors"
	"strings"
)

var commonPasswordPatterns = []string{
	"password", "123456", "qwerty", "admin", "letmein",
	"welcome", "monkey", "dragon", "master", "sunshine",
}

// ValidatePassword enforces a 12-character minimum and rejects well-known
// weak patterns. The 72-byte ceiling exists because bcrypt truncates longer
// inputs silently.
func ValidatePassword(password string) error {
	if len(password) < 12 {
		return errors.New("password must be at least 12 characters")
	}

	if len(password) > 72 {
		return errors.New("password must not exceed 72 characters")
	}

	lower := strings.ToLower(password)
	for _, pattern := range commonPasswordPatterns {
		if strings.Contains(lower, pattern) {
			return errors.New("password is too common, please choose a stronger one")
		}
	}

	return nil
}
