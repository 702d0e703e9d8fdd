package validation

import (
	"errors"
	"strings"
)

// ValidateName validates a profile nickname.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("nickname is required")
	}

	if len(trimmed) > 50 {
		return errors.New("nickname is too long (max 50 characters)")
	}

	return nil
}
