package validation

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const maxMessageLen = 4000

// ValidateChatMessage validates a chat message body.
func ValidateChatMessage(message string) error {
	trimmed := strings.TrimSpace(message)

	if trimmed == "" {
		return errors.New("message is required")
	}

	if len(trimmed) > maxMessageLen {
		return errors.New("message is too long (max 4000 characters)")
	}

	return nil
}

// NormalizeConversationID returns the id when it is a well-formed UUID and
// nil otherwise. Chat treats a malformed id as absent rather than an error.
func NormalizeConversationID(id string) *string {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	return &id
}
