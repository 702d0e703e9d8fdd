package model

import "time"

type Message struct {
	ID             string    `db:"id"`
	UserID         string    `db:"user_id"`
	ConversationID *string   `db:"conversation_id"`
	Role           string    `db:"role"`
	Content        string    `db:"content"`
	CreatedAt      time.Time `db:"created_at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
