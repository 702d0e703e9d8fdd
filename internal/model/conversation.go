package model

import "time"

type Conversation struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	CompanionID *string   `db:"companion_id"`
	Title       string    `db:"title"`
	Archived    bool      `db:"archived"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
