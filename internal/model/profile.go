package model

import "time"

type Profile struct {
	ID                 string    `db:"id"`
	UserID             string    `db:"user_id"`
	Nickname           string    `db:"nickname"`
	Premium            bool      `db:"premium"`
	OnboardingComplete bool      `db:"onboarding_complete"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}
