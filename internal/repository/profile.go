package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kindredhq/kindred/internal/model"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
)

type ProfileRepository interface {
	ByUserID(userID string) (*model.Profile, error)
	Create(profile *model.Profile) error
	UpdateNickname(userID, nickname string) error
	SetOnboardingComplete(userID string) error
	SetPremium(userID string, premium bool) error
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) ByUserID(userID string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.Get(&profile, `SELECT * FROM profiles WHERE user_id = $1`, userID)

	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) Create(profile *model.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO profiles (id, user_id, nickname, premium, onboarding_complete, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, profile.ID, profile.UserID, profile.Nickname, profile.Premium, profile.OnboardingComplete, profile.CreatedAt, profile.UpdatedAt)

	return err
}

func (r *profileRepository) UpdateNickname(userID, nickname string) error {
	return r.patch(userID, `nickname = $1`, nickname)
}

func (r *profileRepository) SetOnboardingComplete(userID string) error {
	return r.patch(userID, `onboarding_complete = $1`, true)
}

func (r *profileRepository) SetPremium(userID string, premium bool) error {
	return r.patch(userID, `premium = $1`, premium)
}

func (r *profileRepository) patch(userID, assignment string, value any) error {
	query := fmt.Sprintf(`UPDATE profiles SET %s, updated_at = $2 WHERE user_id = $3`, assignment)

	result, err := r.db.Exec(query, value, time.Now(), userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProfileNotFound
	}

	return nil
}
