package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kindredhq/kindred/internal/model"
)

var (
	ErrCompanionNotFound = errors.New("companion not found")
)

type CompanionRepository interface {
	ByUserID(userID string) (*model.Companion, error)
	Upsert(companion *model.Companion) error
	DeleteByUserID(userID string) error
}

type companionRepository struct {
	db *sqlx.DB
}

func NewCompanionRepository(db *sqlx.DB) CompanionRepository {
	return &companionRepository{db: db}
}

func (r *companionRepository) ByUserID(userID string) (*model.Companion, error) {
	companion := &model.Companion{}
	query := `SELECT * FROM companions WHERE user_id = $1`

	err := r.db.Get(companion, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrCompanionNotFound
	}
	if err != nil {
		return nil, err
	}

	return companion, nil
}

// Upsert inserts or replaces the user's single companion, keyed on user_id.
func (r *companionRepository) Upsert(companion *model.Companion) error {
	if companion.ID == "" {
		companion.ID = uuid.New().String()
	}
	if companion.CreatedAt.IsZero() {
		companion.CreatedAt = time.Now()
	}
	companion.UpdatedAt = time.Now()

	query := `
		INSERT INTO companions (id, user_id, name, tone, expertise, goal, system_prompt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			name = excluded.name,
			tone = excluded.tone,
			expertise = excluded.expertise,
			goal = excluded.goal,
			system_prompt = excluded.system_prompt,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		companion.ID,
		companion.UserID,
		companion.Name,
		companion.Tone,
		companion.Expertise,
		companion.Goal,
		companion.SystemPrompt,
		companion.CreatedAt,
		companion.UpdatedAt,
	)
	return err
}

func (r *companionRepository) DeleteByUserID(userID string) error {
	result, err := r.db.Exec(`DELETE FROM companions WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCompanionNotFound
	}

	return nil
}
