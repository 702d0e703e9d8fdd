package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UsageRepository interface {
	CountForDay(userID, day string) (int, error)
	Increment(userID, day string) error
	DeleteByUserID(userID string) error
}

type usageRepository struct {
	db *sqlx.DB
}

func NewUsageRepository(db *sqlx.DB) UsageRepository {
	return &usageRepository{db: db}
}

// CountForDay returns 0 when the user has no row for the day.
func (r *usageRepository) CountForDay(userID, day string) (int, error) {
	var count int
	query := `SELECT count FROM daily_usage WHERE user_id = $1 AND day = $2`

	err := r.db.Get(&count, query, userID, day)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Increment adds one to the user's counter for the day, creating the row on
// first use. Falls back to a read-then-write when the upsert is unavailable.
func (r *usageRepository) Increment(userID, day string) error {
	now := time.Now()

	query := `
		INSERT INTO daily_usage (id, user_id, day, count, updated_at)
		VALUES ($1, $2, $3, 1, $4)
		ON CONFLICT (user_id, day) DO UPDATE SET
			count = daily_usage.count + 1,
			updated_at = excluded.updated_at
	`
	_, err := r.db.Exec(query, uuid.New().String(), userID, day, now)
	if err == nil {
		return nil
	}

	count, readErr := r.CountForDay(userID, day)
	if readErr != nil {
		return err
	}

	if count == 0 {
		_, err = r.db.Exec(`
			INSERT INTO daily_usage (id, user_id, day, count, updated_at)
			VALUES ($1, $2, $3, 1, $4)
		`, uuid.New().String(), userID, day, now)
		return err
	}

	_, err = r.db.Exec(`
		UPDATE daily_usage SET count = $1, updated_at = $2
		WHERE user_id = $3 AND day = $4
	`, count+1, now, userID, day)
	return err
}

func (r *usageRepository) DeleteByUserID(userID string) error {
	_, err := r.db.Exec(`DELETE FROM daily_usage WHERE user_id = $1`, userID)
	return err
}
