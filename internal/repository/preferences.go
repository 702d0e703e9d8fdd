package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kindredhq/kindred/internal/model"
)

var (
	ErrPreferencesNotFound = errors.New("preferences not found")
)

type PreferencesRepository interface {
	ByUserID(userID string) (*model.Preferences, error)
	Save(prefs *model.Preferences) error
	DeleteByUserID(userID string) error
}

type preferencesRepository struct {
	db *sqlx.DB
}

func NewPreferencesRepository(db *sqlx.DB) PreferencesRepository {
	return &preferencesRepository{db: db}
}

func (r *preferencesRepository) ByUserID(userID string) (*model.Preferences, error) {
	prefs := &model.Preferences{}
	query := `SELECT * FROM preferences WHERE user_id = $1`

	err := r.db.Get(prefs, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrPreferencesNotFound
	}
	if err != nil {
		return nil, err
	}

	return prefs, nil
}

// Save updates the user's row, inserting it on first write.
func (r *preferencesRepository) Save(prefs *model.Preferences) error {
	prefs.UpdatedAt = time.Now()

	result, err := r.db.Exec(`
		UPDATE preferences
		SET daily_checkin = $1,
		    weekly_summary = $2,
		    milestone_celebrations = $3,
		    marketing_emails = $4,
		    daily_checkin_time = $5,
		    daily_checkin_days = $6,
		    weekly_summary_time = $7,
		    weekly_summary_day = $8,
		    timezone = $9,
		    channel_email = $10,
		    channel_inapp = $11,
		    updated_at = $12
		WHERE user_id = $13
	`,
		prefs.DailyCheckin,
		prefs.WeeklySummary,
		prefs.MilestoneCelebration,
		prefs.MarketingEmails,
		prefs.DailyCheckinTime,
		prefs.DailyCheckinDays,
		prefs.WeeklySummaryTime,
		prefs.WeeklySummaryDay,
		prefs.Timezone,
		prefs.ChannelEmail,
		prefs.ChannelInapp,
		prefs.UpdatedAt,
		prefs.UserID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	_, err = r.db.Exec(`
		INSERT INTO preferences (
			user_id, daily_checkin, weekly_summary, milestone_celebrations,
			marketing_emails, daily_checkin_time, daily_checkin_days,
			weekly_summary_time, weekly_summary_day, timezone,
			channel_email, channel_inapp, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		prefs.UserID,
		prefs.DailyCheckin,
		prefs.WeeklySummary,
		prefs.MilestoneCelebration,
		prefs.MarketingEmails,
		prefs.DailyCheckinTime,
		prefs.DailyCheckinDays,
		prefs.WeeklySummaryTime,
		prefs.WeeklySummaryDay,
		prefs.Timezone,
		prefs.ChannelEmail,
		prefs.ChannelInapp,
		prefs.UpdatedAt,
	)
	return err
}

func (r *preferencesRepository) DeleteByUserID(userID string) error {
	_, err := r.db.Exec(`DELETE FROM preferences WHERE user_id = $1`, userID)
	return err
}
