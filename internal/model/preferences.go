package model

import "time"

type Preferences struct {
	UserID               string    `db:"user_id"`
	DailyCheckin         bool      `db:"daily_checkin"`
	WeeklySummary        bool      `db:"weekly_summary"`
	MilestoneCelebration bool      `db:"milestone_celebrations"`
	MarketingEmails      bool      `db:"marketing_emails"`
	DailyCheckinTime     string    `db:"daily_checkin_time"`
	DailyCheckinDays     string    `db:"daily_checkin_days"`
	WeeklySummaryTime    string    `db:"weekly_summary_time"`
	WeeklySummaryDay     string    `db:"weekly_summary_day"`
	Timezone             string    `db:"timezone"`
	ChannelEmail         bool      `db:"channel_email"`
	ChannelInapp         bool      `db:"channel_inapp"`
	UpdatedAt            time.Time `db:"updated_at"`
}

// DefaultPreferences returns the values used when a user has no stored row.
func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:               userID,
		DailyCheckin:         true,
		WeeklySummary:        true,
		MilestoneCelebration: true,
		MarketingEmails:      false,
		DailyCheckinTime:     "09:00",
		DailyCheckinDays:     "mon,tue,wed,thu,fri",
		WeeklySummaryTime:    "17:00",
		WeeklySummaryDay:     "sun",
		Timezone:             "UTC",
		ChannelEmail:         true,
		ChannelInapp:         true,
	}
}
