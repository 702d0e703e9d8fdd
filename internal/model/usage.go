package model

import "time"

// DailyUsage tracks per-user message counts keyed by calendar day. One row
// per (user, day); day rollover starts a fresh row rather than resetting.
type DailyUsage struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Day       string    `db:"day"` // yyyy-mm-dd, server clock (UTC)
	Count     int       `db:"count"`
	UpdatedAt time.Time `db:"updated_at"`
}

// UsageDay returns the ledger key for the given instant.
func UsageDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
