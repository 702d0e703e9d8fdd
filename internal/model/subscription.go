package model

import (
	"time"
)

type Subscription struct {
	ID                     string     `db:"id"`
	UserID                 string     `db:"user_id"`
	PlanID                 string     `db:"plan_id"`
	Status                 string     `db:"status"`
	Provider               string     `db:"provider"`
	ProviderCustomerID     *string    `db:"provider_customer_id"`
	ProviderSubscriptionID *string    `db:"provider_subscription_id"`
	CurrentPeriodEnd       *time.Time `db:"current_period_end"`
	Amount                 *int       `db:"amount"`
	Currency               string     `db:"currency"`
	Interval               *string    `db:"interval"`
	CreatedAt              time.Time  `db:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at"`
}

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
)

const (
	ProviderPolar  = "polar"
	ProviderStripe = "stripe"
)

const (
	SubscriptionPlanFree    = "free"
	SubscriptionPlanPremium = "premium"
)

const (
	SubscriptionIntervalMonthly = "monthly"
	SubscriptionIntervalYearly  = "yearly"
)

func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// IsPaid reports whether the user is on a paying plan. Paying users are
// exempt from the daily message cap.
func (s *Subscription) IsPaid() bool {
	return s.PlanID != SubscriptionPlanFree && s.IsActive()
}
