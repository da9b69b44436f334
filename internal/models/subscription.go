package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus is the state of a user's plan subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "TRIAL"
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPastDue   SubscriptionStatus = "PAST_DUE"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionStatusExpired   SubscriptionStatus = "EXPIRED"
)

// Subscription is unique per user; writes replace the existing row.
type Subscription struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"user_id"`
	PlanID             string             `json:"plan_id"`
	Status             SubscriptionStatus `json:"status"`
	BillingCycle       BillingCycle       `json:"billing_cycle"`
	CurrentPeriodStart time.Time          `json:"current_period_start"`
	CurrentPeriodEnd   time.Time          `json:"current_period_end"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Plan is a purchasable tier.
type Plan struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	CreditsPerMonth int64           `json:"credits_per_month"`
	VoiceLimit      int             `json:"voice_limit"`
	PriceMonthly    decimal.Decimal `json:"price_monthly"`
	PriceYearly     decimal.Decimal `json:"price_yearly"`
	Currency        string          `json:"currency"`
	IsActive        bool            `json:"is_active"`
	SortOrder       int             `json:"sort_order"`
}

// PriceFor returns the plan price for a billing cycle.
func (p *Plan) PriceFor(cycle BillingCycle) decimal.Decimal {
	if cycle == BillingCycleYearly {
		return p.PriceYearly
	}
	return p.PriceMonthly
}

// IsFree reports whether the plan costs nothing in either cycle.
func (p *Plan) IsFree() bool {
	return p.PriceMonthly.IsZero() && p.PriceYearly.IsZero()
}
