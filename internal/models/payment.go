package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus follows PENDING -> PROCESSING -> COMPLETED | FAILED.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
)

// PaymentProvider identifies a settlement channel.
type PaymentProvider string

const (
	PaymentProviderStripe    PaymentProvider = "STRIPE"
	PaymentProviderJazzCash  PaymentProvider = "JAZZCASH"
	PaymentProviderEasyPaisa PaymentProvider = "EASYPAISA"
)

// ParsePaymentProvider accepts any casing ("jazzcash", "JazzCash").
func ParsePaymentProvider(s string) (PaymentProvider, error) {
	p := PaymentProvider(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case PaymentProviderStripe, PaymentProviderJazzCash, PaymentProviderEasyPaisa:
		return p, nil
	}
	return "", fmt.Errorf("unknown payment provider %q", s)
}

// BillingCycle is the subscription term a payment purchases.
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "MONTHLY"
	BillingCycleYearly  BillingCycle = "YEARLY"
)

// Months returns the period length in months.
func (c BillingCycle) Months() int {
	if c == BillingCycleYearly {
		return 12
	}
	return 1
}

// Payment is a checkout attempt for a plan and billing cycle.
type Payment struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	PlanID        string          `json:"plan_id"`
	BillingCycle  BillingCycle    `json:"billing_cycle"`
	Provider      PaymentProvider `json:"provider"`
	Status        PaymentStatus   `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	ProviderTxnID string          `json:"provider_txn_id,omitempty"`
	// RawResponse is stored encrypted.
	RawResponse  string     `json:"-"`
	ErrorMessage string     `json:"error_message,omitempty"`
	SettledAt    *time.Time `json:"settled_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
