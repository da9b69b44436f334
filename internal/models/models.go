// Package models defines the domain models for the application.
package models

import "time"

// ========================================
// Users
// ========================================

// User is an account provisioned from the identity provider.
// The ID is the identity provider's subject (e.g. "user_xxx").
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsDeleted reports whether the account has been removed upstream.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// ========================================
// Credit Ledger
// ========================================

// CreditLedger tracks a user's synthesis entitlement for the current period.
// One credit is one billable (non-whitespace) character.
type CreditLedger struct {
	UserID       string    `json:"user_id"`
	TotalCredits int64     `json:"total_credits"`
	UsedCredits  int64     `json:"used_credits"`
	BonusCredits int64     `json:"bonus_credits"`
	NextResetAt  time.Time `json:"next_reset_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Available returns total - used + bonus.
func (l *CreditLedger) Available() int64 {
	return l.TotalCredits - l.UsedCredits + l.BonusCredits
}

// Debit consumes bonus credits first and charges the remainder to used credits.
func (l *CreditLedger) Debit(amount int64) {
	if amount <= 0 {
		return
	}
	bonusDeduct := min(amount, l.BonusCredits)
	l.BonusCredits -= bonusDeduct
	l.UsedCredits += amount - bonusDeduct
}

// Reset starts a new entitlement period. Bonus credits carry over.
func (l *CreditLedger) Reset(newTotal int64, nextResetAt time.Time) {
	l.TotalCredits = newTotal
	l.UsedCredits = 0
	l.NextResetAt = nextResetAt
}

// ========================================
// Usage Records
// ========================================

// UsageType identifies the kind of credit-affecting event.
type UsageType string

const (
	UsageTypeTTSGeneration     UsageType = "TTS_GENERATION"
	UsageTypeVoiceClone        UsageType = "VOICE_CLONE"
	UsageTypeSubscriptionReset UsageType = "SUBSCRIPTION_RESET"
)

// UsageRecord is an append-only audit entry. ReferenceID points at the
// generation, voice, or payment that caused it.
type UsageRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        UsageType `json:"type"`
	Credits     int64     `json:"credits"`
	ReferenceID string    `json:"reference_id"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UsageTotals aggregates usage records by type for a period.
type UsageTotals struct {
	GenerationCount   int   `json:"generation_count"`
	GenerationCredits int64 `json:"generation_credits"`
	VoiceClones       int   `json:"voice_clones"`
	Resets            int   `json:"resets"`
}
