// Package service contains the business logic layer: credit ledger,
// generation accounting, payment settlement and the features around them.
// User IDs are the identity provider's subject (e.g. "user_xxx").
package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPaymentRequired    = errors.New("insufficient credits")
	ErrRateLimited        = errors.New("daily generation limit reached")
	ErrUnauthorized       = errors.New("webhook signature verification failed")
	ErrSynthesisFailure   = errors.New("speech synthesis failed")
	ErrTransactionFailure = errors.New("transaction failed")
	ErrVoiceLimitReached  = errors.New("voice limit reached for current plan")
)

// InsufficientCreditsError carries the amounts behind an ErrPaymentRequired.
type InsufficientCreditsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientCreditsError) Unwrap() error {
	return ErrPaymentRequired
}
