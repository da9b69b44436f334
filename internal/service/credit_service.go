package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/repository"
)

// Balance is a point-in-time view of a user's ledger.
type Balance struct {
	Total       int64     `json:"total"`
	Used        int64     `json:"used"`
	Bonus       int64     `json:"bonus"`
	Available   int64     `json:"available"`
	NextResetAt time.Time `json:"next_reset_at"`
}

func balanceFromLedger(l *models.CreditLedger) *Balance {
	return &Balance{
		Total:       l.TotalCredits,
		Used:        l.UsedCredits,
		Bonus:       l.BonusCredits,
		Available:   l.Available(),
		NextResetAt: l.NextResetAt,
	}
}

// CreditService is the single source of truth for synthesis entitlement.
type CreditService struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

// NewCreditService creates a new credit service.
func NewCreditService(repos *repository.Repositories, logger *slog.Logger) *CreditService {
	return &CreditService{repos: repos, logger: logger}
}

// GetBalance returns the user's ledger. Every provisioned user has one.
func (s *CreditService) GetBalance(ctx context.Context, userID string) (*Balance, error) {
	ledger, err := s.repos.Ledger.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	if ledger == nil {
		return nil, fmt.Errorf("credit ledger for %s: %w", userID, ErrNotFound)
	}
	return balanceFromLedger(ledger), nil
}

// Authorize checks available >= required and returns the balance it read.
// A shortfall is an *InsufficientCreditsError. This is a point-in-time
// check: nothing is reserved, so two concurrent callers can both pass.
func (s *CreditService) Authorize(ctx context.Context, userID string, required int64) (*Balance, error) {
	bal, err := s.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if bal.Available < required {
		return nil, &InsufficientCreditsError{Required: required, Available: bal.Available}
	}
	return bal, nil
}

// debitLedger consumes bonus credits first, then regular credits.
func debitLedger(ctx context.Context, ledger repository.CreditLedgerRepository, userID string, amount int64, now time.Time) error {
	if amount < 0 {
		return fmt.Errorf("%w: negative debit", ErrInvalidInput)
	}
	if amount == 0 {
		return nil
	}
	if err := ledger.Debit(ctx, userID, amount, now); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return fmt.Errorf("credit ledger for %s: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to debit ledger: %w", err)
	}
	return nil
}

// resetLedger starts a new period: total = newTotal, used = 0, bonus unchanged.
func resetLedger(ctx context.Context, ledger repository.CreditLedgerRepository, userID string, newTotal int64, nextResetAt, now time.Time) error {
	if newTotal < 0 {
		return fmt.Errorf("%w: negative credit total", ErrInvalidInput)
	}
	if err := ledger.Reset(ctx, userID, newTotal, nextResetAt, now); err != nil {
		return fmt.Errorf("failed to reset ledger: %w", err)
	}
	return nil
}
