package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/repository"
)

// ProvisionInput describes a user created at the identity provider.
type ProvisionInput struct {
	UserID string
	Email  string
	Name   string
}

// Account is the caller's profile, plan and balance.
type Account struct {
	User         *models.User         `json:"user"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
	Plan         *models.Plan         `json:"plan,omitempty"`
	Balance      *Balance             `json:"balance"`
}

// AccountService provisions users and serves the plan catalog.
type AccountService struct {
	repos  *repository.Repositories
	logger *slog.Logger
	now    func() time.Time
}

// NewAccountService creates a new account service.
func NewAccountService(repos *repository.Repositories, logger *slog.Logger) *AccountService {
	return &AccountService{repos: repos, logger: logger, now: time.Now}
}

// Provision creates the user, a TRIAL subscription on the free plan and the
// user's credit ledger in one transaction. It returns false if the user
// already exists.
func (s *AccountService) Provision(ctx context.Context, in ProvisionInput) (bool, error) {
	if in.UserID == "" {
		return false, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	created := false
	now := s.now().UTC()
	periodEnd := now.AddDate(0, 1, 0)

	err := s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		existing, err := tx.User.GetByID(ctx, in.UserID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if existing != nil {
			return nil
		}

		plan, err := tx.Plan.GetByID(ctx, FreePlanID)
		if err != nil {
			return fmt.Errorf("failed to get free plan: %w", err)
		}
		if plan == nil {
			return fmt.Errorf("plan %s: %w", FreePlanID, ErrNotFound)
		}

		if err := tx.User.Create(ctx, &models.User{
			ID:        in.UserID,
			Email:     in.Email,
			Name:      in.Name,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		if err := tx.Subscription.Upsert(ctx, &models.Subscription{
			ID:                 ulid.Make().String(),
			UserID:             in.UserID,
			PlanID:             plan.ID,
			Status:             models.SubscriptionStatusTrial,
			BillingCycle:       models.BillingCycleMonthly,
			CurrentPeriodStart: now,
			CurrentPeriodEnd:   periodEnd,
			CreatedAt:          now,
			UpdatedAt:          now,
		}); err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}

		if err := tx.Ledger.Create(ctx, &models.CreditLedger{
			UserID:       in.UserID,
			TotalCredits: plan.CreditsPerMonth,
			NextResetAt:  periodEnd,
			CreatedAt:    now,
			UpdatedAt:    now,
		}); err != nil {
			return fmt.Errorf("failed to create credit ledger: %w", err)
		}

		created = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if created {
		s.logger.Info("user provisioned", "user_id", in.UserID)
	}
	return created, nil
}

// activeUser returns the user, or ErrNotFound when the user is missing or
// marked deleted.
func activeUser(ctx context.Context, users repository.UserRepository, userID string) (*models.User, error) {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.IsDeleted() {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return user, nil
}

// Delete marks the user deleted. Ledger, payments and usage are retained.
func (s *AccountService) Delete(ctx context.Context, userID string) error {
	err := s.repos.User.MarkDeleted(ctx, userID, s.now().UTC())
	if err != nil && !errors.Is(err, repository.ErrNoRowsAffected) {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.logger.Info("user marked deleted", "user_id", userID)
	return nil
}

// Get returns the user's account summary.
func (s *AccountService) Get(ctx context.Context, userID string) (*Account, error) {
	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.IsDeleted() {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	acct := &Account{User: user}

	acct.Subscription, err = s.repos.Subscription.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if acct.Subscription != nil {
		acct.Plan, err = s.repos.Plan.GetByID(ctx, acct.Subscription.PlanID)
		if err != nil {
			return nil, fmt.Errorf("failed to get plan: %w", err)
		}
	}

	ledger, err := s.repos.Ledger.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	if ledger == nil {
		return nil, fmt.Errorf("credit ledger for %s: %w", userID, ErrNotFound)
	}
	acct.Balance = balanceFromLedger(ledger)

	return acct, nil
}

// ListPlans returns the active plan catalog.
func (s *AccountService) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	plans, err := s.repos.Plan.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}
