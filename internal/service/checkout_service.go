package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/payment"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/repository"
)

// ErrProviderFailure is returned when a provider rejects a checkout.
var ErrProviderFailure = errors.New("payment provider error")

// CheckoutInput starts a plan purchase.
type CheckoutInput struct {
	UserID       string
	PlanID       string
	BillingCycle models.BillingCycle
	Provider     models.PaymentProvider
}

// CheckoutResult tells the client where to complete payment.
type CheckoutResult struct {
	PaymentID   string                 `json:"payment_id"`
	Status      models.PaymentStatus   `json:"status"`
	Provider    models.PaymentProvider `json:"provider"`
	Amount      decimal.Decimal        `json:"amount"`
	Currency    string                 `json:"currency"`
	RedirectURL string                 `json:"redirect_url,omitempty"`
	FormAction  string                 `json:"form_action,omitempty"`
	FormData    map[string]string      `json:"form_data,omitempty"`
}

// CheckoutService creates payments and hands them to a provider.
type CheckoutService struct {
	repos    *repository.Repositories
	registry *payment.Registry
	logger   *slog.Logger
	now      func() time.Time
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(repos *repository.Repositories, registry *payment.Registry, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{repos: repos, registry: registry, logger: logger, now: time.Now}
}

// Checkout creates a PENDING payment and initiates it with the provider.
// On success the payment moves to PROCESSING; on provider error to FAILED.
func (s *CheckoutService) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	if in.BillingCycle != models.BillingCycleMonthly && in.BillingCycle != models.BillingCycleYearly {
		return nil, fmt.Errorf("%w: billing cycle must be MONTHLY or YEARLY", ErrInvalidInput)
	}

	plan, err := s.repos.Plan.GetByID(ctx, in.PlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil || !plan.IsActive {
		return nil, fmt.Errorf("plan %s: %w", in.PlanID, ErrNotFound)
	}
	if plan.IsFree() {
		return nil, fmt.Errorf("%w: the %s plan does not require payment", ErrInvalidInput, plan.Name)
	}

	adapter, err := s.registry.Get(in.Provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	user, err := activeUser(ctx, s.repos.User, in.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &models.Payment{
		ID:           ulid.Make().String(),
		UserID:       in.UserID,
		PlanID:       plan.ID,
		BillingCycle: in.BillingCycle,
		Provider:     in.Provider,
		Status:       models.PaymentStatusPending,
		Amount:       plan.PriceFor(in.BillingCycle),
		Currency:     plan.Currency,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repos.Payment.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	res, err := adapter.InitiatePayment(ctx, payment.InitiateParams{
		PaymentID:    p.ID,
		UserID:       user.ID,
		Email:        user.Email,
		PlanID:       plan.ID,
		PlanName:     plan.Name,
		BillingCycle: in.BillingCycle,
		Amount:       p.Amount,
		Currency:     p.Currency,
	})
	if err == nil && !res.Success {
		err = errors.New("provider declined checkout")
	}
	if err != nil {
		if markErr := s.repos.Payment.MarkFailed(context.WithoutCancel(ctx), p.ID, truncate(err.Error(), 500), "", s.now().UTC()); markErr != nil {
			s.logger.Error("failed to mark payment failed", "payment_id", p.ID, "error", markErr)
		}
		s.logger.Warn("checkout initiation failed", "payment_id", p.ID, "provider", in.Provider, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	if err := s.repos.Payment.MarkProcessing(ctx, p.ID, res.TransactionID, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	s.logger.Info("checkout initiated",
		"payment_id", p.ID,
		"user_id", in.UserID,
		"plan_id", plan.ID,
		"provider", in.Provider,
		"amount", p.Amount.String(),
	)

	return &CheckoutResult{
		PaymentID:   p.ID,
		Status:      models.PaymentStatusProcessing,
		Provider:    in.Provider,
		Amount:      p.Amount,
		Currency:    p.Currency,
		RedirectURL: res.RedirectURL,
		FormAction:  res.FormAction,
		FormData:    res.FormData,
	}, nil
}

// Providers lists the providers available for checkout.
func (s *CheckoutService) Providers() []models.PaymentProvider {
	return s.registry.Names()
}

// GetPayment returns one of the user's payments.
func (s *CheckoutService) GetPayment(ctx context.Context, userID, id string) (*models.Payment, error) {
	p, err := s.repos.Payment.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if p == nil || p.UserID != userID {
		return nil, fmt.Errorf("payment %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// ListPayments returns the user's payments, newest first.
func (s *CheckoutService) ListPayments(ctx context.Context, userID string, limit, offset int) ([]*models.Payment, error) {
	limit, offset = clampPage(limit, offset)
	payments, err := s.repos.Payment.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
