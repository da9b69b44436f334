package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/crypto"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/payment"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/repository"
)

// Webhook acknowledgement messages.
const (
	MsgPaymentProcessed = "Payment processed"
	MsgAlreadyCompleted = "Already completed"
	MsgNotProcessed     = "Webhook received but not processed"
	MsgPaymentFailed    = "Payment marked as failed"
)

// errAlreadySettled signals that a concurrent delivery completed the payment first.
var errAlreadySettled = errors.New("payment already settled")

// WebhookResult is the acknowledgement returned to the provider.
type WebhookResult struct {
	Received  bool                 `json:"received"`
	Message   string               `json:"message"`
	PaymentID string               `json:"-"`
	Status    models.PaymentStatus `json:"-"`
}

// SettlementService turns provider webhooks into idempotent payment,
// subscription and ledger transitions.
type SettlementService struct {
	repos     *repository.Repositories
	registry  *payment.Registry
	encryptor *crypto.Encryptor
	logger    *slog.Logger
	now       func() time.Time
}

// NewSettlementService creates a new settlement service.
func NewSettlementService(repos *repository.Repositories, registry *payment.Registry, encryptor *crypto.Encryptor, logger *slog.Logger) *SettlementService {
	return &SettlementService{
		repos:     repos,
		registry:  registry,
		encryptor: encryptor,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleWebhook verifies and applies a provider webhook.
//
// Errors: ErrNotFound for an unregistered provider, ErrUnauthorized when the
// signature does not verify (checked before any lookup), and
// ErrTransactionFailure when the settlement transaction cannot commit.
// Everything else, including unknown payments, is acknowledged.
func (s *SettlementService) HandleWebhook(ctx context.Context, provider models.PaymentProvider, req payment.WebhookRequest) (*WebhookResult, error) {
	adapter, err := s.registry.Get(provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	if !adapter.VerifyWebhook(req) {
		s.logger.Warn("webhook signature verification failed",
			"provider", provider,
			"payload", truncate(string(req.Payload), 2048),
		)
		return nil, ErrUnauthorized
	}

	res, err := adapter.ProcessWebhook(req)
	if err != nil {
		s.logger.Warn("authentic webhook could not be parsed", "provider", provider, "error", err)
		return &WebhookResult{Received: true, Message: MsgNotProcessed}, nil
	}

	if res.OrderID == "" && res.TransactionID == "" {
		return &WebhookResult{Received: true, Message: MsgNotProcessed}, nil
	}

	p, err := s.repos.Payment.FindForWebhook(ctx, res.OrderID, res.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	if p == nil || p.Provider != provider {
		s.logger.Info("webhook references unknown payment",
			"provider", provider,
			"order_id", res.OrderID,
			"transaction_id", res.TransactionID,
		)
		return &WebhookResult{Received: true, Message: MsgNotProcessed}, nil
	}

	if p.Status == models.PaymentStatusCompleted {
		return &WebhookResult{Received: true, Message: MsgAlreadyCompleted, PaymentID: p.ID, Status: p.Status}, nil
	}

	sealed, err := s.encryptor.Seal(res.RawResponse, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt provider response: %w", err)
	}

	if res.Status == models.PaymentStatusCompleted {
		return s.settle(ctx, p, res, sealed)
	}
	return s.fail(ctx, p, res, sealed)
}

// settle completes the payment, activates the subscription, resets the
// ledger and appends the usage record in a single transaction.
func (s *SettlementService) settle(ctx context.Context, p *models.Payment, res *payment.NormalizedResult, sealedRaw string) (*WebhookResult, error) {
	if !res.Amount.IsZero() && !res.Amount.Equal(p.Amount) {
		s.logger.Warn("settled amount differs from payment amount",
			"payment_id", p.ID,
			"expected", p.Amount.String(),
			"received", res.Amount.String(),
		)
	}

	txnID := res.TransactionID
	if txnID == "" {
		txnID = p.ProviderTxnID
	}
	now := s.now().UTC()
	periodEnd := now.AddDate(0, p.BillingCycle.Months(), 0)

	var plan *models.Plan
	err := s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.Payment.MarkCompleted(ctx, p.ID, txnID, sealedRaw, now); err != nil {
			if errors.Is(err, repository.ErrNoRowsAffected) {
				return errAlreadySettled
			}
			return fmt.Errorf("failed to complete payment: %w", err)
		}

		var err error
		plan, err = tx.Plan.GetByID(ctx, p.PlanID)
		if err != nil {
			return fmt.Errorf("failed to get plan: %w", err)
		}
		if plan == nil {
			return fmt.Errorf("plan %s: %w", p.PlanID, ErrNotFound)
		}

		if err := tx.Subscription.Upsert(ctx, &models.Subscription{
			ID:                 ulid.Make().String(),
			UserID:             p.UserID,
			PlanID:             plan.ID,
			Status:             models.SubscriptionStatusActive,
			BillingCycle:       p.BillingCycle,
			CurrentPeriodStart: now,
			CurrentPeriodEnd:   periodEnd,
			CreatedAt:          now,
			UpdatedAt:          now,
		}); err != nil {
			return fmt.Errorf("failed to activate subscription: %w", err)
		}

		if err := resetLedger(ctx, tx.Ledger, p.UserID, plan.CreditsPerMonth, periodEnd, now); err != nil {
			return err
		}

		return tx.Usage.Create(ctx, &models.UsageRecord{
			ID:          ulid.Make().String(),
			UserID:      p.UserID,
			Type:        models.UsageTypeSubscriptionReset,
			Credits:     plan.CreditsPerMonth,
			ReferenceID: p.ID,
			Description: fmt.Sprintf("%s plan activated (%s)", plan.Name, p.BillingCycle),
			CreatedAt:   now,
		})
	})
	if errors.Is(err, errAlreadySettled) {
		return &WebhookResult{Received: true, Message: MsgAlreadyCompleted, PaymentID: p.ID, Status: models.PaymentStatusCompleted}, nil
	}
	if err != nil {
		s.logger.Error("payment settlement rolled back", "payment_id", p.ID, "user_id", p.UserID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailure, err)
	}

	s.logger.Info("payment settled",
		"payment_id", p.ID,
		"user_id", p.UserID,
		"plan_id", plan.ID,
		"credits", plan.CreditsPerMonth,
		"period_end", periodEnd,
	)
	return &WebhookResult{Received: true, Message: MsgPaymentProcessed, PaymentID: p.ID, Status: models.PaymentStatusCompleted}, nil
}

func (s *SettlementService) fail(ctx context.Context, p *models.Payment, res *payment.NormalizedResult, sealedRaw string) (*WebhookResult, error) {
	msg := res.Error
	if msg == "" {
		msg = "payment was not completed"
	}
	err := s.repos.Payment.MarkFailed(ctx, p.ID, truncate(msg, 500), sealedRaw, s.now().UTC())
	if errors.Is(err, repository.ErrNoRowsAffected) {
		return &WebhookResult{Received: true, Message: MsgAlreadyCompleted, PaymentID: p.ID, Status: models.PaymentStatusCompleted}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark payment failed: %w", err)
	}

	s.logger.Info("payment failed", "payment_id", p.ID, "user_id", p.UserID, "reason", msg)
	return &WebhookResult{Received: true, Message: MsgPaymentFailed, PaymentID: p.ID, Status: models.PaymentStatusFailed}, nil
}
