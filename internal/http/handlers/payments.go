package handlers

import (
	"context"
	"strings"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/service"
)

// PaymentHandler handles checkout and payment history endpoints.
type PaymentHandler struct {
	checkoutSvc *service.CheckoutService
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(checkoutSvc *service.CheckoutService) *PaymentHandler {
	return &PaymentHandler{checkoutSvc: checkoutSvc}
}

// CheckoutInput starts a plan purchase.
type CheckoutInput struct {
	Body struct {
		PlanID       string `json:"planId" minLength:"1" doc:"Plan to purchase"`
		BillingCycle string `json:"billingCycle" enum:"MONTHLY,YEARLY,monthly,yearly" doc:"Billing cycle"`
		Provider     string `json:"provider" minLength:"1" doc:"Payment provider (STRIPE, JAZZCASH, EASYPAISA)"`
	}
}

// CheckoutOutput tells the client how to complete payment.
type CheckoutOutput struct {
	Body *service.CheckoutResult
}

// Checkout creates a payment and initiates it with the chosen provider.
func (h *PaymentHandler) Checkout(ctx context.Context, input *CheckoutInput) (*CheckoutOutput, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := h.checkoutSvc.Checkout(ctx, service.CheckoutInput{
		UserID:       userID,
		PlanID:       input.Body.PlanID,
		BillingCycle: models.BillingCycle(strings.ToUpper(input.Body.BillingCycle)),
		Provider:     models.PaymentProvider(strings.ToUpper(input.Body.Provider)),
	})
	if err != nil {
		return nil, toHTTPError(err, "failed to start checkout")
	}
	return &CheckoutOutput{Body: result}, nil
}

// ListProvidersOutput lists the configured payment providers.
type ListProvidersOutput struct {
	Body struct {
		Providers []models.PaymentProvider `json:"providers"`
	}
}

// ListProviders returns the providers checkout can use.
func (h *PaymentHandler) ListProviders(ctx context.Context, input *struct{}) (*ListProvidersOutput, error) {
	out := &ListProvidersOutput{}
	out.Body.Providers = h.checkoutSvc.Providers()
	return out, nil
}

// ListPaymentsOutput represents a page of payments.
type ListPaymentsOutput struct {
	Body struct {
		Payments []*models.Payment `json:"payments"`
	}
}

// ListPayments returns the caller's payment history, newest first.
func (h *PaymentHandler) ListPayments(ctx context.Context, input *PageInput) (*ListPaymentsOutput, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	payments, err := h.checkoutSvc.ListPayments(ctx, userID, input.Limit, input.Offset)
	if err != nil {
		return nil, toHTTPError(err, "failed to list payments")
	}
	if payments == nil {
		payments = []*models.Payment{}
	}

	out := &ListPaymentsOutput{}
	out.Body.Payments = payments
	return out, nil
}

// GetPaymentInput identifies a payment.
type GetPaymentInput struct {
	ID string `path:"id" doc:"Payment ID"`
}

// GetPaymentOutput represents a single payment.
type GetPaymentOutput struct {
	Body *models.Payment
}

// GetPayment returns one of the caller's payments.
func (h *PaymentHandler) GetPayment(ctx context.Context, input *GetPaymentInput) (*GetPaymentOutput, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	p, err := h.checkoutSvc.GetPayment(ctx, userID, input.ID)
	if err != nil {
		return nil, toHTTPError(err, "failed to get payment")
	}
	return &GetPaymentOutput{Body: p}, nil
}
