// Package payment contains the provider adapters used for checkout and
// webhook settlement. Each adapter verifies its provider's signature scheme
// and normalizes provider payloads into a NormalizedResult.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
)

var (
	ErrProviderNotFound = errors.New("payment provider not configured")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

// NormalizedResult is the provider-independent outcome of a webhook.
// OrderID is our payment ID as echoed by the provider; TransactionID is the
// provider's own reference. Either may be empty.
type NormalizedResult struct {
	Status        models.PaymentStatus
	TransactionID string
	OrderID       string
	Amount        decimal.Decimal
	Currency      string
	RawResponse   string
	Error         string
}

// Webhook is implemented by each provider's typed payload.
type Webhook interface {
	Normalize() NormalizedResult
}

var (
	_ Webhook = (*StripeWebhook)(nil)
	_ Webhook = (*JazzCashWebhook)(nil)
	_ Webhook = (*EasyPaisaWebhook)(nil)
)

// WebhookRequest carries an inbound delivery. Signature is the value of the
// provider's SignatureHeader, if it uses one.
type WebhookRequest struct {
	Payload     []byte
	ContentType string
	Signature   string
}

// InitiateParams describes a checkout to start with a provider.
type InitiateParams struct {
	PaymentID    string
	UserID       string
	Email        string
	PlanID       string
	PlanName     string
	BillingCycle models.BillingCycle
	Amount       decimal.Decimal
	Currency     string
}

// InitiateResult tells the client how to continue the checkout: either follow
// RedirectURL, or POST FormData to FormAction.
type InitiateResult struct {
	Success       bool              `json:"success"`
	TransactionID string            `json:"transaction_id,omitempty"`
	RedirectURL   string            `json:"redirect_url,omitempty"`
	FormAction    string            `json:"form_action,omitempty"`
	FormData      map[string]string `json:"form_data,omitempty"`
}

// Provider is a payment adapter.
type Provider interface {
	Name() models.PaymentProvider
	// SignatureHeader names the HTTP header carrying the webhook signature,
	// or "" if the signature is part of the payload.
	SignatureHeader() string
	VerifyWebhook(req WebhookRequest) bool
	ProcessWebhook(req WebhookRequest) (*NormalizedResult, error)
	InitiatePayment(ctx context.Context, params InitiateParams) (*InitiateResult, error)
}
