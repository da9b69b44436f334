package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
)

// paymentIDMetadataKey links Stripe objects back to our payment row.
const paymentIDMetadataKey = "payment_id"

// StripeConfig holds Stripe API credentials.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	// Backend overrides the API backend. Nil uses the default Stripe API.
	Backend stripe.Backend
}

// StripeWebhook is a Stripe event reduced to the fields settlement needs.
// Events that do not affect a payment carry empty IDs.
type StripeWebhook struct {
	EventID       string
	EventType     stripe.EventType
	PaymentID     string
	TransactionID string
	Paid          bool
	Failed        bool
	AmountMinor   int64
	Currency      string
	FailureReason string

	raw string
}

func (w *StripeWebhook) Normalize() NormalizedResult {
	res := NormalizedResult{
		TransactionID: w.TransactionID,
		OrderID:       w.PaymentID,
		Amount:        decimal.New(w.AmountMinor, -2),
		Currency:      strings.ToUpper(w.Currency),
		RawResponse:   w.raw,
	}
	switch {
	case w.Paid:
		res.Status = models.PaymentStatusCompleted
	case w.Failed:
		res.Status = models.PaymentStatusFailed
		res.Error = w.FailureReason
	default:
		// Not a settlement event; drop the references so nothing matches.
		res.Status = models.PaymentStatusPending
		res.TransactionID = ""
		res.OrderID = ""
	}
	return res
}

// Stripe implements Provider using Stripe Checkout.
type Stripe struct {
	cfg      StripeConfig
	sessions *session.Client
}

// NewStripe creates a Stripe adapter.
func NewStripe(cfg StripeConfig) *Stripe {
	backend := cfg.Backend
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	return &Stripe{
		cfg:      cfg,
		sessions: &session.Client{B: backend, Key: cfg.SecretKey},
	}
}

func (s *Stripe) Name() models.PaymentProvider { return models.PaymentProviderStripe }

func (s *Stripe) SignatureHeader() string { return "Stripe-Signature" }

// VerifyWebhook checks the Stripe-Signature header against the endpoint secret.
func (s *Stripe) VerifyWebhook(req WebhookRequest) bool {
	if req.Signature == "" {
		return false
	}
	_, err := s.constructEvent(req)
	return err == nil
}

func (s *Stripe) ProcessWebhook(req WebhookRequest) (*NormalizedResult, error) {
	event, err := s.constructEvent(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	w, err := stripeWebhookFromEvent(event)
	if err != nil {
		return nil, err
	}
	w.raw = string(req.Payload)

	res := w.Normalize()
	return &res, nil
}

func (s *Stripe) constructEvent(req WebhookRequest) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(req.Payload, req.Signature, s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
}

func stripeWebhookFromEvent(event stripe.Event) (*StripeWebhook, error) {
	w := &StripeWebhook{EventID: event.ID, EventType: event.Type}
	if event.Data == nil {
		return w, nil
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded",
		"checkout.session.async_payment_failed", "checkout.session.expired":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("%w: checkout session: %v", ErrInvalidPayload, err)
		}
		w.PaymentID = cs.ClientReferenceID
		if w.PaymentID == "" {
			w.PaymentID = cs.Metadata[paymentIDMetadataKey]
		}
		w.TransactionID = cs.ID
		if cs.PaymentIntent != nil && cs.PaymentIntent.ID != "" {
			w.TransactionID = cs.PaymentIntent.ID
		}
		w.AmountMinor = cs.AmountTotal
		w.Currency = string(cs.Currency)

		switch event.Type {
		case "checkout.session.completed", "checkout.session.async_payment_succeeded":
			// Delayed payment methods complete the session unpaid and
			// settle through async_payment_succeeded.
			w.Paid = cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid
		case "checkout.session.async_payment_failed":
			w.Failed = true
			w.FailureReason = "stripe: async payment failed"
		case "checkout.session.expired":
			w.Failed = true
			w.FailureReason = "stripe: checkout session expired"
		}

	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: payment intent: %v", ErrInvalidPayload, err)
		}
		w.PaymentID = pi.Metadata[paymentIDMetadataKey]
		w.TransactionID = pi.ID
		w.AmountMinor = pi.Amount
		w.Currency = string(pi.Currency)
		w.Failed = true
		w.FailureReason = "stripe: payment failed"
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			w.FailureReason = pi.LastPaymentError.Msg
		}
	}

	return w, nil
}

// InitiatePayment creates a Checkout Session and returns its hosted URL.
func (s *Stripe) InitiatePayment(ctx context.Context, params InitiateParams) (*InitiateResult, error) {
	sp := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.cfg.SuccessURL + "?payment_id=" + params.PaymentID),
		CancelURL:         stripe.String(s.cfg.CancelURL + "?payment_id=" + params.PaymentID),
		ClientReferenceID: stripe.String(params.PaymentID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(params.Currency)),
					UnitAmount: stripe.Int64(params.Amount.Shift(2).IntPart()),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("%s plan (%s)", params.PlanName, strings.ToLower(string(params.BillingCycle)))),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{paymentIDMetadataKey: params.PaymentID},
		},
	}
	if params.Email != "" {
		sp.CustomerEmail = stripe.String(params.Email)
	}
	sp.Context = ctx
	sp.AddMetadata(paymentIDMetadataKey, params.PaymentID)
	sp.AddMetadata("plan_id", params.PlanID)
	sp.AddMetadata("user_id", params.UserID)

	cs, err := s.sessions.New(sp)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &InitiateResult{
		Success:       true,
		TransactionID: cs.ID,
		RedirectURL:   cs.URL,
	}, nil
}
