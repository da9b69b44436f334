package routes

import (
	"context"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/http/handlers"
)

// TTSHandlers defines the interface for text-to-speech operations.
type TTSHandlers interface {
	Generate(ctx context.Context, input *handlers.GenerateInput) (*handlers.GenerateOutput, error)
	ListGenerations(ctx context.Context, input *handlers.PageInput) (*handlers.ListGenerationsOutput, error)
	GetGeneration(ctx context.Context, input *handlers.GetGenerationInput) (*handlers.GetGenerationOutput, error)
	Today(ctx context.Context, input *struct{}) (*handlers.TodayOutput, error)
}

// VoiceHandlers defines the interface for voice operations.
type VoiceHandlers interface {
	ListVoices(ctx context.Context, input *struct{}) (*handlers.ListVoicesOutput, error)
	GetVoice(ctx context.Context, input *handlers.VoiceIDInput) (*handlers.VoiceOutput, error)
	CloneVoice(ctx context.Context, input *handlers.CloneVoiceInput) (*handlers.VoiceOutput, error)
	DeleteVoice(ctx context.Context, input *handlers.VoiceIDInput) (*handlers.DeleteVoiceOutput, error)
}

// CreditHandlers defines the interface for balance operations.
type CreditHandlers interface {
	GetBalance(ctx context.Context, input *struct{}) (*handlers.BalanceOutput, error)
}

// UsageHandlers defines the interface for usage operations.
type UsageHandlers interface {
	GetUsage(ctx context.Context, input *handlers.GetUsageInput) (*handlers.GetUsageOutput, error)
}

// AccountHandlers defines the interface for account and plan operations.
type AccountHandlers interface {
	GetAccount(ctx context.Context, input *struct{}) (*handlers.GetAccountOutput, error)
	DeleteAccount(ctx context.Context, input *struct{}) (*handlers.DeleteAccountOutput, error)
	ListPlans(ctx context.Context, input *struct{}) (*handlers.ListPlansOutput, error)
}

// PaymentHandlers defines the interface for checkout and payment history.
type PaymentHandlers interface {
	Checkout(ctx context.Context, input *handlers.CheckoutInput) (*handlers.CheckoutOutput, error)
	ListProviders(ctx context.Context, input *struct{}) (*handlers.ListProvidersOutput, error)
	ListPayments(ctx context.Context, input *handlers.PageInput) (*handlers.ListPaymentsOutput, error)
	GetPayment(ctx context.Context, input *handlers.GetPaymentInput) (*handlers.GetPaymentOutput, error)
}

// Handlers aggregates all handler interfaces for route registration.
// For the main server, pass real handler implementations.
// For OpenAPI generation, pass stub implementations.
type Handlers struct {
	HealthCheck func(ctx context.Context, input *struct{}) (*handlers.HealthCheckOutput, error)

	// Kubernetes probes (hidden from docs)
	Livez  func(ctx context.Context, input *struct{}) (*handlers.ProbeOutput, error)
	Readyz func(ctx context.Context, input *struct{}) (*handlers.ProbeOutput, error)

	TTS     TTSHandlers
	Voice   VoiceHandlers
	Credit  CreditHandlers
	Usage   UsageHandlers
	Account AccountHandlers
	Payment PaymentHandlers
}
