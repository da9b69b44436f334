package routes

import (
	"context"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/http/handlers"
)

// StubHandlers returns a Handlers instance with stub implementations.
// All handlers return nil responses - these are only used for OpenAPI generation
// where Huma extracts type information from function signatures.
func StubHandlers() *Handlers {
	return &Handlers{
		HealthCheck: handlers.HealthCheck,
		Livez:       handlers.Livez,
		Readyz:      stubProbe,

		TTS:     &stubTTSHandlers{},
		Voice:   &stubVoiceHandlers{},
		Credit:  &stubCreditHandlers{},
		Usage:   &stubUsageHandlers{},
		Account: &stubAccountHandlers{},
		Payment: &stubPaymentHandlers{},
	}
}

func stubProbe(_ context.Context, _ *struct{}) (*handlers.ProbeOutput, error) {
	return nil, nil
}

type stubTTSHandlers struct{}

func (s *stubTTSHandlers) Generate(_ context.Context, _ *handlers.GenerateInput) (*handlers.GenerateOutput, error) {
	return nil, nil
}

func (s *stubTTSHandlers) ListGenerations(_ context.Context, _ *handlers.PageInput) (*handlers.ListGenerationsOutput, error) {
	return nil, nil
}

func (s *stubTTSHandlers) GetGeneration(_ context.Context, _ *handlers.GetGenerationInput) (*handlers.GetGenerationOutput, error) {
	return nil, nil
}

func (s *stubTTSHandlers) Today(_ context.Context, _ *struct{}) (*handlers.TodayOutput, error) {
	return nil, nil
}

type stubVoiceHandlers struct{}

func (s *stubVoiceHandlers) ListVoices(_ context.Context, _ *struct{}) (*handlers.ListVoicesOutput, error) {
	return nil, nil
}

func (s *stubVoiceHandlers) GetVoice(_ context.Context, _ *handlers.VoiceIDInput) (*handlers.VoiceOutput, error) {
	return nil, nil
}

func (s *stubVoiceHandlers) CloneVoice(_ context.Context, _ *handlers.CloneVoiceInput) (*handlers.VoiceOutput, error) {
	return nil, nil
}

func (s *stubVoiceHandlers) DeleteVoice(_ context.Context, _ *handlers.VoiceIDInput) (*handlers.DeleteVoiceOutput, error) {
	return nil, nil
}

type stubCreditHandlers struct{}

func (s *stubCreditHandlers) GetBalance(_ context.Context, _ *struct{}) (*handlers.BalanceOutput, error) {
	return nil, nil
}

type stubUsageHandlers struct{}

func (s *stubUsageHandlers) GetUsage(_ context.Context, _ *handlers.GetUsageInput) (*handlers.GetUsageOutput, error) {
	return nil, nil
}

type stubAccountHandlers struct{}

func (s *stubAccountHandlers) GetAccount(_ context.Context, _ *struct{}) (*handlers.GetAccountOutput, error) {
	return nil, nil
}

func (s *stubAccountHandlers) DeleteAccount(_ context.Context, _ *struct{}) (*handlers.DeleteAccountOutput, error) {
	return nil, nil
}

func (s *stubAccountHandlers) ListPlans(_ context.Context, _ *struct{}) (*handlers.ListPlansOutput, error) {
	return nil, nil
}

type stubPaymentHandlers struct{}

func (s *stubPaymentHandlers) Checkout(_ context.Context, _ *handlers.CheckoutInput) (*handlers.CheckoutOutput, error) {
	return nil, nil
}

func (s *stubPaymentHandlers) ListProviders(_ context.Context, _ *struct{}) (*handlers.ListProvidersOutput, error) {
	return nil, nil
}

func (s *stubPaymentHandlers) ListPayments(_ context.Context, _ *handlers.PageInput) (*handlers.ListPaymentsOutput, error) {
	return nil, nil
}

func (s *stubPaymentHandlers) GetPayment(_ context.Context, _ *handlers.GetPaymentInput) (*handlers.GetPaymentOutput, error) {
	return nil, nil
}
