package routes

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/http/handlers"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/http/mw"
)

// Register registers all API routes with the given Huma API instance.
// Pass real handler implementations for the main server, or stub implementations
// for OpenAPI generation. Provider webhooks are raw chi handlers and are
// mounted by the server.
func Register(api huma.API, h *Handlers) {
	// =========================================================================
	// Public Routes (no auth required)
	// =========================================================================

	mw.PublicGet(api, "/api/v1/health", h.HealthCheck,
		mw.WithTags("Health"),
		mw.WithSummary("Health check"),
		mw.WithOperationID("healthCheck"))

	mw.PublicGet(api, "/api/v1/plans", h.Account.ListPlans,
		mw.WithTags("Billing"),
		mw.WithSummary("List plans"),
		mw.WithOperationID("listPlans"))

	mw.PublicGet(api, "/api/v1/payments/providers", h.Payment.ListProviders,
		mw.WithTags("Billing"),
		mw.WithSummary("List payment providers"),
		mw.WithOperationID("listPaymentProviders"))

	mw.HiddenGet(api, "/healthz", h.Livez)
	mw.HiddenGet(api, "/readyz", h.Readyz)

	// =========================================================================
	// Protected Routes (require bearer auth)
	// =========================================================================

	// --- Speech ---
	mw.ProtectedPost(api, "/api/v1/tts/generate", h.TTS.Generate,
		mw.WithTags("Speech"),
		mw.WithSummary("Generate speech"),
		mw.WithDescription("Synthesizes text with a preset or cloned voice. Costs one credit per non-whitespace character; nothing is charged unless audio is produced."),
		mw.WithOperationID("generateSpeech"),
		mw.WithErrors(http.StatusPaymentRequired, http.StatusTooManyRequests, http.StatusBadGateway))
	mw.ProtectedGet(api, "/api/v1/tts/generations", h.TTS.ListGenerations,
		mw.WithTags("Speech"),
		mw.WithSummary("List generations"),
		mw.WithOperationID("listGenerations"))
	mw.ProtectedGet(api, "/api/v1/tts/generations/{id}", h.TTS.GetGeneration,
		mw.WithTags("Speech"),
		mw.WithSummary("Get generation"),
		mw.WithOperationID("getGeneration"))
	mw.ProtectedGet(api, "/api/v1/tts/today", h.TTS.Today,
		mw.WithTags("Speech"),
		mw.WithSummary("Get today's generation count"),
		mw.WithOperationID("getTodayGenerations"))

	// --- Voices ---
	mw.ProtectedGet(api, "/api/v1/voices", h.Voice.ListVoices,
		mw.WithTags("Voices"),
		mw.WithSummary("List voices"),
		mw.WithOperationID("listVoices"))
	mw.ProtectedGet(api, "/api/v1/voices/{id}", h.Voice.GetVoice,
		mw.WithTags("Voices"),
		mw.WithSummary("Get voice"),
		mw.WithOperationID("getVoice"))
	mw.ProtectedPost(api, "/api/v1/voices", h.Voice.CloneVoice,
		mw.WithTags("Voices"),
		mw.WithSummary("Clone voice"),
		mw.WithDescription("Clones a voice from an audio sample. Limited by the plan's voice slots."),
		mw.WithOperationID("cloneVoice"),
		mw.WithStatus(http.StatusCreated),
		mw.WithMaxBodyBytes(handlers.MaxVoiceBodyBytes),
		mw.WithErrors(http.StatusForbidden, http.StatusBadGateway))
	mw.ProtectedDelete(api, "/api/v1/voices/{id}", h.Voice.DeleteVoice,
		mw.WithTags("Voices"),
		mw.WithSummary("Delete voice"),
		mw.WithOperationID("deleteVoice"))

	// --- Credits ---
	mw.ProtectedGet(api, "/api/v1/credits", h.Credit.GetBalance,
		mw.WithTags("Credits"),
		mw.WithSummary("Get credit balance"),
		mw.WithOperationID("getCredits"))
	mw.ProtectedGet(api, "/api/v1/usage", h.Usage.GetUsage,
		mw.WithTags("Credits"),
		mw.WithSummary("Get usage history"),
		mw.WithOperationID("getUsage"))

	// --- Billing ---
	mw.ProtectedPost(api, "/api/v1/payments/checkout", h.Payment.Checkout,
		mw.WithTags("Billing"),
		mw.WithSummary("Start checkout"),
		mw.WithDescription("Creates a payment for a plan and returns a redirect URL or a form to post to the provider."),
		mw.WithOperationID("checkout"),
		mw.WithErrors(http.StatusBadGateway))
	mw.ProtectedGet(api, "/api/v1/payments", h.Payment.ListPayments,
		mw.WithTags("Billing"),
		mw.WithSummary("List payments"),
		mw.WithOperationID("listPayments"))
	mw.ProtectedGet(api, "/api/v1/payments/{id}", h.Payment.GetPayment,
		mw.WithTags("Billing"),
		mw.WithSummary("Get payment"),
		mw.WithOperationID("getPayment"))

	// --- Account ---
	mw.ProtectedGet(api, "/api/v1/account", h.Account.GetAccount,
		mw.WithTags("Account"),
		mw.WithSummary("Get account"),
		mw.WithOperationID("getAccount"))
	mw.ProtectedDelete(api, "/api/v1/account", h.Account.DeleteAccount,
		mw.WithTags("Account"),
		mw.WithSummary("Delete account"),
		mw.WithOperationID("deleteAccount"))
}
