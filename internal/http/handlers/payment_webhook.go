package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/logging"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/payment"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/service"
)

const maxWebhookBodySize = 65536 // 64KB

// PaymentWebhookHandler receives provider payment notifications.
type PaymentWebhookHandler struct {
	settlementSvc *service.SettlementService
	registry      *payment.Registry
	logger        *slog.Logger
}

// NewPaymentWebhookHandler creates a new payment webhook handler.
func NewPaymentWebhookHandler(settlementSvc *service.SettlementService, registry *payment.Registry, logger *slog.Logger) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{
		settlementSvc: settlementSvc,
		registry:      registry,
		logger:        logger,
	}
}

// HandleWebhook processes POST /payments/webhook/{provider}.
// This is a raw HTTP handler since signatures are computed over the raw body.
//
// Everything the settlement service acknowledges gets a 200 so providers stop
// retrying. Bad signatures get 401, unknown providers 404, and a failed
// settlement transaction 500 so the provider redelivers.
func (h *PaymentWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	provider := models.PaymentProvider(strings.ToUpper(chi.URLParam(r, "provider")))
	logger := logging.FromContext(r.Context(), h.logger).With("provider", provider)

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodySize)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("failed to read webhook body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var sigHeader string
	if p, err := h.registry.Get(provider); err == nil && p.SignatureHeader() != "" {
		sigHeader = r.Header.Get(p.SignatureHeader())
	}

	result, err := h.settlementSvc.HandleWebhook(r.Context(), provider, payment.WebhookRequest{
		Payload:     payload,
		ContentType: r.Header.Get("Content-Type"),
		Signature:   sigHeader,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			logger.Warn("webhook signature rejected", "payload", string(payload))
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		case errors.Is(err, service.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown payment provider"})
		default:
			logger.Error("webhook settlement failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "settlement failed"})
		}
		return
	}

	logger.Info("webhook handled",
		"payment_id", result.PaymentID,
		"status", result.Status,
		"message", result.Message,
	)
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
