package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/service"
)

// AccountWebhookHandler receives identity provider user lifecycle events.
type AccountWebhookHandler struct {
	secret     string
	accountSvc *service.AccountService
	logger     *slog.Logger
}

// NewAccountWebhookHandler creates a new account webhook handler.
func NewAccountWebhookHandler(secret string, accountSvc *service.AccountService, logger *slog.Logger) *AccountWebhookHandler {
	return &AccountWebhookHandler{
		secret:     secret,
		accountSvc: accountSvc,
		logger:     logger,
	}
}

// AccountWebhookEvent is the svix event envelope.
type AccountWebhookEvent struct {
	Type   string          `json:"type"`
	Object string          `json:"object"`
	Data   json.RawMessage `json:"data"`
}

// AccountUserData is the user object carried by user.* events.
type AccountUserData struct {
	ID                    string `json:"id"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
	EmailAddresses        []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

// PrimaryEmail returns the primary address, or the first one listed.
func (d *AccountUserData) PrimaryEmail() string {
	for _, e := range d.EmailAddresses {
		if e.ID == d.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(d.EmailAddresses) > 0 {
		return d.EmailAddresses[0].EmailAddress
	}
	return ""
}

// DisplayName joins first and last name.
func (d *AccountUserData) DisplayName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// HandleWebhook processes incoming account webhooks.
func (h *AccountWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodySize)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	headers := http.Header{}
	headers.Set("svix-id", r.Header.Get("svix-id"))
	headers.Set("svix-timestamp", r.Header.Get("svix-timestamp"))
	headers.Set("svix-signature", r.Header.Get("svix-signature"))

	wh, err := svix.NewWebhook(h.secret)
	if err != nil {
		h.logger.Error("failed to create webhook verifier", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := wh.Verify(payload, headers); err != nil {
		h.logger.Warn("failed to verify webhook signature", "error", err)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var event AccountWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("failed to parse webhook event", "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := h.handleEvent(r.Context(), event); err != nil {
		// Provisioning is transactional, so a retry is safe.
		h.logger.Error("failed to handle webhook event", "type", event.Type, "error", err)
		http.Error(w, "failed to handle event", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *AccountWebhookHandler) handleEvent(ctx context.Context, event AccountWebhookEvent) error {
	h.logger.Info("received account webhook", "type", event.Type)

	switch event.Type {
	case "user.created":
		var data AccountUserData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("failed to unmarshal user: %w", err)
		}
		created, err := h.accountSvc.Provision(ctx, service.ProvisionInput{
			UserID: data.ID,
			Email:  data.PrimaryEmail(),
			Name:   data.DisplayName(),
		})
		if err != nil {
			return err
		}
		if !created {
			h.logger.Info("user already provisioned", "user_id", data.ID)
		}
		return nil

	case "user.deleted":
		var data AccountUserData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("failed to unmarshal user: %w", err)
		}
		if data.ID == "" {
			return nil
		}
		return h.accountSvc.Delete(ctx, data.ID)

	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type)
		return nil
	}
}
