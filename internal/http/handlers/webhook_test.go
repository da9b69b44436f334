package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/service"
)

const paymentWebhookPath = "/api/v1/payments/webhook/"

// ========================================
// Payment Webhook Tests
// ========================================

func startEasyPaisaCheckout(t *testing.T, s *testServer) string {
	t.Helper()

	resp := s.api.Post("/api/v1/payments/checkout", s.bearer(t, testUserID), map[string]any{
		"planId":       "starter",
		"billingCycle": "monthly",
		"provider":     "easypaisa",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("checkout status = %d, want 200: %s", resp.Code, resp.Body.String())
	}

	var result service.CheckoutResult
	decode(t, resp, &result)
	if result.Status != models.PaymentStatusProcessing {
		t.Errorf("checkout status = %q, want PROCESSING", result.Status)
	}
	if result.RedirectURL == "" {
		t.Error("expected a redirect URL")
	}
	return result.PaymentID
}

func easyPaisaPostback(t *testing.T, paymentID, status string) ([]byte, string) {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"orderId":           paymentID,
		"transactionId":     "ep-txn-" + paymentID,
		"storeId":           "store-1",
		"transactionAmount": "1499",
		"transactionStatus": status,
	})
	if err != nil {
		t.Fatalf("failed to marshal postback: %v", err)
	}

	h := hmac.New(sha256.New, []byte(testEasyPaisaKey))
	h.Write(payload)
	return payload, base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func TestPaymentWebhook_CompletesPaymentAndGrantsCredits(t *testing.T) {
	s := newTestServer(t)
	paymentID := startEasyPaisaCheckout(t, s)

	payload, sig := easyPaisaPostback(t, paymentID, "PAID")
	headers := map[string]string{
		"Content-Type":          "application/json",
		"X-Easypaisa-Signature": sig,
	}

	rec := s.post(paymentWebhookPath+"easypaisa", payload, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var result service.WebhookResult
	decode(t, rec, &result)
	if !result.Received {
		t.Error("expected received=true")
	}

	bal, err := s.services.Credit.GetBalance(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	if bal.Total != 30000 {
		t.Errorf("total credits = %d, want 30000 after starter upgrade", bal.Total)
	}

	resp := s.api.Get("/api/v1/payments/"+paymentID, s.bearer(t, testUserID))
	var p models.Payment
	decode(t, resp, &p)
	if p.Status != models.PaymentStatusCompleted {
		t.Errorf("payment status = %q, want COMPLETED", p.Status)
	}

	// A redelivered postback is acknowledged without granting credits again.
	rec = s.post(paymentWebhookPath+"easypaisa", payload, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("redelivery status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &result)
	if result.Message != service.MsgAlreadyCompleted {
		t.Errorf("redelivery message = %q, want %q", result.Message, service.MsgAlreadyCompleted)
	}
	bal, err = s.services.Credit.GetBalance(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	if bal.Total != 30000 {
		t.Errorf("total credits after redelivery = %d, want 30000", bal.Total)
	}
}

func TestPaymentWebhook_FailedPayment(t *testing.T) {
	s := newTestServer(t)
	paymentID := startEasyPaisaCheckout(t, s)

	payload, sig := easyPaisaPostback(t, paymentID, "FAILED")
	rec := s.post(paymentWebhookPath+"easypaisa", payload, map[string]string{
		"X-Easypaisa-Signature": sig,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	bal, err := s.services.Credit.GetBalance(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	if bal.Total != 2000 {
		t.Errorf("total credits = %d, want unchanged 2000", bal.Total)
	}
}

func TestPaymentWebhook_Rejections(t *testing.T) {
	s := newTestServer(t)
	paymentID := startEasyPaisaCheckout(t, s)
	payload, _ := easyPaisaPostback(t, paymentID, "PAID")

	tests := []struct {
		name     string
		provider string
		headers  map[string]string
		want     int
	}{
		{
			name:     "missing signature",
			provider: "easypaisa",
			headers:  map[string]string{},
			want:     http.StatusUnauthorized,
		},
		{
			name:     "wrong signature",
			provider: "easypaisa",
			headers:  map[string]string{"X-Easypaisa-Signature": base64.StdEncoding.EncodeToString([]byte("forged"))},
			want:     http.StatusUnauthorized,
		},
		{
			name:     "unknown provider",
			provider: "paypal",
			headers:  map[string]string{},
			want:     http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.post(paymentWebhookPath+tt.provider, payload, tt.headers)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	bal, err := s.services.Credit.GetBalance(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	if bal.Total != 2000 {
		t.Errorf("total credits = %d, rejected webhooks must not grant credits", bal.Total)
	}
}

// ========================================
// Account Webhook Tests
// ========================================

func signedAccountEvent(t *testing.T, eventType string, data map[string]any) ([]byte, map[string]string) {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"type":   eventType,
		"object": "event",
		"data":   data,
	})
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	wh, err := svix.NewWebhook(testWebhookSecret)
	if err != nil {
		t.Fatalf("svix.NewWebhook() error = %v", err)
	}
	msgID := "msg_" + eventType
	now := time.Now()
	sig, err := wh.Sign(msgID, now, payload)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	return payload, map[string]string{
		"svix-id":        msgID,
		"svix-timestamp": strconv.FormatInt(now.Unix(), 10),
		"svix-signature": sig,
	}
}

func TestAccountWebhook_UserLifecycle(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	payload, headers := signedAccountEvent(t, "user.created", map[string]any{
		"id":                       "user_new",
		"first_name":               "Ayesha",
		"last_name":                "Khan",
		"primary_email_address_id": "email_1",
		"email_addresses": []map[string]string{
			{"id": "email_0", "email_address": "old@example.com"},
			{"id": "email_1", "email_address": "ayesha@example.com"},
		},
	})

	rec := s.post("/api/v1/webhooks/accounts", payload, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("user.created status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	acct, err := s.services.Account.Get(ctx, "user_new")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if acct.User.Email != "ayesha@example.com" {
		t.Errorf("email = %q, want primary address", acct.User.Email)
	}
	if acct.Balance.Available != 2000 {
		t.Errorf("available = %d, want 2000 free credits", acct.Balance.Available)
	}

	// Redelivery must not reset or duplicate the account.
	rec = s.post("/api/v1/webhooks/accounts", payload, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("redelivered user.created status = %d, want 200", rec.Code)
	}

	payload, headers = signedAccountEvent(t, "user.deleted", map[string]any{"id": "user_new"})
	rec = s.post("/api/v1/webhooks/accounts", payload, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("user.deleted status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	if _, err := s.services.Account.Get(ctx, "user_new"); err == nil {
		t.Error("expected deleted account to be not found")
	}
}

func TestAccountWebhook_BadSignature(t *testing.T) {
	s := newTestServer(t)

	payload, headers := signedAccountEvent(t, "user.created", map[string]any{"id": "user_forged"})
	headers["svix-signature"] = "v1,Zm9yZ2Vk"

	rec := s.post("/api/v1/webhooks/accounts", payload, headers)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	if _, err := s.services.Account.Get(context.Background(), "user_forged"); err == nil {
		t.Error("forged event must not provision an account")
	}
}
