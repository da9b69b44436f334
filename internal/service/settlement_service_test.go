package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/payment"
)

func startCheckout(t *testing.T, env *testEnv, userID, planID string, cycle models.BillingCycle, provider models.PaymentProvider) *CheckoutResult {
	t.Helper()
	res, err := env.checkout.Checkout(context.Background(), CheckoutInput{
		UserID:       userID,
		PlanID:       planID,
		BillingCycle: cycle,
		Provider:     provider,
	})
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	return res
}

func deliver(t *testing.T, env *testEnv, signature string, body fakeWebhookBody) (*WebhookResult, error) {
	t.Helper()
	return env.settlement.HandleWebhook(context.Background(), models.PaymentProviderJazzCash, payment.WebhookRequest{
		Payload:   webhookBody(t, body),
		Signature: signature,
	})
}

// ========================================
// Settlement
// ========================================

func TestHandleWebhook_SettlesPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provision(t, "user-1", 2000, 500, 100)
	co := startCheckout(t, env, "user-1", "starter", models.BillingCycleMonthly, models.PaymentProviderJazzCash)

	before := time.Now().UTC().Truncate(time.Second)
	res, err := deliver(t, env, "valid", fakeWebhookBody{
		Status:        models.PaymentStatusCompleted,
		OrderID:       co.PaymentID,
		TransactionID: "T-1",
		Amount:        "1499",
	})
	if err != nil {
		t.Fatalf("HandleWebhook failed: %v", err)
	}
	if !res.Received || res.Message != MsgPaymentProcessed {
		t.Errorf("result = %+v", res)
	}

	p, err := env.repos.Payment.GetByID(ctx, co.PaymentID)
	if err != nil {
		t.Fatalf("failed to get payment: %v", err)
	}
	if p.Status != models.PaymentStatusCompleted || p.ProviderTxnID != "T-1" || p.SettledAt == nil {
		t.Errorf("payment = %+v", p)
	}

	sub, err := env.repos.Subscription.GetByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to get subscription: %v", err)
	}
	if sub.PlanID != "starter" || sub.Status != models.SubscriptionStatusActive {
		t.Errorf("subscription = %+v", sub)
	}
	wantEnd := sub.CurrentPeriodStart.AddDate(0, 1, 0)
	if !sub.CurrentPeriodEnd.Equal(wantEnd) {
		t.Errorf("period end = %v, want %v", sub.CurrentPeriodEnd, wantEnd)
	}
	if sub.CurrentPeriodStart.Before(before) {
		t.Errorf("period start = %v, want >= %v", sub.CurrentPeriodStart, before)
	}

	l := env.ledger(t, "user-1")
	if l.TotalCredits != 30000 || l.UsedCredits != 0 || l.BonusCredits != 100 {
		t.Errorf("ledger = %+v, want total 30000, used 0, bonus 100", l)
	}
	if !l.NextResetAt.Equal(sub.CurrentPeriodEnd) {
		t.Errorf("next reset = %v, want %v", l.NextResetAt, sub.CurrentPeriodEnd)
	}

	hist, err := env.usage.History(ctx, "user-1", time.Time{}, 0, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if hist.Totals.Resets != 1 {
		t.Errorf("resets = %d, want 1", hist.Totals.Resets)
	}
}

func TestHandleWebhook_YearlyPeriod(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provision(t, "user-1", 2000, 0, 0)
	co := startCheckout(t, env, "user-1", "pro", models.BillingCycleYearly, models.PaymentProviderJazzCash)
	if co.Amount.String() != "39990" {
		t.Errorf("amount = %s, want 39990", co.Amount)
	}

	if _, err := deliver(t, env, "valid", fakeWebhookBody{Status: models.PaymentStatusCompleted, OrderID: co.PaymentID}); err != nil {
		t.Fatalf("HandleWebhook failed: %v", err)
	}

	sub, err := env.repos.Subscription.GetByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to get subscription: %v", err)
	}
	if want := sub.CurrentPeriodStart.AddDate(0, 12, 0); !sub.CurrentPeriodEnd.Equal(want) {
		t.Errorf("period end = %v, want %v", sub.CurrentPeriodEnd, want)
	}
	if l := env.ledger(t, "user-1"); l.TotalCredits != 100000 {
		t.Errorf("total = %d, want 100000", l.TotalCredits)
	}
}

func TestHandleWebhook_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provision(t, "user-1", 2000, 0, 0)
	co := startCheckout(t, env, "user-1", "starter", models.BillingCycleMonthly, models.PaymentProviderJazzCash)

	body := fakeWebhookBody{Status: models.PaymentStatusCompleted, OrderID: co.PaymentID, TransactionID: "T-1"}
	if _, err := deliver(t, env, "valid", body); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}

	// Spend some credits between deliveries; a second settlement would wipe them.
	if err := debitLedger(ctx, env.repos.Ledger, "user-1", 25, time.Now()); err != nil {
		t.Fatalf("Debit failed: %v", err)
	}

	res, err := deliver(t, env, "valid", body)
	if err != nil {
		t.Fatalf("second delivery failed: %v", err)
	}
	if res.Message != MsgAlreadyCompleted {
		t.Errorf("message = %q, want %q", res.Message, MsgAlreadyCompleted)
	}

	if l := env.ledger(t, "user-1"); l.UsedCredits != 25 || l.TotalCredits != 30000 {
		t.Errorf("ledger = %+v, want used 25 total 30000", l)
	}

	hist, err := env.usage.History(ctx, "user-1", time.Time{}, 0, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if hist.Totals.Resets != 1 {
		t.Errorf("resets = %d, want 1", hist.Totals.Resets)
	}
}

func TestHandleWebhook_LooksUpByTransactionID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provision(t, "user-1", 2000, 0, 0)
	co := startCheckout(t, env, "user-1", "starter", models.BillingCycleMonthly, models.PaymentProviderJazzCash)

	res, err := deliver(t, env, "valid", fakeWebhookBody{
		Status:        models.PaymentStatusCompleted,
		TransactionID: "txn-" + co.PaymentID,
	})
	if err != nil {
		t.Fatalf("HandleWebhook failed: %v", err)
	}
	if res.Message != MsgPaymentProcessed {
		t.Errorf("message = %q", res.Message)
	}
	p, _ := env.repos.Payment.GetByID(ctx, co.PaymentID)
	if p.Status != models.PaymentStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", p.Status)
	}
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provision(t, "user-1", 2000, 0, 0)
	co := startCheckout(t, env, "user-1", "starter", models.BillingCycleMonthly, models.PaymentProviderJazzCash)

	tests := []struct {
		name    string
		orderID string
	}{
		{"known payment", co.PaymentID},
		{"unknown payment", "does-not-exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := deliver(t, env, "forged", fakeWebhookBody{Status: models.PaymentStatusCompleted, OrderID: tt.orderID})
			if !errors.Is(err, ErrUnauthorized) {
				t.Errorf("err = %v, want ErrUnauthorized", err)
			}
		})
	}

	if env.provider.processCalls != 0 {
		t.Errorf("payload processed %d times before verification", env.provider.processCalls)
	}
	p, _ := env.repos.Payment.GetByID(ctx, co.PaymentID)
	if p.Status != models.PaymentStatusProcessing {
		t.Errorf("status = %s, want PROCESSING", p.Status)
	}
	if l := env.ledger(t, "user-1"); l.TotalCredits != 2000 {
		t.Errorf("total = %d, want 2000", l.TotalCredits)
	}
}

func TestHandleWebhook_NotProcessed(t *testing.T) {
	env := newTestEnv(t)
	env.provision(t, "user-1", 2000, 0, 0)

	tests := []struct {
		name string
		body fakeWebhookBody
	}{
		{"unknown payment", fakeWebhookBody{Status: models.PaymentStatusCompleted, OrderID: "missing", TransactionID: "missing"}},
		{"no references", fakeWebhookBody{Status: models.PaymentStatusPending}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := deliver(t, env, "valid", tt.body)
			if err != nil {
				t.Fatalf("HandleWebhook failed: %v", err)
			}
			if !res.Received || res.Message != MsgNotProcessed {
				t.Errorf("result = %+v", res)
			}
		})
	}

	t.Run("malformed payload", func(t *testing.T) {
		res, err := env.settlement.HandleWebhook(context.Background(), models.PaymentProviderJazzCash, payment.WebhookRequest{
			Payload:   []byte("{not json"),
			Signature: "valid",
		})
		if err != nil {
			t.Fatalf("HandleWebhook failed: %v", err)
		}
		if res.Message != MsgNotProcessed {
			t.Errorf("message = %q", res.Message)
		}
	})
}

func TestHandleWebhook_ProviderMismatch(t *testing.T) {
	other := &fakeProvider{name: models.PaymentProviderEasyPaisa}
	env := newTestEnv(t, other)
	ctx := context.Background()
	env.provision(t, "user-1", 2000, 0, 0)
	co := startCheckout(t, env, "user-1", "starter", models.BillingCycleMonthly, models.PaymentProviderJazzCash)

	res, err := env.settlement.HandleWebhook(ctx, models.PaymentProviderEasyPaisa, payment.WebhookRequest{
		Payload:   webhookBody(t, fakeWebhookBody{Status: models.PaymentStatusCompleted, OrderID: co.PaymentID}),
		Signature: "valid",
	})
	if err != nil {
		t.Fatalf("HandleWebhook failed: %v", err)
	}
	if res.Message != MsgNotProcessed {
		t.Errorf("message = %q, want %q", res.Message, MsgNotProcessed)
	}
	p, _ := env.repos.Payment.GetByID(ctx, co.PaymentID)
	if p.Status == models.PaymentStatusCompleted {
		t.Error("payment must not be settled through another provider")
	}
}

func TestHandleWebhook_UnknownProvider(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.settlement.HandleWebhook(context.Background(), models.PaymentProviderStripe, payment.WebhookRequest{Payload: []byte("{}")})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHandleWebhook_FailureThenSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provision(t, "user-1", 2000, 0, 0)
	co := startCheckout(t, env, "user-1", "starter", models.BillingCycleMonthly, models.PaymentProviderJazzCash)

	res, err := deliver(t, env, "valid", fakeWebhookBody{Status: models.PaymentStatusFailed, OrderID: co.PaymentID, Error: "insufficient balance"})
	if err != nil {
		t.Fatalf("HandleWebhook failed: %v", err)
	}
	if res.Message != MsgPaymentFailed {
		t.Errorf("message = %q, want %q", res.Message, MsgPaymentFailed)
	}
	p, _ := env.repos.Payment.GetByID(ctx, co.PaymentID)
	if p.Status != models.PaymentStatusFailed || p.ErrorMessage != "insufficient balance" {
		t.Errorf("payment = %+v", p)
	}
	if l := env.ledger(t, "user-1"); l.TotalCredits != 2000 {
		t.Errorf("failed payment changed the ledger: %+v", l)
	}

	// A retried payment on the same order may still succeed.
	res, err = deliver(t, env, "valid", fakeWebhookBody{Status: models.PaymentStatusCompleted, OrderID: co.PaymentID})
	if err != nil {
		t.Fatalf("HandleWebhook failed: %v", err)
	}
	if res.Message != MsgPaymentProcessed {
		t.Errorf("message = %q, want %q", res.Message, MsgPaymentProcessed)
	}
	if l := env.ledger(t, "user-1"); l.TotalCredits != 30000 {
		t.Errorf("total = %d, want 30000", l.TotalCredits)
	}
}

func TestHandleWebhook_FailureAfterCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provision(t, "user-1", 2000, 0, 0)
	co := startCheckout(t, env, "user-1", "starter", models.BillingCycleMonthly, models.PaymentProviderJazzCash)

	if _, err := deliver(t, env, "valid", fakeWebhookBody{Status: models.PaymentStatusCompleted, OrderID: co.PaymentID}); err != nil {
		t.Fatalf("HandleWebhook failed: %v", err)
	}
	res, err := deliver(t, env, "valid", fakeWebhookBody{Status: models.PaymentStatusFailed, OrderID: co.PaymentID})
	if err != nil {
		t.Fatalf("HandleWebhook failed: %v", err)
	}
	if res.Message != MsgAlreadyCompleted {
		t.Errorf("message = %q, want %q", res.Message, MsgAlreadyCompleted)
	}
	p, _ := env.repos.Payment.GetByID(ctx, co.PaymentID)
	if p.Status != models.PaymentStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", p.Status)
	}
}

func TestHandleWebhook_AtomicSettlement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provision(t, "user-1", 2000, 0, 0)
	co := startCheckout(t, env, "user-1", "starter", models.BillingCycleMonthly, models.PaymentProviderJazzCash)
	body := fakeWebhookBody{Status: models.PaymentStatusCompleted, OrderID: co.PaymentID}

	env.blockLedgerWrites(t)
	_, err := deliver(t, env, "valid", body)
	if !errors.Is(err, ErrTransactionFailure) {
		t.Fatalf("err = %v, want ErrTransactionFailure", err)
	}

	p, _ := env.repos.Payment.GetByID(ctx, co.PaymentID)
	if p.Status == models.PaymentStatusCompleted {
		t.Error("payment completed despite ledger failure")
	}
	sub, _ := env.repos.Subscription.GetByUserID(ctx, "user-1")
	if sub.PlanID != FreePlanID || sub.Status != models.SubscriptionStatusTrial {
		t.Errorf("subscription changed despite rollback: %+v", sub)
	}

	// The provider retries once the ledger is writable again.
	env.unblockLedgerWrites(t)
	res, err := deliver(t, env, "valid", body)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if res.Message != MsgPaymentProcessed {
		t.Errorf("message = %q, want %q", res.Message, MsgPaymentProcessed)
	}
	if l := env.ledger(t, "user-1"); l.TotalCredits != 30000 {
		t.Errorf("total = %d, want 30000", l.TotalCredits)
	}
}

func TestHandleWebhook_StoresEncryptedRawResponse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provision(t, "user-1", 2000, 0, 0)
	co := startCheckout(t, env, "user-1", "starter", models.BillingCycleMonthly, models.PaymentProviderJazzCash)

	body := fakeWebhookBody{Status: models.PaymentStatusCompleted, OrderID: co.PaymentID, TransactionID: "T-9"}
	if _, err := deliver(t, env, "valid", body); err != nil {
		t.Fatalf("HandleWebhook failed: %v", err)
	}

	p, _ := env.repos.Payment.GetByID(ctx, co.PaymentID)
	want := string(webhookBody(t, body))
	if p.RawResponse == want {
		t.Error("raw response stored in plaintext")
	}

	got, err := env.encryptor.Open(p.RawResponse, co.PaymentID)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got != want {
		t.Errorf("raw response = %q, want %q", got, want)
	}
}

func TestHandleWebhook_EasyPaisaEndToEnd(t *testing.T) {
	const hashKey = "ep-hash-key"
	ep := payment.NewEasyPaisa(payment.EasyPaisaConfig{
		StoreID:  "store-1",
		HashKey:  hashKey,
		Endpoint: "https://easypaisa.test/checkout",
	})
	env := newTestEnv(t, ep)
	ctx := context.Background()
	env.provision(t, "user-1", 2000, 0, 0)
	co := startCheckout(t, env, "user-1", "starter", models.BillingCycleMonthly, models.PaymentProviderEasyPaisa)
	if co.RedirectURL == "" {
		t.Fatal("expected EasyPaisa redirect URL")
	}

	payload := []byte(fmt.Sprintf(`{"orderId":%q,"transactionId":"EP-77","storeId":"store-1","transactionAmount":"1499","transactionStatus":"PAID"}`, co.PaymentID))
	mac := hmac.New(sha256.New, []byte(hashKey))
	mac.Write(payload)
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	res, err := env.settlement.HandleWebhook(ctx, models.PaymentProviderEasyPaisa, payment.WebhookRequest{
		Payload:     payload,
		ContentType: "application/json",
		Signature:   sig,
	})
	if err != nil {
		t.Fatalf("HandleWebhook failed: %v", err)
	}
	if res.Message != MsgPaymentProcessed {
		t.Errorf("message = %q, want %q", res.Message, MsgPaymentProcessed)
	}

	p, _ := env.repos.Payment.GetByID(ctx, co.PaymentID)
	if p.Status != models.PaymentStatusCompleted || p.ProviderTxnID != "EP-77" {
		t.Errorf("payment = %+v", p)
	}
}
