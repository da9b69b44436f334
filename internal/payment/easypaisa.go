package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
)

const easyPaisaPaidStatus = "PAID"

// EasyPaisaConfig holds store credentials.
type EasyPaisaConfig struct {
	StoreID     string
	HashKey     string
	Endpoint    string
	PostbackURL string
}

// EasyPaisaWebhook is the JSON postback sent after checkout.
type EasyPaisaWebhook struct {
	OrderID           string          `json:"orderId"`
	TransactionID     string          `json:"transactionId"`
	StoreID           string          `json:"storeId"`
	TransactionAmount decimal.Decimal `json:"transactionAmount"`
	TransactionStatus string          `json:"transactionStatus"`
	Msisdn            string          `json:"msisdn,omitempty"`
	ErrorMessage      string          `json:"errorMessage,omitempty"`

	raw string
}

// Normalize maps PAID to COMPLETED and every other status to FAILED.
func (w *EasyPaisaWebhook) Normalize() NormalizedResult {
	res := NormalizedResult{
		TransactionID: w.TransactionID,
		OrderID:       w.OrderID,
		Amount:        w.TransactionAmount,
		Currency:      "PKR",
		RawResponse:   w.raw,
	}
	if strings.EqualFold(w.TransactionStatus, easyPaisaPaidStatus) {
		res.Status = models.PaymentStatusCompleted
		return res
	}
	res.Status = models.PaymentStatusFailed
	res.Error = w.ErrorMessage
	if res.Error == "" {
		res.Error = "easypaisa status " + w.TransactionStatus
	}
	return res
}

// EasyPaisa implements Provider for the EasyPaisa redirect checkout.
type EasyPaisa struct {
	cfg EasyPaisaConfig
}

// NewEasyPaisa creates an EasyPaisa adapter.
func NewEasyPaisa(cfg EasyPaisaConfig) *EasyPaisa {
	return &EasyPaisa{cfg: cfg}
}

func (e *EasyPaisa) Name() models.PaymentProvider { return models.PaymentProviderEasyPaisa }

func (e *EasyPaisa) SignatureHeader() string { return "X-Easypaisa-Signature" }

// VerifyWebhook checks the base64 HMAC-SHA256 of the raw body.
func (e *EasyPaisa) VerifyWebhook(req WebhookRequest) bool {
	if req.Signature == "" {
		return false
	}
	got, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil {
		return false
	}
	return hmac.Equal(got, e.sign(req.Payload))
}

func (e *EasyPaisa) ProcessWebhook(req WebhookRequest) (*NormalizedResult, error) {
	var w EasyPaisaWebhook
	if err := json.Unmarshal(req.Payload, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	w.raw = string(req.Payload)
	res := w.Normalize()
	return &res, nil
}

// InitiatePayment returns the hosted checkout URL with a signed request.
func (e *EasyPaisa) InitiatePayment(_ context.Context, params InitiateParams) (*InitiateResult, error) {
	q := map[string]string{
		"storeId":       e.cfg.StoreID,
		"amount":        params.Amount.StringFixed(1),
		"postBackURL":   e.cfg.PostbackURL,
		"orderRefNum":   params.PaymentID,
		"emailAddr":     params.Email,
		"paymentMethod": "MA_PAYMENT_METHOD",
	}

	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+q[k])
	}

	values := url.Values{}
	for k, v := range q {
		values.Set(k, v)
	}
	values.Set("merchantHashedReq", base64.StdEncoding.EncodeToString(e.sign([]byte(strings.Join(pairs, "&")))))

	return &InitiateResult{
		Success:       true,
		TransactionID: params.PaymentID,
		RedirectURL:   e.cfg.Endpoint + "?" + values.Encode(),
	}, nil
}

func (e *EasyPaisa) sign(data []byte) []byte {
	h := hmac.New(sha256.New, []byte(e.cfg.HashKey))
	h.Write(data)
	return h.Sum(nil)
}
