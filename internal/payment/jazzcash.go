package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
)

const (
	jazzCashSuccessCode = "000"
	jazzCashHashField   = "pp_SecureHash"
	jazzCashTimeLayout  = "20060102150405"
)

// JazzCashConfig holds merchant credentials for the hosted checkout page.
type JazzCashConfig struct {
	MerchantID    string
	Password      string
	IntegritySalt string
	ReturnURL     string
	Endpoint      string
}

// JazzCashWebhook is the response JazzCash posts back to the return URL.
// Amounts are in paisa.
type JazzCashWebhook struct {
	TxnRefNo        string `json:"pp_TxnRefNo"`
	BillReference   string `json:"pp_BillReference"`
	Amount          string `json:"pp_Amount"`
	TxnCurrency     string `json:"pp_TxnCurrency"`
	ResponseCode    string `json:"pp_ResponseCode"`
	ResponseMessage string `json:"pp_ResponseMessage"`
	RetrievalRefNo  string `json:"pp_RetreivalReferenceNo"`
	TxnDateTime     string `json:"pp_TxnDateTime"`

	raw string
}

// Normalize maps response code 000 to COMPLETED and anything else to FAILED.
func (w *JazzCashWebhook) Normalize() NormalizedResult {
	res := NormalizedResult{
		TransactionID: w.TxnRefNo,
		OrderID:       w.BillReference,
		Currency:      w.TxnCurrency,
		RawResponse:   w.raw,
	}
	if minor, err := decimal.NewFromString(w.Amount); err == nil {
		res.Amount = minor.Shift(-2)
	}
	if w.ResponseCode == jazzCashSuccessCode {
		res.Status = models.PaymentStatusCompleted
	} else {
		res.Status = models.PaymentStatusFailed
		res.Error = fmt.Sprintf("jazzcash %s: %s", w.ResponseCode, w.ResponseMessage)
	}
	return res
}

// JazzCash implements Provider for JazzCash hosted checkout.
type JazzCash struct {
	cfg JazzCashConfig
	now func() time.Time
	loc *time.Location
}

// NewJazzCash creates a JazzCash adapter.
func NewJazzCash(cfg JazzCashConfig) *JazzCash {
	loc, err := time.LoadLocation("Asia/Karachi")
	if err != nil {
		loc = time.FixedZone("PKT", 5*60*60)
	}
	return &JazzCash{cfg: cfg, now: time.Now, loc: loc}
}

func (j *JazzCash) Name() models.PaymentProvider { return models.PaymentProviderJazzCash }

func (j *JazzCash) SignatureHeader() string { return "" }

// VerifyWebhook recomputes pp_SecureHash over the posted pp_ fields.
func (j *JazzCash) VerifyWebhook(req WebhookRequest) bool {
	fields, err := parseFields(req)
	if err != nil {
		return false
	}
	got := fields[jazzCashHashField]
	if got == "" {
		return false
	}
	want := j.secureHash(fields)
	return hmac.Equal([]byte(strings.ToUpper(got)), []byte(want))
}

func (j *JazzCash) ProcessWebhook(req WebhookRequest) (*NormalizedResult, error) {
	fields, err := parseFields(req)
	if err != nil {
		return nil, err
	}
	w := &JazzCashWebhook{
		TxnRefNo:        fields["pp_TxnRefNo"],
		BillReference:   fields["pp_BillReference"],
		Amount:          fields["pp_Amount"],
		TxnCurrency:     fields["pp_TxnCurrency"],
		ResponseCode:    fields["pp_ResponseCode"],
		ResponseMessage: fields["pp_ResponseMessage"],
		RetrievalRefNo:  fields["pp_RetreivalReferenceNo"],
		TxnDateTime:     fields["pp_TxnDateTime"],
		raw:             string(req.Payload),
	}
	res := w.Normalize()
	return &res, nil
}

// InitiatePayment builds the signed form the client posts to the JazzCash page.
func (j *JazzCash) InitiatePayment(_ context.Context, params InitiateParams) (*InitiateResult, error) {
	now := j.now().In(j.loc)
	txnRef := "T" + now.Format(jazzCashTimeLayout) + shortRef(params.PaymentID)

	form := map[string]string{
		"pp_Version":           "1.1",
		"pp_TxnType":           "MWALLET",
		"pp_Language":          "EN",
		"pp_MerchantID":        j.cfg.MerchantID,
		"pp_Password":          j.cfg.Password,
		"pp_TxnRefNo":          txnRef,
		"pp_Amount":            params.Amount.Shift(2).Truncate(0).String(),
		"pp_TxnCurrency":       strings.ToUpper(params.Currency),
		"pp_TxnDateTime":       now.Format(jazzCashTimeLayout),
		"pp_TxnExpiryDateTime": now.Add(24 * time.Hour).Format(jazzCashTimeLayout),
		"pp_BillReference":     params.PaymentID,
		"pp_Description":       fmt.Sprintf("%s plan (%s)", params.PlanName, strings.ToLower(string(params.BillingCycle))),
		"pp_ReturnURL":         j.cfg.ReturnURL,
	}
	form[jazzCashHashField] = j.secureHash(form)

	return &InitiateResult{
		Success:       true,
		TransactionID: txnRef,
		FormAction:    j.cfg.Endpoint,
		FormData:      form,
	}, nil
}

// secureHash is HMAC-SHA256 keyed by the integrity salt over
// salt&v1&v2..., where v are the non-empty pp_ values sorted by field name.
func (j *JazzCash) secureHash(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if k == jazzCashHashField || v == "" || !strings.HasPrefix(strings.ToLower(k), "pp_") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(j.cfg.IntegritySalt)
	for _, k := range keys {
		b.WriteByte('&')
		b.WriteString(fields[k])
	}

	h := hmac.New(sha256.New, []byte(j.cfg.IntegritySalt))
	h.Write([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}

// parseFields reads a flat form-encoded or JSON object payload.
func parseFields(req WebhookRequest) (map[string]string, error) {
	if strings.HasPrefix(req.ContentType, "application/x-www-form-urlencoded") {
		values, err := url.ParseQuery(string(req.Payload))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		fields := make(map[string]string, len(values))
		for k := range values {
			fields[k] = values.Get(k)
		}
		return fields, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(req.Payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			fields[k] = val
		case nil:
		default:
			fields[k] = fmt.Sprint(val)
		}
	}
	return fields, nil
}

func shortRef(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return strings.ToUpper(id)
}
