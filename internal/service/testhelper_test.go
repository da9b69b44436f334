package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/config"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/crypto"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/database/migrations"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/payment"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/repository"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/synth"
)

const testPresetID = "preset-rachel"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// ========================================
// Fakes
// ========================================

type fakeSynth struct {
	mu       sync.Mutex
	audio    []byte
	err      error
	block    bool
	calls    int
	cloneID  string
	cloneErr error
	deleted  []string
}

func (f *fakeSynth) GenerateSpeech(ctx context.Context, externalVoiceID, text, language string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	block, audio, err := f.block, f.audio, f.err
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return audio, nil
}

func (f *fakeSynth) CloneVoice(ctx context.Context, name string, sample synth.Sample) (string, error) {
	if f.cloneErr != nil {
		return "", f.cloneErr
	}
	if f.cloneID == "" {
		return "ext-" + name, nil
	}
	return f.cloneID, nil
}

func (f *fakeSynth) DeleteVoice(ctx context.Context, externalVoiceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, externalVoiceID)
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return "https://cdn.test/" + key, nil
}

func (f *fakeStore) Delete(ctx context.Context, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
}

// fakeProvider accepts signature "valid" and reads a JSON NormalizedResult.
type fakeProvider struct {
	name         models.PaymentProvider
	initErr      error
	processCalls int
}

type fakeWebhookBody struct {
	Status        models.PaymentStatus `json:"status"`
	OrderID       string               `json:"order_id"`
	TransactionID string               `json:"transaction_id"`
	Amount        string               `json:"amount"`
	Error         string               `json:"error"`
}

func (p *fakeProvider) Name() models.PaymentProvider { return p.name }
func (p *fakeProvider) SignatureHeader() string      { return "X-Test-Signature" }

func (p *fakeProvider) VerifyWebhook(req payment.WebhookRequest) bool {
	return req.Signature == "valid"
}

func (p *fakeProvider) ProcessWebhook(req payment.WebhookRequest) (*payment.NormalizedResult, error) {
	p.processCalls++
	var body fakeWebhookBody
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrInvalidPayload, err)
	}
	res := &payment.NormalizedResult{
		Status:        body.Status,
		TransactionID: body.TransactionID,
		OrderID:       body.OrderID,
		Currency:      "PKR",
		RawResponse:   string(req.Payload),
		Error:         body.Error,
	}
	if body.Amount != "" {
		res.Amount = decimal.RequireFromString(body.Amount)
	}
	return res, nil
}

func (p *fakeProvider) InitiatePayment(ctx context.Context, params payment.InitiateParams) (*payment.InitiateResult, error) {
	if p.initErr != nil {
		return nil, p.initErr
	}
	return &payment.InitiateResult{
		Success:       true,
		TransactionID: "txn-" + params.PaymentID,
		RedirectURL:   "https://pay.test/checkout/" + params.PaymentID,
	}, nil
}

func webhookBody(t *testing.T, body fakeWebhookBody) []byte {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal webhook: %v", err)
	}
	return b
}

// ========================================
// Environment
// ========================================

type testEnv struct {
	db        *sql.DB
	repos     *repository.Repositories
	synth     *fakeSynth
	store     *fakeStore
	provider  *fakeProvider
	registry  *payment.Registry
	encryptor *crypto.Encryptor

	account    *AccountService
	credits    *CreditService
	voices     *VoiceService
	generation *GenerationService
	checkout   *CheckoutService
	settlement *SettlementService
	usage      *UsageService
}

func newTestEnv(t *testing.T, extra ...payment.Provider) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	repos := repository.NewRepositories(db)
	logger := testLogger()

	fs := &fakeSynth{audio: []byte("ID3-fake-mp3")}
	store := newFakeStore()
	provider := &fakeProvider{name: models.PaymentProviderJazzCash}
	registry := payment.NewRegistry(append([]payment.Provider{provider}, extra...)...)

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	encryptor, err := crypto.NewEncryptor(key)
	if err != nil {
		t.Fatalf("failed to create encryptor: %v", err)
	}

	genCfg := config.GenerationConfig{
		DailyLimit: config.DefaultDailyGenerationLimit,
		Location:   time.UTC,
		Presets: map[string]config.PresetVoice{
			testPresetID: {ID: testPresetID, Name: "Rachel", ExternalVoiceID: "ext-rachel", Language: "en"},
		},
	}

	credits := NewCreditService(repos, logger)
	voices := NewVoiceService(repos, fs, store, genCfg.Presets, logger)

	return &testEnv{
		db:         db,
		repos:      repos,
		synth:      fs,
		store:      store,
		provider:   provider,
		registry:   registry,
		encryptor:  encryptor,
		account:    NewAccountService(repos, logger),
		credits:    credits,
		voices:     voices,
		generation: NewGenerationService(repos, credits, voices, fs, store, genCfg, time.Second, logger),
		checkout:   NewCheckoutService(repos, registry, logger),
		settlement: NewSettlementService(repos, registry, encryptor, logger),
		usage:      NewUsageService(repos, logger),
	}
}

// provision creates a user on the free plan and sets the ledger directly.
func (e *testEnv) provision(t *testing.T, userID string, total, used, bonus int64) {
	t.Helper()
	ctx := context.Background()
	if _, err := e.account.Provision(ctx, ProvisionInput{UserID: userID, Email: userID + "@example.com"}); err != nil {
		t.Fatalf("failed to provision user: %v", err)
	}
	if _, err := e.db.Exec(`UPDATE credit_ledgers SET total_credits = ?, used_credits = ?, bonus_credits = ? WHERE user_id = ?`,
		total, used, bonus, userID); err != nil {
		t.Fatalf("failed to set ledger: %v", err)
	}
}

func (e *testEnv) ledger(t *testing.T, userID string) *models.CreditLedger {
	t.Helper()
	l, err := e.repos.Ledger.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("failed to get ledger: %v", err)
	}
	if l == nil {
		t.Fatalf("no ledger for %s", userID)
	}
	return l
}

// blockLedgerWrites makes every write to credit_ledgers abort.
func (e *testEnv) blockLedgerWrites(t *testing.T) {
	t.Helper()
	for _, stmt := range []string{
		`CREATE TRIGGER block_ledger_update BEFORE UPDATE ON credit_ledgers BEGIN SELECT RAISE(ABORT, 'ledger locked'); END`,
		`CREATE TRIGGER block_ledger_insert BEFORE INSERT ON credit_ledgers BEGIN SELECT RAISE(ABORT, 'ledger locked'); END`,
	} {
		if _, err := e.db.Exec(stmt); err != nil {
			t.Fatalf("failed to create trigger: %v", err)
		}
	}
}

func (e *testEnv) unblockLedgerWrites(t *testing.T) {
	t.Helper()
	for _, stmt := range []string{
		`DROP TRIGGER block_ledger_update`,
		`DROP TRIGGER block_ledger_insert`,
	} {
		if _, err := e.db.Exec(stmt); err != nil {
			t.Fatalf("failed to drop trigger: %v", err)
		}
	}
}
