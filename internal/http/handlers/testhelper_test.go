package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/auth"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/config"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/database/migrations"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/http/mw"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/payment"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/repository"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/service"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/synth"
)

const (
	testUserID        = "user_1"
	testJWTSecret     = "handlers-test-secret-handlers-test"
	testEasyPaisaKey  = "easypaisa-hash-key"
	testWebhookSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubSynth struct{}

func (stubSynth) GenerateSpeech(_ context.Context, _, _, _ string) ([]byte, error) {
	return []byte("ID3-fake-audio"), nil
}

func (stubSynth) CloneVoice(_ context.Context, name string, _ synth.Sample) (string, error) {
	return "ext-" + name, nil
}

func (stubSynth) DeleteVoice(_ context.Context, _ string) error {
	return nil
}

type testServer struct {
	api      humatest.TestAPI
	router   chi.Router
	db       *sql.DB
	services *service.Services
	verifier *auth.Verifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	cfg := &config.Config{
		BaseURL:         "http://localhost:8080",
		EncryptionKey:   key,
		LocalStorageDir: t.TempDir(),
		SynthTimeout:    time.Second,
		Generation: config.GenerationConfig{
			DailyLimit: 50,
			Location:   time.UTC,
			Presets: map[string]config.PresetVoice{
				"preset-rachel": {ID: "preset-rachel", Name: "Rachel", ExternalVoiceID: "ext-rachel", Language: "en"},
			},
		},
	}

	registry := payment.NewRegistry(payment.NewEasyPaisa(payment.EasyPaisaConfig{
		StoreID:     "store-1",
		HashKey:     testEasyPaisaKey,
		Endpoint:    "https://easypay.test/checkout",
		PostbackURL: "http://localhost:8080/api/v1/payments/webhook/easypaisa",
	}))

	logger := testLogger()
	svcs, err := service.NewServices(cfg, repository.NewRepositories(db), registry, stubSynth{}, logger)
	if err != nil {
		t.Fatalf("NewServices() error = %v", err)
	}

	if _, err := svcs.Account.Provision(context.Background(), service.ProvisionInput{
		UserID: testUserID,
		Email:  "user1@example.com",
	}); err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	verifier := auth.NewVerifier(testJWTSecret)

	_, api := humatest.New(t)
	api.UseMiddleware(mw.HumaAuth(api, verifier))

	tts := NewTTSHandler(svcs.Generation)
	voices := NewVoiceHandler(svcs.Voice)
	account := NewAccountHandler(svcs.Account)
	payments := NewPaymentHandler(svcs.Checkout)

	mw.PublicGet(api, "/api/v1/plans", account.ListPlans)
	mw.ProtectedGet(api, "/api/v1/account", account.GetAccount)
	mw.ProtectedDelete(api, "/api/v1/account", account.DeleteAccount)
	mw.ProtectedGet(api, "/api/v1/credits", NewCreditHandler(svcs.Credit).GetBalance)
	mw.ProtectedGet(api, "/api/v1/usage", NewUsageHandler(svcs.Usage).GetUsage)
	mw.ProtectedPost(api, "/api/v1/tts/generate", tts.Generate)
	mw.ProtectedGet(api, "/api/v1/tts/today", tts.Today)
	mw.ProtectedGet(api, "/api/v1/tts/generations/{id}", tts.GetGeneration)
	mw.ProtectedGet(api, "/api/v1/voices", voices.ListVoices)
	mw.ProtectedPost(api, "/api/v1/voices", voices.CloneVoice,
		mw.WithStatus(http.StatusCreated),
		mw.WithMaxBodyBytes(MaxVoiceBodyBytes))
	mw.ProtectedDelete(api, "/api/v1/voices/{id}", voices.DeleteVoice)
	mw.ProtectedPost(api, "/api/v1/payments/checkout", payments.Checkout)
	mw.ProtectedGet(api, "/api/v1/payments/{id}", payments.GetPayment)

	router := chi.NewRouter()
	router.Post("/api/v1/payments/webhook/{provider}",
		NewPaymentWebhookHandler(svcs.Settlement, registry, logger).HandleWebhook)
	router.Post("/api/v1/webhooks/accounts",
		NewAccountWebhookHandler(testWebhookSecret, svcs.Account, logger).HandleWebhook)

	return &testServer{
		api:      api,
		router:   router,
		db:       db,
		services: svcs,
		verifier: verifier,
	}
}

// bearer returns an Authorization header argument for humatest requests.
func (s *testServer) bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := s.verifier.IssueToken(userID, userID+"@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	return "Authorization: Bearer " + token
}

// post sends a raw request through the chi router.
func (s *testServer) post(path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}
