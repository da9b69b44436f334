package repository

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/database/migrations"
)

// setupTestDB creates a migrated in-memory database that is closed when the
// test completes.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	// Every connection to :memory: is a separate database.
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

// setupTestRepos creates all repositories using a test database.
func setupTestRepos(t *testing.T) (*Repositories, *sql.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewRepositories(db), db
}

// InsertTestUser inserts a user row.
func InsertTestUser(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := db.Exec(`INSERT INTO users (id, email, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, id+"@example.com", now, now); err != nil {
		t.Fatalf("failed to insert test user: %v", err)
	}
}

// InsertTestLedger inserts a credit ledger row.
func InsertTestLedger(t *testing.T, db *sql.DB, userID string, total, used, bonus int64) {
	t.Helper()
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := db.Exec(`INSERT INTO credit_ledgers (user_id, total_credits, used_credits, bonus_credits, next_reset_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, userID, total, used, bonus, now, now, now); err != nil {
		t.Fatalf("failed to insert test ledger: %v", err)
	}
}

// InsertTestGeneration inserts a generation with an explicit created_at.
func InsertTestGeneration(t *testing.T, db *sql.DB, id, userID, status string, createdAt time.Time) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO generations (id, user_id, voice_id, text, language, status, character_count, credits_cost, created_at)
		VALUES (?, ?, 'preset-voice', 'hello', 'en', ?, 5, 5, ?)`, id, userID, status, createdAt.UTC().Format(time.RFC3339)); err != nil {
		t.Fatalf("failed to insert test generation: %v", err)
	}
}

// InsertTestPayment inserts a payment for the starter plan.
func InsertTestPayment(t *testing.T, db *sql.DB, id, userID, status, providerTxnID string) {
	t.Helper()
	now := time.Now().UTC().Format(time.RFC3339)
	var txn any
	if providerTxnID != "" {
		txn = providerTxnID
	}
	if _, err := db.Exec(`INSERT INTO payments (id, user_id, plan_id, billing_cycle, provider, status, amount, currency, provider_txn_id, created_at, updated_at)
		VALUES (?, ?, 'starter', 'MONTHLY', 'JAZZCASH', ?, '1499', 'PKR', ?, ?, ?)`, id, userID, status, txn, now, now); err != nil {
		t.Fatalf("failed to insert test payment: %v", err)
	}
}
