// Package repository provides data access for the application.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
)

var (
	// ErrNoRowsAffected is returned by conditional updates that matched nothing.
	ErrNoRowsAffected = errors.New("no rows affected")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UserRepository handles user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	MarkDeleted(ctx context.Context, id string, at time.Time) error
}

// PlanRepository reads the plan catalog.
type PlanRepository interface {
	GetByID(ctx context.Context, id string) (*models.Plan, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Plan, error)
}

// SubscriptionRepository handles the one-per-user subscription row.
type SubscriptionRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Subscription, error)
	Upsert(ctx context.Context, sub *models.Subscription) error
}

// CreditLedgerRepository handles per-user credit ledgers.
type CreditLedgerRepository interface {
	Get(ctx context.Context, userID string) (*models.CreditLedger, error)
	Create(ctx context.Context, ledger *models.CreditLedger) error
	// Debit consumes bonus credits first, then increments used credits.
	Debit(ctx context.Context, userID string, amount int64, now time.Time) error
	// Reset sets total, zeroes used, keeps bonus. Creates the ledger if missing.
	Reset(ctx context.Context, userID string, newTotal int64, nextResetAt, now time.Time) error
}

// VoiceRepository handles cloned voices.
type VoiceRepository interface {
	Create(ctx context.Context, voice *models.Voice) error
	GetByID(ctx context.Context, id string) (*models.Voice, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Voice, error)
	CountActiveByUser(ctx context.Context, userID string) (int, error)
	Update(ctx context.Context, voice *models.Voice) error
}

// GenerationRepository handles generation records.
type GenerationRepository interface {
	Create(ctx context.Context, gen *models.Generation) error
	GetByID(ctx context.Context, id string) (*models.Generation, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Generation, error)
	// CountSince counts PROCESSING and COMPLETED generations created at or after since.
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
	// Complete and Fail only transition records that are still PROCESSING.
	Complete(ctx context.Context, id, audioURL string, durationSecs float64, at time.Time) error
	Fail(ctx context.Context, id, message string, at time.Time) error
	FailStale(ctx context.Context, createdBefore time.Time, message string, at time.Time) (int64, error)
}

// PaymentRepository handles payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Payment, error)
	// FindForWebhook matches id == orderID OR provider_txn_id == txnID,
	// preferring the id match.
	FindForWebhook(ctx context.Context, orderID, txnID string) (*models.Payment, error)
	MarkProcessing(ctx context.Context, id, providerTxnID string, at time.Time) error
	// MarkCompleted returns ErrNoRowsAffected if the payment is already COMPLETED.
	MarkCompleted(ctx context.Context, id, providerTxnID, rawResponse string, at time.Time) error
	MarkFailed(ctx context.Context, id, message, rawResponse string, at time.Time) error
}

// UsageRepository appends and reads usage records.
type UsageRepository interface {
	Create(ctx context.Context, record *models.UsageRecord) error
	ListByUser(ctx context.Context, userID string, since time.Time, limit, offset int) ([]*models.UsageRecord, error)
	Totals(ctx context.Context, userID string, since time.Time) (*models.UsageTotals, error)
}

// Repositories holds all repository instances bound to one DBTX.
type Repositories struct {
	db *sql.DB

	User         UserRepository
	Plan         PlanRepository
	Subscription SubscriptionRepository
	Ledger       CreditLedgerRepository
	Voice        VoiceRepository
	Generation   GenerationRepository
	Payment      PaymentRepository
	Usage        UsageRepository
}

// NewRepositories creates all repository instances.
func NewRepositories(db *sql.DB) *Repositories {
	repos := newRepositories(db)
	repos.db = db
	return repos
}

func newRepositories(q DBTX) *Repositories {
	return &Repositories{
		User:         NewSQLiteUserRepository(q),
		Plan:         NewSQLitePlanRepository(q),
		Subscription: NewSQLiteSubscriptionRepository(q),
		Ledger:       NewSQLiteCreditLedgerRepository(q),
		Voice:        NewSQLiteVoiceRepository(q),
		Generation:   NewSQLiteGenerationRepository(q),
		Payment:      NewSQLitePaymentRepository(q),
		Usage:        NewSQLiteUsageRepository(q),
	}
}

// WithTx runs fn with repositories bound to a single transaction.
// The transaction commits if fn returns nil and rolls back otherwise.
// Calling WithTx on transaction-bound repositories runs fn in the same
// transaction.
func (r *Repositories) WithTx(ctx context.Context, fn func(tx *Repositories) error) error {
	if r.db == nil {
		return fn(r)
	}

	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(newRepositories(sqlTx)); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ========================================
// Shared helpers
// ========================================

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func formatNullTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
