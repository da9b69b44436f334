package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
)

// SQLitePaymentRepository implements PaymentRepository for SQLite.
type SQLitePaymentRepository struct {
	db DBTX
}

// NewSQLitePaymentRepository creates a new SQLite payment repository.
func NewSQLitePaymentRepository(db DBTX) *SQLitePaymentRepository {
	return &SQLitePaymentRepository{db: db}
}

const paymentColumns = `id, user_id, plan_id, billing_cycle, provider, status, amount, currency, provider_txn_id, raw_response, error_message, settled_at, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	var p models.Payment
	var amount, createdAt, updatedAt string
	var txnID, settledAt sql.NullString
	if err := row.Scan(&p.ID, &p.UserID, &p.PlanID, &p.BillingCycle, &p.Provider, &p.Status, &amount, &p.Currency,
		&txnID, &p.RawResponse, &p.ErrorMessage, &settledAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid amount for payment %s: %w", p.ID, err)
	}
	p.ProviderTxnID = txnID.String
	p.SettledAt = parseNullTime(settledAt)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func (r *SQLitePaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	query := `INSERT INTO payments (id, user_id, plan_id, billing_cycle, provider, status, amount, currency, provider_txn_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.UserID, p.PlanID, p.BillingCycle, p.Provider, p.Status, p.Amount.String(), p.Currency,
		nullIfEmpty(p.ProviderTxnID), formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	return err
}

func (r *SQLitePaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *SQLitePaymentRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *SQLitePaymentRepository) FindForWebhook(ctx context.Context, orderID, txnID string) (*models.Payment, error) {
	if orderID == "" && txnID == "" {
		return nil, nil
	}
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE (? != '' AND id = ?) OR (? != '' AND provider_txn_id = ?)
		ORDER BY CASE WHEN id = ? THEN 0 ELSE 1 END
		LIMIT 1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, orderID, orderID, txnID, txnID, orderID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *SQLitePaymentRepository) MarkProcessing(ctx context.Context, id, providerTxnID string, at time.Time) error {
	query := `UPDATE payments SET status = 'PROCESSING', provider_txn_id = COALESCE(?, provider_txn_id), updated_at = ?
		WHERE id = ? AND status = 'PENDING'`
	res, err := r.db.ExecContext(ctx, query, nullIfEmpty(providerTxnID), formatTime(at), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *SQLitePaymentRepository) MarkCompleted(ctx context.Context, id, providerTxnID, rawResponse string, at time.Time) error {
	query := `UPDATE payments SET status = 'COMPLETED', provider_txn_id = COALESCE(?, provider_txn_id), raw_response = ?,
			error_message = '', settled_at = ?, updated_at = ?
		WHERE id = ? AND status != 'COMPLETED'`
	res, err := r.db.ExecContext(ctx, query, nullIfEmpty(providerTxnID), rawResponse, formatTime(at), formatTime(at), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *SQLitePaymentRepository) MarkFailed(ctx context.Context, id, message, rawResponse string, at time.Time) error {
	query := `UPDATE payments SET status = 'FAILED', error_message = ?, raw_response = ?, updated_at = ?
		WHERE id = ? AND status != 'COMPLETED'`
	res, err := r.db.ExecContext(ctx, query, message, rawResponse, formatTime(at), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
