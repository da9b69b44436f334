package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
)

// ========================================
// Credit Ledger Repository
// ========================================

// SQLiteCreditLedgerRepository implements CreditLedgerRepository for SQLite.
type SQLiteCreditLedgerRepository struct {
	db DBTX
}

// NewSQLiteCreditLedgerRepository creates a new SQLite credit ledger repository.
func NewSQLiteCreditLedgerRepository(db DBTX) *SQLiteCreditLedgerRepository {
	return &SQLiteCreditLedgerRepository{db: db}
}

func (r *SQLiteCreditLedgerRepository) Get(ctx context.Context, userID string) (*models.CreditLedger, error) {
	query := `SELECT user_id, total_credits, used_credits, bonus_credits, next_reset_at, created_at, updated_at
		FROM credit_ledgers WHERE user_id = ?`
	var l models.CreditLedger
	var nextReset, createdAt, updatedAt string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&l.UserID, &l.TotalCredits, &l.UsedCredits, &l.BonusCredits, &nextReset, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l.NextResetAt = parseTime(nextReset)
	l.CreatedAt = parseTime(createdAt)
	l.UpdatedAt = parseTime(updatedAt)
	return &l, nil
}

func (r *SQLiteCreditLedgerRepository) Create(ctx context.Context, l *models.CreditLedger) error {
	query := `INSERT INTO credit_ledgers (user_id, total_credits, used_credits, bonus_credits, next_reset_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, l.UserID, l.TotalCredits, l.UsedCredits, l.BonusCredits,
		formatTime(l.NextResetAt), formatTime(l.CreatedAt), formatTime(l.UpdatedAt))
	return err
}

// Debit applies the bonus-first split in a single statement. SET expressions
// see the pre-update row, so both columns use the same bonus_credits value.
func (r *SQLiteCreditLedgerRepository) Debit(ctx context.Context, userID string, amount int64, now time.Time) error {
	query := `UPDATE credit_ledgers SET
			used_credits = used_credits + (? - MIN(?, bonus_credits)),
			bonus_credits = bonus_credits - MIN(?, bonus_credits),
			updated_at = ?
		WHERE user_id = ?`
	res, err := r.db.ExecContext(ctx, query, amount, amount, amount, formatTime(now), userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *SQLiteCreditLedgerRepository) Reset(ctx context.Context, userID string, newTotal int64, nextResetAt, now time.Time) error {
	query := `INSERT INTO credit_ledgers (user_id, total_credits, used_credits, bonus_credits, next_reset_at, created_at, updated_at)
		VALUES (?, ?, 0, 0, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			total_credits = excluded.total_credits,
			used_credits = 0,
			next_reset_at = excluded.next_reset_at,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query, userID, newTotal, formatTime(nextResetAt), formatTime(now), formatTime(now))
	return err
}

// ========================================
// Usage Repository
// ========================================

// SQLiteUsageRepository implements UsageRepository for SQLite.
type SQLiteUsageRepository struct {
	db DBTX
}

// NewSQLiteUsageRepository creates a new SQLite usage repository.
func NewSQLiteUsageRepository(db DBTX) *SQLiteUsageRepository {
	return &SQLiteUsageRepository{db: db}
}

func (r *SQLiteUsageRepository) Create(ctx context.Context, rec *models.UsageRecord) error {
	query := `INSERT INTO usage_records (id, user_id, type, credits, reference_id, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.UserID, rec.Type, rec.Credits, rec.ReferenceID, rec.Description, formatTime(rec.CreatedAt))
	return err
}

func (r *SQLiteUsageRepository) ListByUser(ctx context.Context, userID string, since time.Time, limit, offset int) ([]*models.UsageRecord, error) {
	query := `SELECT id, user_id, type, credits, reference_id, description, created_at
		FROM usage_records WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, userID, formatTime(since), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.UsageRecord
	for rows.Next() {
		var rec models.UsageRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Type, &rec.Credits, &rec.ReferenceID, &rec.Description, &createdAt); err != nil {
			return nil, err
		}
		rec.CreatedAt = parseTime(createdAt)
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (r *SQLiteUsageRepository) Totals(ctx context.Context, userID string, since time.Time) (*models.UsageTotals, error) {
	query := `SELECT type, COUNT(*), COALESCE(SUM(credits), 0)
		FROM usage_records WHERE user_id = ? AND created_at >= ? GROUP BY type`
	rows, err := r.db.QueryContext(ctx, query, userID, formatTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := &models.UsageTotals{}
	for rows.Next() {
		var typ models.UsageType
		var count int
		var credits int64
		if err := rows.Scan(&typ, &count, &credits); err != nil {
			return nil, err
		}
		switch typ {
		case models.UsageTypeTTSGeneration:
			totals.GenerationCount = count
			totals.GenerationCredits = credits
		case models.UsageTypeVoiceClone:
			totals.VoiceClones = count
		case models.UsageTypeSubscriptionReset:
			totals.Resets = count
		}
	}
	return totals, rows.Err()
}
