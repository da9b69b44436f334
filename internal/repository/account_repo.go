package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
)

// ========================================
// User Repository
// ========================================

// SQLiteUserRepository implements UserRepository for SQLite.
type SQLiteUserRepository struct {
	db DBTX
}

// NewSQLiteUserRepository creates a new SQLite user repository.
func NewSQLiteUserRepository(db DBTX) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

func (r *SQLiteUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.Name, formatTime(user.CreatedAt), formatTime(user.UpdatedAt))
	return err
}

func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, email, name, deleted_at, created_at, updated_at FROM users WHERE id = ?`
	var u models.User
	var deletedAt sql.NullString
	var createdAt, updatedAt string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Email, &u.Name, &deletedAt, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.DeletedAt = parseNullTime(deletedAt)
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return &u, nil
}

func (r *SQLiteUserRepository) MarkDeleted(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		formatTime(at), formatTime(at), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// ========================================
// Plan Repository
// ========================================

// SQLitePlanRepository implements PlanRepository for SQLite.
type SQLitePlanRepository struct {
	db DBTX
}

// NewSQLitePlanRepository creates a new SQLite plan repository.
func NewSQLitePlanRepository(db DBTX) *SQLitePlanRepository {
	return &SQLitePlanRepository{db: db}
}

const planColumns = `id, name, credits_per_month, voice_limit, price_monthly, price_yearly, currency, is_active, sort_order`

func scanPlan(row interface{ Scan(...any) error }) (*models.Plan, error) {
	var p models.Plan
	var monthly, yearly string
	if err := row.Scan(&p.ID, &p.Name, &p.CreditsPerMonth, &p.VoiceLimit, &monthly, &yearly, &p.Currency, &p.IsActive, &p.SortOrder); err != nil {
		return nil, err
	}
	var err error
	if p.PriceMonthly, err = decimal.NewFromString(monthly); err != nil {
		return nil, fmt.Errorf("invalid monthly price for plan %s: %w", p.ID, err)
	}
	if p.PriceYearly, err = decimal.NewFromString(yearly); err != nil {
		return nil, fmt.Errorf("invalid yearly price for plan %s: %w", p.ID, err)
	}
	return &p, nil
}

func (r *SQLitePlanRepository) GetByID(ctx context.Context, id string) (*models.Plan, error) {
	p, err := scanPlan(r.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *SQLitePlanRepository) List(ctx context.Context, activeOnly bool) ([]*models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY sort_order, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// ========================================
// Subscription Repository
// ========================================

// SQLiteSubscriptionRepository implements SubscriptionRepository for SQLite.
type SQLiteSubscriptionRepository struct {
	db DBTX
}

// NewSQLiteSubscriptionRepository creates a new SQLite subscription repository.
func NewSQLiteSubscriptionRepository(db DBTX) *SQLiteSubscriptionRepository {
	return &SQLiteSubscriptionRepository{db: db}
}

func (r *SQLiteSubscriptionRepository) GetByUserID(ctx context.Context, userID string) (*models.Subscription, error) {
	query := `SELECT id, user_id, plan_id, status, billing_cycle, current_period_start, current_period_end, created_at, updated_at
		FROM subscriptions WHERE user_id = ?`
	var s models.Subscription
	var start, end, createdAt, updatedAt string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.ID, &s.UserID, &s.PlanID, &s.Status, &s.BillingCycle, &start, &end, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.CurrentPeriodStart = parseTime(start)
	s.CurrentPeriodEnd = parseTime(end)
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}

// Upsert replaces the user's subscription terms. The row ID and created_at
// of an existing subscription are preserved.
func (r *SQLiteSubscriptionRepository) Upsert(ctx context.Context, s *models.Subscription) error {
	query := `INSERT INTO subscriptions (id, user_id, plan_id, status, billing_cycle, current_period_start, current_period_end, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			plan_id = excluded.plan_id,
			status = excluded.status,
			billing_cycle = excluded.billing_cycle,
			current_period_start = excluded.current_period_start,
			current_period_end = excluded.current_period_end,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.UserID, s.PlanID, s.Status, s.BillingCycle,
		formatTime(s.CurrentPeriodStart), formatTime(s.CurrentPeriodEnd), formatTime(s.CreatedAt), formatTime(s.UpdatedAt))
	return err
}
