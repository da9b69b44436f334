package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
)

// SQLiteGenerationRepository implements GenerationRepository for SQLite.
type SQLiteGenerationRepository struct {
	db DBTX
}

// NewSQLiteGenerationRepository creates a new SQLite generation repository.
func NewSQLiteGenerationRepository(db DBTX) *SQLiteGenerationRepository {
	return &SQLiteGenerationRepository{db: db}
}

const generationColumns = `id, user_id, voice_id, text, language, status, character_count, credits_cost, audio_url, duration_seconds, error_message, created_at, completed_at`

func scanGeneration(row interface{ Scan(...any) error }) (*models.Generation, error) {
	var g models.Generation
	var createdAt string
	var completedAt sql.NullString
	if err := row.Scan(&g.ID, &g.UserID, &g.VoiceID, &g.Text, &g.Language, &g.Status, &g.CharacterCount, &g.CreditsCost,
		&g.AudioURL, &g.DurationSecs, &g.ErrorMessage, &createdAt, &completedAt); err != nil {
		return nil, err
	}
	g.CreatedAt = parseTime(createdAt)
	g.CompletedAt = parseNullTime(completedAt)
	return &g, nil
}

func (r *SQLiteGenerationRepository) Create(ctx context.Context, g *models.Generation) error {
	query := `INSERT INTO generations (id, user_id, voice_id, text, language, status, character_count, credits_cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, g.ID, g.UserID, g.VoiceID, g.Text, g.Language, g.Status, g.CharacterCount, g.CreditsCost, formatTime(g.CreatedAt))
	return err
}

func (r *SQLiteGenerationRepository) GetByID(ctx context.Context, id string) (*models.Generation, error) {
	g, err := scanGeneration(r.db.QueryRowContext(ctx, `SELECT `+generationColumns+` FROM generations WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return g, err
}

func (r *SQLiteGenerationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gens []*models.Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	return gens, rows.Err()
}

func (r *SQLiteGenerationRepository) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM generations
		WHERE user_id = ? AND created_at >= ? AND status IN ('PROCESSING', 'COMPLETED')`
	var n int
	err := r.db.QueryRowContext(ctx, query, userID, formatTime(since)).Scan(&n)
	return n, err
}

func (r *SQLiteGenerationRepository) Complete(ctx context.Context, id, audioURL string, durationSecs float64, at time.Time) error {
	query := `UPDATE generations SET status = 'COMPLETED', audio_url = ?, duration_seconds = ?, completed_at = ?
		WHERE id = ? AND status = 'PROCESSING'`
	res, err := r.db.ExecContext(ctx, query, audioURL, durationSecs, formatTime(at), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *SQLiteGenerationRepository) Fail(ctx context.Context, id, message string, at time.Time) error {
	query := `UPDATE generations SET status = 'FAILED', error_message = ?, completed_at = ?
		WHERE id = ? AND status = 'PROCESSING'`
	res, err := r.db.ExecContext(ctx, query, message, formatTime(at), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// FailStale fails PROCESSING generations created before createdBefore.
func (r *SQLiteGenerationRepository) FailStale(ctx context.Context, createdBefore time.Time, message string, at time.Time) (int64, error) {
	query := `UPDATE generations SET status = 'FAILED', error_message = ?, completed_at = ?
		WHERE status = 'PROCESSING' AND created_at < ?`
	res, err := r.db.ExecContext(ctx, query, message, formatTime(at), formatTime(createdBefore))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
