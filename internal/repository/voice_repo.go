package repository

import (
	"context"
	"database/sql"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
)

// SQLiteVoiceRepository implements VoiceRepository for SQLite.
type SQLiteVoiceRepository struct {
	db DBTX
}

// NewSQLiteVoiceRepository creates a new SQLite voice repository.
func NewSQLiteVoiceRepository(db DBTX) *SQLiteVoiceRepository {
	return &SQLiteVoiceRepository{db: db}
}

const voiceColumns = `id, user_id, name, language, external_voice_id, sample_url, status, error_message, created_at, updated_at`

func scanVoice(row interface{ Scan(...any) error }) (*models.Voice, error) {
	var v models.Voice
	var createdAt, updatedAt string
	if err := row.Scan(&v.ID, &v.UserID, &v.Name, &v.Language, &v.ExternalVoiceID, &v.SampleURL, &v.Status, &v.ErrorMessage, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	v.CreatedAt = parseTime(createdAt)
	v.UpdatedAt = parseTime(updatedAt)
	return &v, nil
}

func (r *SQLiteVoiceRepository) Create(ctx context.Context, v *models.Voice) error {
	query := `INSERT INTO voices (` + voiceColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, v.ID, v.UserID, v.Name, v.Language, v.ExternalVoiceID, v.SampleURL, v.Status, v.ErrorMessage,
		formatTime(v.CreatedAt), formatTime(v.UpdatedAt))
	return err
}

func (r *SQLiteVoiceRepository) GetByID(ctx context.Context, id string) (*models.Voice, error) {
	v, err := scanVoice(r.db.QueryRowContext(ctx, `SELECT `+voiceColumns+` FROM voices WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return v, err
}

// ListByUser returns the user's voices that have not been deleted, newest first.
func (r *SQLiteVoiceRepository) ListByUser(ctx context.Context, userID string) ([]*models.Voice, error) {
	query := `SELECT ` + voiceColumns + ` FROM voices WHERE user_id = ? AND status != 'DELETED' ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var voices []*models.Voice
	for rows.Next() {
		v, err := scanVoice(rows)
		if err != nil {
			return nil, err
		}
		voices = append(voices, v)
	}
	return voices, rows.Err()
}

// CountActiveByUser counts voices occupying a slot (processing or ready).
func (r *SQLiteVoiceRepository) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM voices WHERE user_id = ? AND status IN ('PROCESSING', 'READY')`, userID).Scan(&n)
	return n, err
}

func (r *SQLiteVoiceRepository) Update(ctx context.Context, v *models.Voice) error {
	query := `UPDATE voices SET name = ?, language = ?, external_voice_id = ?, sample_url = ?, status = ?, error_message = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, v.Name, v.Language, v.ExternalVoiceID, v.SampleURL, v.Status, v.ErrorMessage, formatTime(v.UpdatedAt), v.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
