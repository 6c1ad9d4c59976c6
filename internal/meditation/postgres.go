package meditation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Compile-time check that PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)

// PostgresRepository persists meditations in the meditations table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a meditation repository backed by the
// given database.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const meditationColumns = `id, session_id, disease, symptom, additional_instructions,
	meditation_text, audio_url, audio_path, duration_seconds, status, step, error,
	created_at, updated_at`

// Save inserts the meditation or updates the existing row with the same
// session id. The database-assigned id is written back to m.
func (r *PostgresRepository) Save(ctx context.Context, m *Meditation) error {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO meditations (
			session_id, disease, symptom, additional_instructions,
			meditation_text, audio_url, audio_path, duration_seconds,
			status, step, error, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (session_id) DO UPDATE SET
			meditation_text = EXCLUDED.meditation_text,
			audio_url = EXCLUDED.audio_url,
			audio_path = EXCLUDED.audio_path,
			duration_seconds = EXCLUDED.duration_seconds,
			status = EXCLUDED.status,
			step = EXCLUDED.step,
			error = EXCLUDED.error,
			updated_at = EXCLUDED.updated_at
		RETURNING id`,
		m.SessionID, m.Disease, m.Symptom, m.AdditionalInstructions,
		m.Text, m.AudioURL, m.AudioPath, m.DurationSeconds,
		string(m.Status), m.Step, m.Error, m.CreatedAt, m.UpdatedAt,
	)
	if err := row.Scan(&m.ID); err != nil {
		return fmt.Errorf("meditation save: %w", err)
	}
	return nil
}

// FindByID retrieves a meditation by database id.
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*Meditation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+meditationColumns+` FROM meditations WHERE id = $1`, id)
	return scanMeditation(row)
}

// FindBySessionID retrieves a meditation by session id.
func (r *PostgresRepository) FindBySessionID(ctx context.Context, sessionID string) (*Meditation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+meditationColumns+` FROM meditations WHERE session_id = $1`, sessionID)
	return scanMeditation(row)
}

// List returns meditations ordered by creation time descending.
// limit <= 0 means no limit.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*Meditation, error) {
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + meditationColumns + ` FROM meditations
		ORDER BY created_at DESC, id DESC OFFSET $1`
	args := []any{offset}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("meditation list: %w", err)
	}
	defer rows.Close()

	out := []*Meditation{}
	for rows.Next() {
		m, scanErr := scanMeditation(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("meditation list: %w", err)
	}
	return out, nil
}

// Delete removes a meditation by database id.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM meditations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("meditation delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("meditation delete: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanMeditation.
type scanner interface {
	Scan(dest ...any) error
}

func scanMeditation(row scanner) (*Meditation, error) {
	m := &Meditation{}
	var status string
	err := row.Scan(&m.ID, &m.SessionID, &m.Disease, &m.Symptom,
		&m.AdditionalInstructions, &m.Text, &m.AudioURL, &m.AudioPath,
		&m.DurationSeconds, &status, &m.Step, &m.Error,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("meditation scan: %w", err)
	}
	m.Status = Status(status)
	return m, nil
}
