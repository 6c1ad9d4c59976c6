package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// PostgresStore persists the settings singleton in the admin_settings
// table. If multiple rows exist, the lowest id is authoritative.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a settings store backed by the given database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const settingsColumns = `openai_api_key, openai_model, elevenlabs_api_key, elevenlabs_model,
	elevenlabs_voice_id, elevenlabs_speed, system_prompt, chapter_count,
	silence_duration_seconds, user_password, admin_password`

// Get retrieves the authoritative settings row.
func (s *PostgresStore) Get(ctx context.Context) (*Settings, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+settingsColumns+` FROM admin_settings ORDER BY id ASC LIMIT 1`)

	out, err := scanSettings(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("settings get: %w", err)
	}
	return out, nil
}

// Update applies patch to the authoritative row, inserting one if absent.
func (s *PostgresStore) Update(ctx context.Context, patch Patch) (*Settings, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("settings update: %w", err)
	}
	defer tx.Rollback()

	var id int64
	current := Settings{}
	row := tx.QueryRowContext(ctx,
		`SELECT id, `+settingsColumns+` FROM admin_settings ORDER BY id ASC LIMIT 1`)
	err = row.Scan(&id,
		&current.OpenAIAPIKey, &current.OpenAIModel,
		&current.ElevenLabsAPIKey, &current.ElevenLabsModel,
		&current.ElevenLabsVoiceID, &current.ElevenLabsSpeed,
		&current.SystemPrompt, &current.ChapterCount,
		&current.SilenceSeconds, &current.UserPassword, &current.AdminPassword)

	exists := true
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		return nil, fmt.Errorf("settings update: %w", err)
	}

	next := patch.Apply(current)

	if exists {
		_, err = tx.ExecContext(ctx,
			`UPDATE admin_settings SET
				openai_api_key = $1, openai_model = $2,
				elevenlabs_api_key = $3, elevenlabs_model = $4,
				elevenlabs_voice_id = $5, elevenlabs_speed = $6,
				system_prompt = $7, chapter_count = $8,
				silence_duration_seconds = $9, user_password = $10,
				admin_password = $11, updated_at = now()
			WHERE id = $12`,
			next.OpenAIAPIKey, next.OpenAIModel,
			next.ElevenLabsAPIKey, next.ElevenLabsModel,
			next.ElevenLabsVoiceID, next.ElevenLabsSpeed,
			next.SystemPrompt, next.ChapterCount,
			next.SilenceSeconds, next.UserPassword, next.AdminPassword, id)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO admin_settings (`+settingsColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			next.OpenAIAPIKey, next.OpenAIModel,
			next.ElevenLabsAPIKey, next.ElevenLabsModel,
			next.ElevenLabsVoiceID, next.ElevenLabsSpeed,
			next.SystemPrompt, next.ChapterCount,
			next.SilenceSeconds, next.UserPassword, next.AdminPassword)
	}
	if err != nil {
		return nil, fmt.Errorf("settings update: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("settings update: %w", err)
	}
	return &next, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettings(row rowScanner) (*Settings, error) {
	var out Settings
	err := row.Scan(
		&out.OpenAIAPIKey, &out.OpenAIModel,
		&out.ElevenLabsAPIKey, &out.ElevenLabsModel,
		&out.ElevenLabsVoiceID, &out.ElevenLabsSpeed,
		&out.SystemPrompt, &out.ChapterCount,
		&out.SilenceSeconds, &out.UserPassword, &out.AdminPassword)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
