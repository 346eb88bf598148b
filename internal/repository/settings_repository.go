package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/fediplan/internal/models"
)

type SettingsRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Settings, bool, error)
	Upsert(ctx context.Context, settings *models.Settings) error
}

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetByUserID(ctx context.Context, userID int64) (*models.Settings, bool, error) {
	query := `SELECT user_id, default_visibility, default_sensitive, timezone, updated_at FROM settings WHERE user_id = $1`

	var settings models.Settings
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&settings.UserID, &settings.DefaultVisibility, &settings.DefaultSensitive, &settings.Timezone, &settings.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}

	return &settings, true, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings *models.Settings) error {
	query := `
		INSERT INTO settings (user_id, default_visibility, default_sensitive, timezone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET default_visibility = EXCLUDED.default_visibility,
			default_sensitive = EXCLUDED.default_sensitive,
			timezone = EXCLUDED.timezone,
			updated_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query,
		settings.UserID, settings.DefaultVisibility, settings.DefaultSensitive, settings.Timezone); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
