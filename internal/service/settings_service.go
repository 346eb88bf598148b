package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/fediplan/internal/fediverse"
	"github.com/maheshrc27/fediplan/internal/models"
	"github.com/maheshrc27/fediplan/internal/repository"
)

type SettingsService interface {
	GetSettingsInfo(ctx context.Context, id int64) (*models.Settings, error)
	UpdateSettings(ctx context.Context, userID int64, visibility string, sensitive bool, timezone string) error
}

type settingsService struct {
	sr repository.SettingsRepository
}

func NewSettingsService(sr repository.SettingsRepository) SettingsService {
	return &settingsService{
		sr: sr,
	}
}

func (s *settingsService) GetSettingsInfo(ctx context.Context, id int64) (*models.Settings, error) {
	settings, isExist, err := s.sr.GetByUserID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isExist {
		return &models.Settings{
			UserID:            id,
			DefaultVisibility: fediverse.VisibilityPublic,
			Timezone:          "UTC",
		}, nil
	}

	return settings, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, userID int64, visibility string, sensitive bool, timezone string) error {

	if !fediverse.ValidVisibility(visibility) {
		err := errors.New("invalid default visibility")
		slog.Info(err.Error())
		return err
	}

	if _, err := time.LoadLocation(timezone); err != nil {
		slog.Info(err.Error())
		return errors.New("invalid timezone")
	}

	settings := models.Settings{
		UserID:            userID,
		DefaultVisibility: visibility,
		DefaultSensitive:  sensitive,
		Timezone:          timezone,
	}
	err := s.sr.Upsert(ctx, &settings)
	if err != nil {
		return err
	}
	return nil
}
