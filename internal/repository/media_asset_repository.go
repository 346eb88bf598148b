package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/fediplan/internal/models"
)

type MediaAssetRepository interface {
	Create(ctx context.Context, asset *models.MediaAsset) (int64, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.MediaAsset, error)
	Remove(ctx context.Context, id int64) error
}

type mediaAssetRepository struct {
	db *sql.DB
}

func NewMediaAssetRepository(db *sql.DB) MediaAssetRepository {
	return &mediaAssetRepository{db: db}
}

func (r *mediaAssetRepository) Create(ctx context.Context, asset *models.MediaAsset) (int64, error) {
	query := `
		INSERT INTO media_assets (user_id, file_name, file_type, file_url, remote_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		asset.UserID, asset.FileName, asset.FileType, asset.FileURL, asset.RemoteID).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *mediaAssetRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.MediaAsset, error) {
	query := `SELECT id, user_id, file_name, file_type, file_url, remote_id, created_at FROM media_assets WHERE user_id = $1 ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var assets []*models.MediaAsset
	for rows.Next() {
		var asset models.MediaAsset
		err := rows.Scan(&asset.ID, &asset.UserID, &asset.FileName, &asset.FileType, &asset.FileURL, &asset.RemoteID, &asset.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		assets = append(assets, &asset)
	}
	return assets, rows.Err()
}

func (r *mediaAssetRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM media_assets WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
