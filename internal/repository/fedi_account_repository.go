package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/fediplan/internal/models"
)

type FediAccountRepository interface {
	Create(ctx context.Context, tx *sql.Tx, account *models.FediAccount) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.FediAccount, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.FediAccount, error)
	ListAll(ctx context.Context) ([]*models.FediAccount, error)
	CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error)
	Remove(ctx context.Context, id int64) error
}

type fediAccountRepository struct {
	db *sql.DB
}

func NewFediAccountRepository(db *sql.DB) FediAccountRepository {
	return &fediAccountRepository{db: db}
}

const fediAccountColumns = `id, user_id, sns, server, remote_id, username, display_name, avatar_url, client_id, client_secret, access_token, created_at, updated_at`

func (r *fediAccountRepository) Create(ctx context.Context, tx *sql.Tx, account *models.FediAccount) (int64, error) {
	query := `
		INSERT INTO fedi_accounts (user_id, sns, server, remote_id, username, display_name, avatar_url, client_id, client_secret, access_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, server, remote_id)
		DO UPDATE SET access_token = EXCLUDED.access_token,
			client_id = EXCLUDED.client_id,
			client_secret = EXCLUDED.client_secret,
			username = EXCLUDED.username,
			display_name = EXCLUDED.display_name,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = NOW()
		RETURNING id
	`

	args := []any{
		account.UserID,
		account.SNS,
		account.Server,
		account.RemoteID,
		account.Username,
		account.DisplayName,
		account.AvatarURL,
		account.ClientID,
		account.ClientSecret,
		account.AccessToken,
	}

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *fediAccountRepository) GetByID(ctx context.Context, id int64) (*models.FediAccount, error) {
	query := `SELECT ` + fediAccountColumns + ` FROM fedi_accounts WHERE id = $1`

	account, err := scanFediAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return account, nil
}

func (r *fediAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.FediAccount, error) {
	query := `SELECT ` + fediAccountColumns + ` FROM fedi_accounts WHERE user_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectFediAccounts(rows)
}

func (r *fediAccountRepository) ListAll(ctx context.Context) ([]*models.FediAccount, error) {
	query := `SELECT ` + fediAccountColumns + ` FROM fedi_accounts ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectFediAccounts(rows)
}

func (r *fediAccountRepository) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	query := `SELECT 1 FROM fedi_accounts WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, accountID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *fediAccountRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM fedi_accounts WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFediAccount(row rowScanner) (*models.FediAccount, error) {
	var account models.FediAccount
	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.SNS,
		&account.Server,
		&account.RemoteID,
		&account.Username,
		&account.DisplayName,
		&account.AvatarURL,
		&account.ClientID,
		&account.ClientSecret,
		&account.AccessToken,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func collectFediAccounts(rows *sql.Rows) ([]*models.FediAccount, error) {
	var accounts []*models.FediAccount
	for rows.Next() {
		account, err := scanFediAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}
