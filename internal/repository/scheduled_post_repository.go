package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"github.com/maheshrc27/fediplan/internal/models"
)

// ScheduledPostRepository is the local mirror of remotely stored scheduled
// statuses. Replace and SyncAccount run in one transaction so a reader
// never observes a cancelled post without its replacement.
type ScheduledPostRepository interface {
	Upsert(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) error
	Replace(ctx context.Context, accountID int64, oldRemoteID string, post *models.ScheduledPost) error
	Remove(ctx context.Context, accountID int64, remoteID string) error
	ListByAccountID(ctx context.Context, accountID int64) ([]*models.ScheduledPost, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.ScheduledPost, error)
	SyncAccount(ctx context.Context, accountID int64, posts []*models.ScheduledPost) error
}

type scheduledPostRepository struct {
	db *sql.DB
}

func NewScheduledPostRepository(db *sql.DB) ScheduledPostRepository {
	return &scheduledPostRepository{db: db}
}

const upsertScheduledPostQuery = `
	INSERT INTO scheduled_posts (account_id, remote_id, text, media_ids, sensitive, spoiler_text, visibility, scheduled_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (account_id, remote_id)
	DO UPDATE SET text = EXCLUDED.text,
		media_ids = EXCLUDED.media_ids,
		sensitive = EXCLUDED.sensitive,
		spoiler_text = EXCLUDED.spoiler_text,
		visibility = EXCLUDED.visibility,
		scheduled_at = EXCLUDED.scheduled_at,
		updated_at = NOW()
`

func (r *scheduledPostRepository) Upsert(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) error {
	args := []any{
		post.AccountID,
		post.RemoteID,
		post.Text,
		pq.Array(post.MediaIDs),
		post.Sensitive,
		post.SpoilerText,
		post.Visibility,
		post.ScheduledAt,
	}

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, upsertScheduledPostQuery, args...)
	} else {
		_, err = r.db.ExecContext(ctx, upsertScheduledPostQuery, args...)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Replace swaps one cached entry for another. Used after an edit: a
// reschedule keeps the remote id, a cancel + recreate changes it.
func (r *scheduledPostRepository) Replace(ctx context.Context, accountID int64, oldRemoteID string, post *models.ScheduledPost) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM scheduled_posts WHERE account_id = $1 AND remote_id = $2`,
		accountID, oldRemoteID); err != nil {
		slog.Info(err.Error())
		return err
	}

	if err := r.Upsert(ctx, tx, post); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *scheduledPostRepository) Remove(ctx context.Context, accountID int64, remoteID string) error {
	query := `DELETE FROM scheduled_posts WHERE account_id = $1 AND remote_id = $2`
	if _, err := r.db.ExecContext(ctx, query, accountID, remoteID); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

const scheduledPostColumns = `id, account_id, remote_id, text, media_ids, sensitive, spoiler_text, visibility, scheduled_at, created_at, updated_at`

func (r *scheduledPostRepository) ListByAccountID(ctx context.Context, accountID int64) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE account_id = $1 ORDER BY scheduled_at`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectScheduledPosts(rows)
}

func (r *scheduledPostRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	query := `
		SELECT p.id, p.account_id, p.remote_id, p.text, p.media_ids, p.sensitive, p.spoiler_text, p.visibility, p.scheduled_at, p.created_at, p.updated_at
		FROM scheduled_posts p
		JOIN fedi_accounts a ON a.id = p.account_id
		WHERE a.user_id = $1
		ORDER BY p.scheduled_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectScheduledPosts(rows)
}

// SyncAccount rewrites the whole mirror of one account from the instance's
// current list. Posts that were published in the meantime fall out here.
func (r *scheduledPostRepository) SyncAccount(ctx context.Context, accountID int64, posts []*models.ScheduledPost) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM scheduled_posts WHERE account_id = $1`, accountID); err != nil {
		slog.Info(err.Error())
		return err
	}

	for _, post := range posts {
		if err := r.Upsert(ctx, tx, post); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func collectScheduledPosts(rows *sql.Rows) ([]*models.ScheduledPost, error) {
	var posts []*models.ScheduledPost
	for rows.Next() {
		var post models.ScheduledPost
		err := rows.Scan(
			&post.ID,
			&post.AccountID,
			&post.RemoteID,
			&post.Text,
			pq.Array(&post.MediaIDs),
			&post.Sensitive,
			&post.SpoilerText,
			&post.Visibility,
			&post.ScheduledAt,
			&post.CreatedAt,
			&post.UpdatedAt,
		)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, &post)
	}
	return posts, rows.Err()
}
