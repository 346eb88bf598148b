package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/fediplan/internal/fediverse"
	"github.com/maheshrc27/fediplan/internal/models"
	"github.com/maheshrc27/fediplan/internal/reconcile"
	"github.com/maheshrc27/fediplan/internal/repository"
	"github.com/maheshrc27/fediplan/internal/transfer"
)

// MinScheduleLead is the minimum distance into the future for a new
// scheduled post. The instances refuse anything closer anyway.
const MinScheduleLead = 10 * time.Minute

var ErrScheduleTooSoon = fmt.Errorf("scheduled time must be at least %s in the future", MinScheduleLead)

type ScheduleService interface {
	Create(ctx context.Context, userID int64, sub *transfer.PostSubmission) (*fediverse.ScheduledStatus, error)
	List(ctx context.Context, userID int64) ([]*models.ScheduledPost, error)
	Edit(ctx context.Context, userID int64, edit *transfer.PostEdit) (*fediverse.ScheduledStatus, error)
	Remove(ctx context.Context, userID, accountID int64, remoteID string) error
	Refresh(ctx context.Context, account *models.FediAccount) error
}

type scheduleService struct {
	accounts AccountService
	posts    repository.ScheduledPostRepository
}

func NewScheduleService(accounts AccountService, posts repository.ScheduledPostRepository) ScheduleService {
	return &scheduleService{
		accounts: accounts,
		posts:    posts,
	}
}

func (s *scheduleService) Create(ctx context.Context, userID int64, sub *transfer.PostSubmission) (*fediverse.ScheduledStatus, error) {
	draft, err := draftFromSubmission(sub)
	if err != nil {
		return nil, err
	}
	if draft.Text == "" && len(draft.MediaIDs) == 0 {
		err = errors.New("post cannot be empty")
		slog.Info(err.Error())
		return nil, err
	}
	if err := reconcile.ValidateDraft(draft); err != nil {
		return nil, err
	}
	if time.Until(draft.ScheduledAt) < MinScheduleLead {
		return nil, ErrScheduleTooSoon
	}

	client, err := s.accounts.ClientFor(ctx, userID, sub.AccountID)
	if err != nil {
		return nil, err
	}

	status, err := client.ScheduleStatus(ctx, draft)
	if err != nil {
		return nil, err
	}

	if err := s.posts.Upsert(ctx, nil, statusToModel(sub.AccountID, status)); err != nil {
		slog.Error("failed to cache scheduled post: " + err.Error())
	}

	return status, nil
}

func (s *scheduleService) List(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	posts, err := s.posts.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Error getting scheduled posts")
	}
	return posts, nil
}

// Edit reconciles the proposed fields against the stored post and performs
// the minimum sufficient remote mutation. A *reconcile.PostLostError must
// reach the handler untouched: it is the one failure the user has to see
// spelled out.
func (s *scheduleService) Edit(ctx context.Context, userID int64, edit *transfer.PostEdit) (*fediverse.ScheduledStatus, error) {
	draft, err := draftFromSubmission(&edit.PostSubmission)
	if err != nil {
		return nil, err
	}

	client, err := s.accounts.ClientFor(ctx, userID, edit.AccountID)
	if err != nil {
		return nil, err
	}

	r := reconcile.New(client, &postCache{posts: s.posts, accountID: edit.AccountID})
	return r.Reconcile(ctx, edit.ID, draft)
}

func (s *scheduleService) Remove(ctx context.Context, userID, accountID int64, remoteID string) error {
	client, err := s.accounts.ClientFor(ctx, userID, accountID)
	if err != nil {
		return err
	}

	if err := client.CancelScheduledStatus(ctx, remoteID); err != nil && !errors.Is(err, fediverse.ErrNotFound) {
		return err
	}

	return s.posts.Remove(ctx, accountID, remoteID)
}

// Refresh rewrites the cache of one account from the instance's current
// scheduled statuses. Run periodically so published posts fall out.
func (s *scheduleService) Refresh(ctx context.Context, account *models.FediAccount) error {
	client, err := s.accounts.ClientFor(ctx, account.UserID, account.ID)
	if err != nil {
		return err
	}

	statuses, err := client.ListScheduledStatuses(ctx)
	if err != nil {
		return err
	}

	posts := make([]*models.ScheduledPost, 0, len(statuses))
	for _, status := range statuses {
		posts = append(posts, statusToModel(account.ID, status))
	}

	return s.posts.SyncAccount(ctx, account.ID, posts)
}

// postCache adapts the repository to the reconciler's cache interface for
// one account.
type postCache struct {
	posts     repository.ScheduledPostRepository
	accountID int64
}

func (c *postCache) Replace(ctx context.Context, oldID string, status *fediverse.ScheduledStatus) error {
	return c.posts.Replace(ctx, c.accountID, oldID, statusToModel(c.accountID, status))
}

func (c *postCache) Remove(ctx context.Context, id string) error {
	return c.posts.Remove(ctx, c.accountID, id)
}

func draftFromSubmission(sub *transfer.PostSubmission) (*fediverse.StatusDraft, error) {
	scheduledAt, err := time.Parse(time.RFC3339, sub.ScheduledAt)
	if err != nil {
		err = fmt.Errorf("invalid scheduled time format: %w", err)
		slog.Info(err.Error())
		return nil, err
	}

	return &fediverse.StatusDraft{
		Text:        sub.Text,
		MediaIDs:    sub.MediaIDs,
		Sensitive:   sub.Sensitive,
		SpoilerText: sub.SpoilerText,
		Visibility:  sub.Visibility,
		ScheduledAt: scheduledAt,
	}, nil
}

func statusToModel(accountID int64, status *fediverse.ScheduledStatus) *models.ScheduledPost {
	return &models.ScheduledPost{
		AccountID:   accountID,
		RemoteID:    status.ID,
		Text:        status.Params.Text,
		MediaIDs:    status.Params.MediaIDs,
		Sensitive:   status.Params.Sensitive,
		SpoilerText: status.Params.SpoilerText,
		Visibility:  status.Params.Visibility,
		ScheduledAt: status.ScheduledAt,
	}
}
