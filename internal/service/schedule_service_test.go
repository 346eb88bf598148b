package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/maheshrc27/fediplan/internal/fediverse"
	"github.com/maheshrc27/fediplan/internal/models"
	"github.com/maheshrc27/fediplan/internal/reconcile"
	"github.com/maheshrc27/fediplan/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduleClient struct {
	fediverse.Client

	scheduled *fediverse.StatusDraft
	cancelled []string
	listed    []*fediverse.ScheduledStatus
}

func (f *fakeScheduleClient) ScheduleStatus(ctx context.Context, draft *fediverse.StatusDraft) (*fediverse.ScheduledStatus, error) {
	f.scheduled = draft
	return &fediverse.ScheduledStatus{
		ID:          "s1",
		ScheduledAt: draft.ScheduledAt,
		Params: fediverse.StatusParams{
			Text:     draft.Text,
			MediaIDs: draft.MediaIDs,
		},
	}, nil
}

func (f *fakeScheduleClient) CancelScheduledStatus(ctx context.Context, id string) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeScheduleClient) ListScheduledStatuses(ctx context.Context) ([]*fediverse.ScheduledStatus, error) {
	return f.listed, nil
}

type fakeAccountService struct {
	AccountService
	client fediverse.Client
}

func (f *fakeAccountService) ClientFor(ctx context.Context, userID, accountID int64) (fediverse.Client, error) {
	return f.client, nil
}

type fakePostRepo struct {
	upserts int
	synced  []*models.ScheduledPost
	removed []string
}

func (f *fakePostRepo) Upsert(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) error {
	f.upserts++
	return nil
}

func (f *fakePostRepo) Replace(ctx context.Context, accountID int64, oldRemoteID string, post *models.ScheduledPost) error {
	return nil
}

func (f *fakePostRepo) Remove(ctx context.Context, accountID int64, remoteID string) error {
	f.removed = append(f.removed, remoteID)
	return nil
}

func (f *fakePostRepo) ListByAccountID(ctx context.Context, accountID int64) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (f *fakePostRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (f *fakePostRepo) SyncAccount(ctx context.Context, accountID int64, posts []*models.ScheduledPost) error {
	f.synced = posts
	return nil
}

func submission(at time.Time) *transfer.PostSubmission {
	return &transfer.PostSubmission{
		AccountID:   7,
		Text:        "hello",
		Visibility:  fediverse.VisibilityPublic,
		ScheduledAt: at.Format(time.RFC3339),
	}
}

func TestScheduleCreate(t *testing.T) {
	client := &fakeScheduleClient{}
	repo := &fakePostRepo{}
	s := NewScheduleService(&fakeAccountService{client: client}, repo)

	at := time.Now().Add(time.Hour).Truncate(time.Second)
	status, err := s.Create(context.Background(), 1, submission(at))

	require.NoError(t, err)
	assert.Equal(t, "s1", status.ID)
	require.NotNil(t, client.scheduled)
	assert.True(t, client.scheduled.ScheduledAt.Equal(at))
	assert.Equal(t, 1, repo.upserts, "a created post enters the cache")
}

func TestScheduleCreateRejectsNearFuture(t *testing.T) {
	client := &fakeScheduleClient{}
	s := NewScheduleService(&fakeAccountService{client: client}, &fakePostRepo{})

	_, err := s.Create(context.Background(), 1, submission(time.Now().Add(5*time.Minute)))

	assert.ErrorIs(t, err, ErrScheduleTooSoon)
	assert.Nil(t, client.scheduled, "nothing may reach the instance")
}

func TestScheduleCreateRejectsEmptyPost(t *testing.T) {
	s := NewScheduleService(&fakeAccountService{client: &fakeScheduleClient{}}, &fakePostRepo{})

	sub := submission(time.Now().Add(time.Hour))
	sub.Text = ""

	_, err := s.Create(context.Background(), 1, sub)
	assert.Error(t, err)
}

func TestScheduleCreateRejectsPendingMedia(t *testing.T) {
	s := NewScheduleService(&fakeAccountService{client: &fakeScheduleClient{}}, &fakePostRepo{})

	sub := submission(time.Now().Add(time.Hour))
	sub.MediaIDs = []string{"m1", "invalid"}

	_, err := s.Create(context.Background(), 1, sub)
	assert.ErrorIs(t, err, reconcile.ErrMediaNotReady)
}

func TestScheduleCreateRejectsBadTimestamp(t *testing.T) {
	s := NewScheduleService(&fakeAccountService{client: &fakeScheduleClient{}}, &fakePostRepo{})

	sub := submission(time.Now().Add(time.Hour))
	sub.ScheduledAt = "tomorrow at noon"

	_, err := s.Create(context.Background(), 1, sub)
	assert.Error(t, err)
}

func TestScheduleRemoveToleratesMissingRemote(t *testing.T) {
	client := &fakeScheduleClient{}
	repo := &fakePostRepo{}
	s := NewScheduleService(&fakeAccountService{client: client}, repo)

	err := s.Remove(context.Background(), 1, 7, "s1")

	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, client.cancelled)
	assert.Equal(t, []string{"s1"}, repo.removed)
}

func TestScheduleRefreshSyncsCache(t *testing.T) {
	client := &fakeScheduleClient{listed: []*fediverse.ScheduledStatus{
		{ID: "s1", Params: fediverse.StatusParams{Text: "one"}},
		{ID: "s2", Params: fediverse.StatusParams{Text: "two"}},
	}}
	repo := &fakePostRepo{}
	s := NewScheduleService(&fakeAccountService{client: client}, repo)

	err := s.Refresh(context.Background(), &models.FediAccount{ID: 7, UserID: 1})

	require.NoError(t, err)
	require.Len(t, repo.synced, 2)
	assert.Equal(t, "s1", repo.synced[0].RemoteID)
	assert.Equal(t, int64(7), repo.synced[0].AccountID)
}
