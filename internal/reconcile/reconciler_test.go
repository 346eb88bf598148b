package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maheshrc27/fediplan/internal/fediverse"
	"github.com/maheshrc27/fediplan/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	stored *fediverse.ScheduledStatus

	getErr        error
	rescheduleErr error
	cancelErr     error
	scheduleErr   error

	getCalls        int
	rescheduleCalls int
	cancelCalls     int
	scheduleCalls   int
}

func (f *fakeClient) GetScheduledStatus(ctx context.Context, id string) (*fediverse.ScheduledStatus, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.stored, nil
}

func (f *fakeClient) RescheduleStatus(ctx context.Context, id string, at time.Time) (*fediverse.ScheduledStatus, error) {
	f.rescheduleCalls++
	if f.rescheduleErr != nil {
		return nil, f.rescheduleErr
	}
	updated := *f.stored
	updated.ScheduledAt = at
	return &updated, nil
}

func (f *fakeClient) CancelScheduledStatus(ctx context.Context, id string) error {
	f.cancelCalls++
	return f.cancelErr
}

func (f *fakeClient) ScheduleStatus(ctx context.Context, draft *fediverse.StatusDraft) (*fediverse.ScheduledStatus, error) {
	f.scheduleCalls++
	if f.scheduleErr != nil {
		return nil, f.scheduleErr
	}
	return &fediverse.ScheduledStatus{
		ID:          "new-id",
		ScheduledAt: draft.ScheduledAt,
		Params: fediverse.StatusParams{
			Text:        draft.Text,
			MediaIDs:    draft.MediaIDs,
			Sensitive:   draft.Sensitive,
			SpoilerText: draft.SpoilerText,
			Visibility:  draft.Visibility,
		},
	}, nil
}

type fakeCache struct {
	replaceCalls int
	removeCalls  int
	removedID    string
	replaceErr   error
}

func (f *fakeCache) Replace(ctx context.Context, oldID string, status *fediverse.ScheduledStatus) error {
	f.replaceCalls++
	return f.replaceErr
}

func (f *fakeCache) Remove(ctx context.Context, id string) error {
	f.removeCalls++
	f.removedID = id
	return nil
}

func TestReconcileUnchangedMakesNoMutation(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client := &fakeClient{stored: storedStatus(at)}
	cache := &fakeCache{}

	r := New(client, cache)
	got, err := r.Reconcile(context.Background(), "42", matchingDraft(at))

	require.NoError(t, err)
	assert.Equal(t, "42", got.ID)
	assert.Equal(t, 1, client.getCalls)
	assert.Equal(t, 0, client.rescheduleCalls)
	assert.Equal(t, 0, client.cancelCalls)
	assert.Equal(t, 0, client.scheduleCalls)
	assert.Equal(t, 0, cache.replaceCalls)
}

func TestReconcileUnchangedIsIdempotent(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client := &fakeClient{stored: storedStatus(at)}

	r := New(client, &fakeCache{})

	for i := 0; i < 3; i++ {
		_, err := r.Reconcile(context.Background(), "42", matchingDraft(at))
		require.NoError(t, err)
	}

	assert.Equal(t, 3, client.getCalls)
	assert.Equal(t, 0, client.rescheduleCalls)
	assert.Equal(t, 0, client.cancelCalls)
	assert.Equal(t, 0, client.scheduleCalls)
}

func TestReconcileTimeOnlyUsesReschedule(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client := &fakeClient{stored: storedStatus(at)}
	cache := &fakeCache{}

	draft := matchingDraft(at.Add(time.Hour))

	r := New(client, cache)
	got, err := r.Reconcile(context.Background(), "42", draft)

	require.NoError(t, err)
	assert.True(t, got.ScheduledAt.Equal(at.Add(time.Hour)))
	assert.Equal(t, "42", got.ID, "reschedule keeps the id")
	assert.Equal(t, 1, client.rescheduleCalls)
	assert.Equal(t, 0, client.cancelCalls)
	assert.Equal(t, 0, client.scheduleCalls)
	assert.Equal(t, 1, cache.replaceCalls)
}

func TestReconcileContentChangeCancelsAndRecreates(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client := &fakeClient{stored: storedStatus(at)}
	cache := &fakeCache{}

	draft := matchingDraft(at)
	draft.Text = "edited"

	r := New(client, cache)
	got, err := r.Reconcile(context.Background(), "42", draft)

	require.NoError(t, err)
	assert.Equal(t, "new-id", got.ID, "recreate issues a new id")
	assert.Equal(t, "edited", got.Params.Text)
	assert.Equal(t, 1, client.cancelCalls)
	assert.Equal(t, 1, client.scheduleCalls)
	assert.Equal(t, 1, cache.replaceCalls)
}

func TestReconcileFetchFailureIsRetryable(t *testing.T) {
	client := &fakeClient{getErr: errors.New("connection refused")}

	r := New(client, &fakeCache{})
	_, err := r.Reconcile(context.Background(), "42", matchingDraft(time.Now()))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReconcileFailed)
	assert.Equal(t, 0, client.cancelCalls)
}

func TestReconcileCancelFailureLeavesPostIntact(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client := &fakeClient{
		stored:    storedStatus(at),
		cancelErr: errors.New("rate limited"),
	}
	cache := &fakeCache{}

	draft := matchingDraft(at)
	draft.Text = "edited"

	r := New(client, cache)
	_, err := r.Reconcile(context.Background(), "42", draft)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReconcileFailed)
	assert.Equal(t, 0, client.scheduleCalls)
	assert.Equal(t, 0, cache.removeCalls)
}

func TestReconcileCreateFailureReportsPostLost(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client := &fakeClient{
		stored:      storedStatus(at),
		scheduleErr: errors.New("validation failed"),
	}
	cache := &fakeCache{}

	draft := matchingDraft(at)
	draft.Text = "edited"

	r := New(client, cache)
	_, err := r.Reconcile(context.Background(), "42", draft)

	require.Error(t, err)

	var lost *PostLostError
	require.ErrorAs(t, err, &lost)
	assert.Equal(t, "42", lost.ID)
	assert.Equal(t, "edited", lost.Draft.Text, "draft must survive for recovery")
	assert.NotErrorIs(t, err, ErrReconcileFailed, "post lost is not a retryable failure")

	assert.Equal(t, 1, cache.removeCalls, "lost post must leave the cache")
	assert.Equal(t, "42", cache.removedID)
}

func TestReconcileRejectsInvalidDraftBeforeFetching(t *testing.T) {
	at := time.Now().Add(time.Hour)
	client := &fakeClient{stored: storedStatus(at)}

	r := New(client, &fakeCache{})

	tests := []struct {
		name     string
		mutate   func(*fediverse.StatusDraft)
		expected error
	}{
		{
			name:     "sensitive without spoiler",
			mutate:   func(d *fediverse.StatusDraft) { d.SpoilerText = "" },
			expected: ErrSpoilerRequired,
		},
		{
			name:     "pending media sentinel",
			mutate:   func(d *fediverse.StatusDraft) { d.MediaIDs = []string{"m1", media.InvalidMediaID} },
			expected: ErrMediaNotReady,
		},
		{
			name:     "unknown visibility",
			mutate:   func(d *fediverse.StatusDraft) { d.Visibility = "followers" },
			expected: ErrBadVisibility,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client.getCalls = 0

			draft := matchingDraft(at)
			tt.mutate(draft)

			_, err := r.Reconcile(context.Background(), "42", draft)
			assert.ErrorIs(t, err, tt.expected)
			assert.Equal(t, 0, client.getCalls, "validation must run before any remote call")
		})
	}
}

func TestValidateDraftAllowsEmptyVisibility(t *testing.T) {
	draft := &fediverse.StatusDraft{Text: "hi"}
	assert.NoError(t, ValidateDraft(draft))
}
