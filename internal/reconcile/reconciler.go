package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/fediplan/internal/fediverse"
	"github.com/maheshrc27/fediplan/internal/media"
)

var (
	// ErrReconcileFailed covers every failure where the stored post is left
	// exactly as it was. Safe to retry.
	ErrReconcileFailed = errors.New("reconcile failed")

	ErrSpoilerRequired = errors.New("content warning text is required for sensitive posts")
	ErrMediaNotReady   = errors.New("attachments are not finished uploading")
	ErrBadVisibility   = errors.New("invalid visibility")
)

// PostLostError is the destructive-path failure: the old scheduled status
// was cancelled but the replacement could not be created. The post is gone
// remotely; the draft is carried so the caller can tell the user what to
// recreate. Must never be reported as an ordinary reconcile failure.
type PostLostError struct {
	ID    string
	Draft fediverse.StatusDraft
	Err   error
}

func (e *PostLostError) Error() string {
	return fmt.Sprintf("scheduled post %s was cancelled but could not be recreated: %v", e.ID, e.Err)
}

func (e *PostLostError) Unwrap() error { return e.Err }

type Client interface {
	GetScheduledStatus(ctx context.Context, id string) (*fediverse.ScheduledStatus, error)
	RescheduleStatus(ctx context.Context, id string, at time.Time) (*fediverse.ScheduledStatus, error)
	CancelScheduledStatus(ctx context.Context, id string) error
	ScheduleStatus(ctx context.Context, draft *fediverse.StatusDraft) (*fediverse.ScheduledStatus, error)
}

// Cache mirrors the instance's scheduled statuses locally. The reconciler is
// its only writer; Replace swaps one entry for another atomically so list
// readers never see a cancelled post without its replacement.
type Cache interface {
	Replace(ctx context.Context, oldID string, status *fediverse.ScheduledStatus) error
	Remove(ctx context.Context, id string) error
}

type Reconciler struct {
	client Client
	cache  Cache
}

func New(client Client, cache Cache) *Reconciler {
	return &Reconciler{client: client, cache: cache}
}

// ValidateDraft enforces the submit rules before any remote mutation:
// sensitive posts need a content warning, every media slot must be ready and
// the visibility must be one the instances accept.
func ValidateDraft(draft *fediverse.StatusDraft) error {
	if draft.Sensitive && draft.SpoilerText == "" {
		return ErrSpoilerRequired
	}
	for _, id := range draft.MediaIDs {
		if id == media.InvalidMediaID {
			return ErrMediaNotReady
		}
	}
	if draft.Visibility != "" && !fediverse.ValidVisibility(draft.Visibility) {
		return ErrBadVisibility
	}
	return nil
}

// Reconcile applies an edit to an already-scheduled post with the minimum
// sufficient remote operation. On the destructive path the returned record
// carries a new id: callers caching by id must treat it as a replace.
func (r *Reconciler) Reconcile(ctx context.Context, id string, proposed *fediverse.StatusDraft) (*fediverse.ScheduledStatus, error) {
	if err := ValidateDraft(proposed); err != nil {
		return nil, err
	}

	old, err := r.client.GetScheduledStatus(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching scheduled post: %w", ErrReconcileFailed, err)
	}

	switch d := Diff(old, proposed); d.Kind {
	case DiffUnchanged:
		return old, nil

	case DiffReschedule:
		updated, err := r.client.RescheduleStatus(ctx, id, d.ScheduledAt)
		if err != nil {
			return nil, fmt.Errorf("%w: rescheduling: %w", ErrReconcileFailed, err)
		}
		r.replaceCached(ctx, id, updated)
		return updated, nil

	default:
		if err := r.client.CancelScheduledStatus(ctx, id); err != nil {
			return nil, fmt.Errorf("%w: cancelling: %w", ErrReconcileFailed, err)
		}

		created, err := r.client.ScheduleStatus(ctx, proposed)
		if err != nil {
			// The old post is already gone remotely. Drop it from the
			// cache before reporting so readers never list a destroyed
			// post.
			if cacheErr := r.cache.Remove(ctx, id); cacheErr != nil {
				slog.Error("failed to remove lost post from cache: " + cacheErr.Error())
			}
			return nil, &PostLostError{ID: id, Draft: *proposed, Err: err}
		}

		r.replaceCached(ctx, id, created)
		return created, nil
	}
}

// replaceCached keeps the mirror in step with a successful remote mutation.
// The mirror is advisory (the refresh job re-syncs it), so a failed write is
// logged, not surfaced.
func (r *Reconciler) replaceCached(ctx context.Context, oldID string, status *fediverse.ScheduledStatus) {
	if err := r.cache.Replace(ctx, oldID, status); err != nil {
		slog.Error("failed to update scheduled post cache: " + err.Error())
	}
}
