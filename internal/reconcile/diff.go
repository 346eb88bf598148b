package reconcile

import (
	"slices"
	"time"

	"github.com/maheshrc27/fediplan/internal/fediverse"
)

type DiffKind int

const (
	// DiffUnchanged means no remote call is needed at all.
	DiffUnchanged DiffKind = iota
	// DiffReschedule means only the timestamp moved; the cheap reschedule
	// primitive is sufficient.
	DiffReschedule
	// DiffContent means some content field changed. The instance cannot
	// edit a scheduled status in place, so this forces cancel + recreate.
	DiffContent
)

type DiffResult struct {
	Kind DiffKind
	// ScheduledAt carries the new timestamp for DiffReschedule.
	ScheduledAt time.Time
}

// Diff compares a stored scheduled status against a proposed edit. Media id
// sequences are compared element for element: a reorder is a content change.
func Diff(old *fediverse.ScheduledStatus, proposed *fediverse.StatusDraft) DiffResult {
	if old.Params.Text != proposed.Text ||
		old.Params.Sensitive != proposed.Sensitive ||
		old.Params.SpoilerText != proposed.SpoilerText ||
		old.Params.Visibility != proposed.Visibility ||
		!slices.Equal(old.Params.MediaIDs, proposed.MediaIDs) {
		return DiffResult{Kind: DiffContent}
	}

	if !old.ScheduledAt.Equal(proposed.ScheduledAt) {
		return DiffResult{Kind: DiffReschedule, ScheduledAt: proposed.ScheduledAt}
	}

	return DiffResult{Kind: DiffUnchanged}
}
