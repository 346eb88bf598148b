package fediverse

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Client is the capability surface a compatible instance has to offer for
// scheduling. There is no generic in-place edit of a scheduled status:
// content changes go through cancel + recreate, only the timestamp can be
// moved with RescheduleStatus.
type Client interface {
	UploadMedia(ctx context.Context, filename string, file io.Reader) (*Attachment, error)
	GetMedia(ctx context.Context, id string) (*Attachment, error)
	UpdateMedia(ctx context.Context, id string, update MediaUpdate) (*Attachment, error)
	GetScheduledStatus(ctx context.Context, id string) (*ScheduledStatus, error)
	ListScheduledStatuses(ctx context.Context) ([]*ScheduledStatus, error)
	RescheduleStatus(ctx context.Context, id string, at time.Time) (*ScheduledStatus, error)
	CancelScheduledStatus(ctx context.Context, id string) error
	ScheduleStatus(ctx context.Context, draft *StatusDraft) (*ScheduledStatus, error)
	VerifyCredentials(ctx context.Context) (*Account, error)
}

// New returns the client implementation for the given service variant.
func New(sns SNS, server, accessToken string) (Client, error) {
	switch sns {
	case SNSMastodon, "":
		return NewMastodon(server, accessToken), nil
	case SNSPleroma:
		return NewPleroma(server, accessToken), nil
	case SNSFriendica:
		return NewFriendica(server, accessToken), nil
	}
	return nil, fmt.Errorf("unsupported service variant %q", sns)
}
