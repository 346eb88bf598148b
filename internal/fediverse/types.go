package fediverse

import "time"

type SNS string

const (
	SNSMastodon  SNS = "mastodon"
	SNSPleroma   SNS = "pleroma"
	SNSFriendica SNS = "friendica"
)

type MediaType string

const (
	MediaImage   MediaType = "image"
	MediaVideo   MediaType = "video"
	MediaGifv    MediaType = "gifv"
	MediaAudio   MediaType = "audio"
	MediaUnknown MediaType = "unknown"
)

// NeedsProcessing reports whether the server transcodes this media type
// out of band after upload.
func (t MediaType) NeedsProcessing() bool {
	return t == MediaVideo || t == MediaGifv
}

const (
	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
	VisibilityPrivate  = "private"
	VisibilityDirect   = "direct"
)

func ValidVisibility(v string) bool {
	switch v {
	case VisibilityPublic, VisibilityUnlisted, VisibilityPrivate, VisibilityDirect:
		return true
	}
	return false
}

type Attachment struct {
	ID          string    `json:"id"`
	Type        MediaType `json:"type"`
	URL         string    `json:"url"`
	PreviewURL  string    `json:"preview_url"`
	Description string    `json:"description"`
}

type StatusParams struct {
	Text        string   `json:"text"`
	MediaIDs    []string `json:"media_ids"`
	Sensitive   bool     `json:"sensitive"`
	SpoilerText string   `json:"spoiler_text"`
	Visibility  string   `json:"visibility"`
	InReplyToID string   `json:"in_reply_to_id"`
}

type ScheduledStatus struct {
	ID               string       `json:"id"`
	ScheduledAt      time.Time    `json:"scheduled_at"`
	Params           StatusParams `json:"params"`
	MediaAttachments []Attachment `json:"media_attachments"`
}

// StatusDraft carries everything needed to create a scheduled status.
type StatusDraft struct {
	Text        string
	MediaIDs    []string
	Sensitive   bool
	SpoilerText string
	Visibility  string
	InReplyToID string
	ScheduledAt time.Time
}

type MediaUpdate struct {
	Description string
	Focus       string
}

type Account struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Acct        string `json:"acct"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
}

type AppCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}
