package models

import "time"

// ScheduledPost is the local mirror of one scheduled status as the instance
// stores it. RemoteID changes when an edit goes through cancel + recreate,
// so rows are addressed by (account_id, remote_id), never cached by ID
// across an edit.
type ScheduledPost struct {
	ID          int64     `db:"id" json:"id"`
	AccountID   int64     `db:"account_id" json:"account_id"`
	RemoteID    string    `db:"remote_id" json:"remote_id"`
	Text        string    `db:"text" json:"text"`
	MediaIDs    []string  `db:"media_ids" json:"media_ids"`
	Sensitive   bool      `db:"sensitive" json:"sensitive"`
	SpoilerText string    `db:"spoiler_text" json:"spoiler_text"`
	Visibility  string    `db:"visibility" json:"visibility"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// MediaAsset records the R2 mirror copy of an uploaded file. The mirror is
// what makes a lost post recoverable by hand after a failed recreate.
type MediaAsset struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileURL   string    `db:"file_url" json:"file_url"`
	RemoteID  string    `db:"remote_id" json:"remote_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
