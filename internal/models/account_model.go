package models

import "time"

// FediAccount is a connected fediverse account. AccessToken and
// ClientSecret are stored encrypted.
type FediAccount struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	SNS          string    `db:"sns" json:"sns"` // mastodon, pleroma, friendica
	Server       string    `db:"server" json:"server"`
	RemoteID     string    `db:"remote_id" json:"remote_id"`
	Username     string    `db:"username" json:"username"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	AvatarURL    string    `db:"avatar_url" json:"avatar_url"`
	ClientID     string    `db:"client_id" json:"-"`
	ClientSecret string    `db:"client_secret" json:"-"`
	AccessToken  string    `db:"access_token" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
