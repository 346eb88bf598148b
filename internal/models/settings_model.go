package models

import "time"

// Settings are per-user posting defaults applied when a compose form is
// opened empty.
type Settings struct {
	UserID            int64     `db:"user_id" json:"user_id"`
	DefaultVisibility string    `db:"default_visibility" json:"default_visibility"`
	DefaultSensitive  bool      `db:"default_sensitive" json:"default_sensitive"`
	Timezone          string    `db:"timezone" json:"timezone"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
