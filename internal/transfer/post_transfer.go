package transfer

// PostSubmission is the compose form payload for scheduling a new post or
// editing an existing one. ScheduledAt is RFC3339.
type PostSubmission struct {
	AccountID   int64    `json:"account_id"`
	Text        string   `json:"text"`
	MediaIDs    []string `json:"media_ids"`
	Sensitive   bool     `json:"sensitive"`
	SpoilerText string   `json:"spoiler_text"`
	Visibility  string   `json:"visibility"`
	ScheduledAt string   `json:"scheduled_at"`
}

type PostEdit struct {
	ID string `json:"id"`
	PostSubmission
}

type SessionCreation struct {
	AccountID int64 `json:"account_id"`
}

type DescriptionUpdate struct {
	FileName    string `json:"file_name"`
	Description string `json:"description"`
}

type SettingsUpdate struct {
	DefaultVisibility string `json:"default_visibility"`
	DefaultSensitive  bool   `json:"default_sensitive"`
	Timezone          string `json:"timezone"`
}
