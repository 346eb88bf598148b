package fediverse

// Pleroma implements the Mastodon client API but never shipped the v2 media
// endpoint, so uploads stay on /api/v1/media.
type Pleroma struct {
	*Mastodon
}

func NewPleroma(server, accessToken string) *Pleroma {
	m := NewMastodon(server, accessToken)
	m.mediaUploadPath = "/api/v1/media"
	return &Pleroma{Mastodon: m}
}

// Friendica exposes the Mastodon-compatible API; like Pleroma it only
// serves the v1 media endpoint.
type Friendica struct {
	*Mastodon
}

func NewFriendica(server, accessToken string) *Friendica {
	m := NewMastodon(server, accessToken)
	m.mediaUploadPath = "/api/v1/media"
	return &Friendica{Mastodon: m}
}
