package fediverse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Mastodon talks to a Mastodon instance. The compatible variants embed it
// and override the paths they diverge on.
type Mastodon struct {
	server string
	token  string
	client *http.Client

	// v2 on Mastodon; Pleroma and Friendica still serve v1 only.
	mediaUploadPath string
}

func NewMastodon(server, accessToken string) *Mastodon {
	return &Mastodon{
		server:          strings.TrimSuffix(server, "/"),
		token:           accessToken,
		client:          &http.Client{Timeout: 2 * time.Minute},
		mediaUploadPath: "/api/v2/media",
	}
}

func (m *Mastodon) UploadMedia(ctx context.Context, filename string, file io.Reader) (*Attachment, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.server+m.mediaUploadPath, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var attachment Attachment
	if err := m.do(req, &attachment); err != nil {
		return nil, err
	}
	return &attachment, nil
}

// GetMedia returns the current processing state of an attachment. While the
// instance is still transcoding it responds 206 and URL stays empty.
func (m *Mastodon) GetMedia(ctx context.Context, id string) (*Attachment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.server+"/api/v1/media/"+id, nil)
	if err != nil {
		return nil, err
	}

	var attachment Attachment
	if err := m.do(req, &attachment); err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (m *Mastodon) UpdateMedia(ctx context.Context, id string, update MediaUpdate) (*Attachment, error) {
	payload := map[string]string{
		"description": update.Description,
	}
	if update.Focus != "" {
		payload["focus"] = update.Focus
	}

	req, err := m.jsonRequest(ctx, http.MethodPut, "/api/v1/media/"+id, payload)
	if err != nil {
		return nil, err
	}

	var attachment Attachment
	if err := m.do(req, &attachment); err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (m *Mastodon) GetScheduledStatus(ctx context.Context, id string) (*ScheduledStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.server+"/api/v1/scheduled_statuses/"+id, nil)
	if err != nil {
		return nil, err
	}

	var status ScheduledStatus
	if err := m.do(req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (m *Mastodon) ListScheduledStatuses(ctx context.Context) ([]*ScheduledStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.server+"/api/v1/scheduled_statuses", nil)
	if err != nil {
		return nil, err
	}

	var statuses []*ScheduledStatus
	if err := m.do(req, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

func (m *Mastodon) RescheduleStatus(ctx context.Context, id string, at time.Time) (*ScheduledStatus, error) {
	payload := map[string]string{
		"scheduled_at": at.UTC().Format(time.RFC3339),
	}

	req, err := m.jsonRequest(ctx, http.MethodPut, "/api/v1/scheduled_statuses/"+id, payload)
	if err != nil {
		return nil, err
	}

	var status ScheduledStatus
	if err := m.do(req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (m *Mastodon) CancelScheduledStatus(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, m.server+"/api/v1/scheduled_statuses/"+id, nil)
	if err != nil {
		return err
	}
	return m.do(req, nil)
}

func (m *Mastodon) ScheduleStatus(ctx context.Context, draft *StatusDraft) (*ScheduledStatus, error) {
	payload := struct {
		Status      string   `json:"status"`
		MediaIDs    []string `json:"media_ids,omitempty"`
		Sensitive   bool     `json:"sensitive,omitempty"`
		SpoilerText string   `json:"spoiler_text,omitempty"`
		Visibility  string   `json:"visibility,omitempty"`
		InReplyToID string   `json:"in_reply_to_id,omitempty"`
		ScheduledAt string   `json:"scheduled_at"`
	}{
		Status:      draft.Text,
		MediaIDs:    draft.MediaIDs,
		Sensitive:   draft.Sensitive,
		SpoilerText: draft.SpoilerText,
		Visibility:  draft.Visibility,
		InReplyToID: draft.InReplyToID,
		ScheduledAt: draft.ScheduledAt.UTC().Format(time.RFC3339),
	}

	req, err := m.jsonRequest(ctx, http.MethodPost, "/api/v1/statuses", payload)
	if err != nil {
		return nil, err
	}

	var status ScheduledStatus
	if err := m.do(req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (m *Mastodon) VerifyCredentials(ctx context.Context) (*Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.server+"/api/v1/accounts/verify_credentials", nil)
	if err != nil {
		return nil, err
	}

	var account Account
	if err := m.do(req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (m *Mastodon) jsonRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, m.server+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (m *Mastodon) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+m.token)

	resp, err := m.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}

	// 206 means the attachment is still being processed; the body is the
	// attachment without a url.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if resp.StatusCode == http.StatusPartialContent && err == io.EOF {
			return nil
		}
		slog.Info(err.Error())
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
