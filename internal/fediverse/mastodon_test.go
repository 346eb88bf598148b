package fediverse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/media", r.URL.Path)
		assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "cat.png", header.Filename)

		json.NewEncoder(w).Encode(Attachment{
			ID:         "m1",
			Type:       MediaImage,
			URL:        "https://files/m1.png",
			PreviewURL: "https://files/m1_small.png",
		})
	}))
	defer srv.Close()

	client := NewMastodon(srv.URL, "token123")
	attachment, err := client.UploadMedia(context.Background(), "cat.png", strings.NewReader("pngdata"))

	require.NoError(t, err)
	assert.Equal(t, "m1", attachment.ID)
	assert.Equal(t, MediaImage, attachment.Type)
}

func TestUploadMediaVariantsUseV1Path(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(Attachment{ID: "m1"})
	}))
	defer srv.Close()

	for _, sns := range []SNS{SNSPleroma, SNSFriendica} {
		client, err := New(sns, srv.URL, "token")
		require.NoError(t, err)

		_, err = client.UploadMedia(context.Background(), "cat.png", strings.NewReader("data"))
		require.NoError(t, err)
		assert.Equal(t, "/api/v1/media", gotPath, string(sns))
	}
}

func TestGetMediaStillProcessing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/media/m1", r.URL.Path)
		// Mastodon answers 206 with an empty body while transcoding.
		w.WriteHeader(http.StatusPartialContent)
	}))
	defer srv.Close()

	client := NewMastodon(srv.URL, "token")
	attachment, err := client.GetMedia(context.Background(), "m1")

	require.NoError(t, err)
	assert.Empty(t, attachment.URL)
}

func TestGetMediaReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Attachment{ID: "m1", Type: MediaVideo, URL: "https://files/m1.mp4"})
	}))
	defer srv.Close()

	client := NewMastodon(srv.URL, "token")
	attachment, err := client.GetMedia(context.Background(), "m1")

	require.NoError(t, err)
	assert.Equal(t, "https://files/m1.mp4", attachment.URL)
}

func TestGetMediaNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewMastodon(srv.URL, "token")
	_, err := client.GetMedia(context.Background(), "gone")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/media/m1", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "a cat", payload["description"])
		assert.Equal(t, "0,0", payload["focus"])

		json.NewEncoder(w).Encode(Attachment{ID: "m1", Description: "a cat"})
	}))
	defer srv.Close()

	client := NewMastodon(srv.URL, "token")
	attachment, err := client.UpdateMedia(context.Background(), "m1", MediaUpdate{Description: "a cat", Focus: "0,0"})

	require.NoError(t, err)
	assert.Equal(t, "a cat", attachment.Description)
}

func TestScheduleStatus(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/statuses", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "hello", payload["status"])
		assert.Equal(t, "2026-03-01T12:00:00Z", payload["scheduled_at"])
		assert.Equal(t, "cw", payload["spoiler_text"])

		json.NewEncoder(w).Encode(ScheduledStatus{
			ID:          "s1",
			ScheduledAt: at,
			Params:      StatusParams{Text: "hello"},
		})
	}))
	defer srv.Close()

	client := NewMastodon(srv.URL, "token")
	status, err := client.ScheduleStatus(context.Background(), &StatusDraft{
		Text:        "hello",
		Sensitive:   true,
		SpoilerText: "cw",
		ScheduledAt: at,
	})

	require.NoError(t, err)
	assert.Equal(t, "s1", status.ID)
}

func TestRescheduleStatus(t *testing.T) {
	at := time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/scheduled_statuses/s1", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "2026-03-01T15:30:00Z", payload["scheduled_at"])

		json.NewEncoder(w).Encode(ScheduledStatus{ID: "s1", ScheduledAt: at})
	}))
	defer srv.Close()

	client := NewMastodon(srv.URL, "token")
	status, err := client.RescheduleStatus(context.Background(), "s1", at)

	require.NoError(t, err)
	assert.True(t, status.ScheduledAt.Equal(at))
}

func TestCancelScheduledStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/scheduled_statuses/s1", r.URL.Path)
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	client := NewMastodon(srv.URL, "token")
	assert.NoError(t, client.CancelScheduledStatus(context.Background(), "s1"))
}

func TestListScheduledStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/scheduled_statuses", r.URL.Path)
		json.NewEncoder(w).Encode([]ScheduledStatus{{ID: "s1"}, {ID: "s2"}})
	}))
	defer srv.Close()

	client := NewMastodon(srv.URL, "token")
	statuses, err := client.ListScheduledStatuses(context.Background())

	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, "s1", statuses[0].ID)
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "Validation failed"})
	}))
	defer srv.Close()

	client := NewMastodon(srv.URL, "token")
	_, err := client.ScheduleStatus(context.Background(), &StatusDraft{Text: "hi", ScheduledAt: time.Now()})

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "Validation failed")
}

func TestNewRejectsUnknownVariant(t *testing.T) {
	_, err := New("diaspora", "https://example.social", "token")
	assert.Error(t, err)

	client, err := New("", "https://example.social", "token")
	require.NoError(t, err)
	assert.IsType(t, &Mastodon{}, client)
}

func TestDetectSNS(t *testing.T) {
	tests := []struct {
		version  string
		expected SNS
	}{
		{"4.2.1", SNSMastodon},
		{"2.7.2 (compatible; Pleroma 2.5.0)", SNSPleroma},
		{"2.7.2 (compatible; Akkoma 3.9.3)", SNSPleroma},
		{"2.8.0 (compatible; Friendica 2023.05)", SNSFriendica},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/instance", r.URL.Path)
				json.NewEncoder(w).Encode(map[string]string{"version": tt.version})
			}))
			defer srv.Close()

			sns, err := DetectSNS(context.Background(), srv.URL)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sns)
		})
	}
}

func TestRegisterApp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/apps", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "fediplan", r.PostForm.Get("client_name"))
		assert.Equal(t, appScopes, r.PostForm.Get("scopes"))

		json.NewEncoder(w).Encode(AppCredentials{ClientID: "cid", ClientSecret: "secret"})
	}))
	defer srv.Close()

	creds, err := RegisterApp(context.Background(), srv.URL, "fediplan", "https://app/callback")
	require.NoError(t, err)
	assert.Equal(t, "cid", creds.ClientID)
	assert.Equal(t, "secret", creds.ClientSecret)
}

func TestRegisterAppEmptyCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(AppCredentials{})
	}))
	defer srv.Close()

	_, err := RegisterApp(context.Background(), srv.URL, "fediplan", "https://app/callback")
	assert.Error(t, err)
}
