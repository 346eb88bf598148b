package fediverse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const appScopes = "read write:media write:statuses"

// RegisterApp creates an OAuth application on the instance and returns its
// credentials. Every instance issues its own client id and secret.
func RegisterApp(ctx context.Context, server, clientName, redirectURI string) (*AppCredentials, error) {
	data := url.Values{}
	data.Set("client_name", clientName)
	data.Set("redirect_uris", redirectURI)
	data.Set("scopes", appScopes)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(server, "/")+"/api/v1/apps",
		strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "app registration failed"}
	}

	var creds AppCredentials
	if err := json.NewDecoder(resp.Body).Decode(&creds); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode app credentials: %w", err)
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, errors.New("instance returned empty app credentials")
	}

	return &creds, nil
}

// DetectSNS sniffs the service variant from the instance's advertised
// version string.
func DetectSNS(ctx context.Context, server string) (SNS, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimSuffix(server, "/")+"/api/v1/instance", nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "instance info unavailable"}
	}

	var info struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to decode instance info: %w", err)
	}

	version := strings.ToLower(info.Version)
	switch {
	case strings.Contains(version, "pleroma"), strings.Contains(version, "akkoma"):
		return SNSPleroma, nil
	case strings.Contains(version, "friendica"):
		return SNSFriendica, nil
	}
	return SNSMastodon, nil
}
