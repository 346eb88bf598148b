package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	config "github.com/maheshrc27/fediplan/configs"
	"github.com/maheshrc27/fediplan/internal/models"
	"github.com/maheshrc27/fediplan/internal/repository"
	"github.com/maheshrc27/fediplan/internal/transfer"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type AuthService interface {
	LoginCallback(ctx context.Context, code string) (int64, error)
}

type authService struct {
	cfg config.Config
	u   repository.UserRepository
}

func NewAuthService(cfg config.Config, u repository.UserRepository) AuthService {
	return &authService{
		cfg: cfg,
		u:   u,
	}
}

func (s *authService) LoginCallback(ctx context.Context, code string) (int64, error) {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return 0, err
	}

	oauth2Config := &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		RedirectURL:  s.cfg.GoogleRedirectURI,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}

	if oauth2Config.ClientID == "" || oauth2Config.ClientSecret == "" || oauth2Config.RedirectURL == "" {
		err := errors.New("OAuth2 configuration is incomplete")
		slog.Info(err.Error())
		return 0, err
	}

	token, err := oauth2Config.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	client := oauth2Config.Client(ctx, token)

	userInfo, err := GetUserInfo(client)
	if err != nil {
		return 0, err
	}

	user, isExist, err := s.u.GetByEmail(ctx, userInfo.Email)
	if err != nil {
		return 0, err
	}

	if isExist && user.GoogleID != "" {
		return user.ID, nil
	}

	userID, err := s.u.Create(ctx, nil, &models.User{
		GoogleID:       userInfo.ID,
		Email:          userInfo.Email,
		Name:           userInfo.Name,
		ProfilePicture: userInfo.Picture,
	})
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return userID, nil
}

func GetUserInfo(client *http.Client) (*transfer.GoogleUserInfo, error) {
	userInfoURL := "https://www.googleapis.com/oauth2/v1/userinfo"

	response, err := client.Get(userInfoURL)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error fetching user info: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		slog.Info("Unexpected response status")
		return nil, fmt.Errorf("unexpected response status: %d", response.StatusCode)
	}

	var userInfo transfer.GoogleUserInfo
	if err := json.NewDecoder(response.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error decoding user info: %w", err)
	}

	return &userInfo, nil
}
