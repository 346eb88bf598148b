package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	config "github.com/maheshrc27/fediplan/configs"
	"github.com/maheshrc27/fediplan/internal/fediverse"
	"github.com/maheshrc27/fediplan/internal/models"
	"github.com/maheshrc27/fediplan/internal/repository"
	"github.com/maheshrc27/fediplan/internal/transfer"
	"github.com/maheshrc27/fediplan/pkg/utils"
	"golang.org/x/oauth2"
)

type AccountService interface {
	AuthURL(ctx context.Context, userID int64, server string) (string, error)
	Callback(ctx context.Context, code, state string) error
	ClientFor(ctx context.Context, userID, accountID int64) (fediverse.Client, error)
	Account(ctx context.Context, userID, accountID int64) (*models.FediAccount, error)
	List(ctx context.Context, userID int64) ([]*models.FediAccount, error)
	Delete(ctx context.Context, userID, accountID int64) error
}

type accountService struct {
	cfg config.Config
	ar  repository.FediAccountRepository
}

func NewAccountService(cfg config.Config, ar repository.FediAccountRepository) AccountService {
	return &accountService{
		cfg: cfg,
		ar:  ar,
	}
}

// AuthURL registers an OAuth app on the instance and returns its authorize
// URL. The issued app credentials travel in the signed state token, so the
// callback can finish the exchange without any pending-row bookkeeping.
func (s *accountService) AuthURL(ctx context.Context, userID int64, server string) (string, error) {
	server = normalizeServer(server)
	if server == "" {
		err := errors.New("server is empty")
		slog.Info(err.Error())
		return "", err
	}

	sns, err := fediverse.DetectSNS(ctx, server)
	if err != nil {
		return "", fmt.Errorf("unable to reach instance: %w", err)
	}

	creds, err := fediverse.RegisterApp(ctx, server, "fediplan", s.redirectURI())
	if err != nil {
		return "", err
	}

	encryptedSecret, err := utils.Encrypt([]byte(creds.ClientSecret), []byte(s.cfg.SecretKey))
	if err != nil {
		return "", err
	}

	state, err := utils.GenerateConnectToken(s.cfg.SecretKey, &transfer.ConnectClaims{
		UserID:       fmt.Sprintf("%d", userID),
		Server:       server,
		SNS:          string(sns),
		ClientID:     creds.ClientID,
		ClientSecret: encryptedSecret,
	})
	if err != nil {
		return "", err
	}

	return s.oauthConfig(server, creds.ClientID, "").AuthCodeURL(state), nil
}

func (s *accountService) Callback(ctx context.Context, code, state string) error {
	if code == "" || state == "" {
		err := errors.New("code or state is empty")
		slog.Info(err.Error())
		return err
	}

	claims, err := utils.ValidateConnectToken(s.cfg.SecretKey, state)
	if err != nil {
		return err
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	clientSecret, err := utils.Decrypt(claims.ClientSecret, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	token, err := s.oauthConfig(claims.Server, claims.ClientID, clientSecret).Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	client, err := fediverse.New(fediverse.SNS(claims.SNS), claims.Server, token.AccessToken)
	if err != nil {
		return err
	}

	remoteAccount, err := client.VerifyCredentials(ctx)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	account := &models.FediAccount{
		UserID:       userID,
		SNS:          claims.SNS,
		Server:       claims.Server,
		RemoteID:     remoteAccount.ID,
		Username:     remoteAccount.Username,
		DisplayName:  remoteAccount.DisplayName,
		AvatarURL:    remoteAccount.Avatar,
		ClientID:     claims.ClientID,
		ClientSecret: claims.ClientSecret,
		AccessToken:  encryptedAccessToken,
	}

	if _, err := s.ar.Create(ctx, nil, account); err != nil {
		return err
	}

	return nil
}

// ClientFor builds the variant client for one of the user's accounts. The
// core never reads credentials from ambient state; everything a client
// needs is resolved here and passed in explicitly.
func (s *accountService) ClientFor(ctx context.Context, userID, accountID int64) (fediverse.Client, error) {
	account, err := s.Account(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	accessToken, err := utils.Decrypt(account.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	return fediverse.New(fediverse.SNS(account.SNS), account.Server, accessToken)
}

func (s *accountService) Account(ctx context.Context, userID, accountID int64) (*models.FediAccount, error) {
	account, err := s.ar.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.UserID != userID {
		err = errors.New("account doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}
	return account, nil
}

func (s *accountService) List(ctx context.Context, userID int64) ([]*models.FediAccount, error) {
	accounts, err := s.ar.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Error getting accounts")
	}
	return accounts, nil
}

func (s *accountService) Delete(ctx context.Context, userID, accountID int64) error {
	isValid, err := s.ar.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("account doesn't exist")
		slog.Info(err.Error())
		return err
	}

	return s.ar.Remove(ctx, accountID)
}

func (s *accountService) oauthConfig(server, clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  s.redirectURI(),
		Scopes:       []string{"read", "write:media", "write:statuses"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  server + "/oauth/authorize",
			TokenURL: server + "/oauth/token",
		},
	}
}

func (s *accountService) redirectURI() string {
	return s.cfg.BaseURL + "/auth/fediverse/callback"
}

func normalizeServer(server string) string {
	server = strings.TrimSpace(server)
	if server == "" {
		return ""
	}
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		server = "https://" + server
	}
	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
