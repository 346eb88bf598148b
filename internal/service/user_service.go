package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/fediplan/internal/models"
	"github.com/maheshrc27/fediplan/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
	RemoveUser(ctx context.Context, userID int64) error
}

type userService struct {
	u        repository.UserRepository
	accounts repository.FediAccountRepository
	compose  ComposeService
}

func NewUserService(u repository.UserRepository, accounts repository.FediAccountRepository, compose ComposeService) UserService {
	return &userService{
		u:        u,
		accounts: accounts,
		compose:  compose,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*models.User, error) {
	user, isExist, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Error getting user info")
	}

	if !isExist {
		err = errors.New("User not found")
		slog.Info(err.Error())
		return nil, fmt.Errorf("User doesn't exist")
	}

	return user, nil
}

// RemoveUser disconnects all fediverse accounts and drops any open compose
// sessions before removing the user row itself.
func (s *userService) RemoveUser(ctx context.Context, userID int64) error {
	accounts, err := s.accounts.ListByUserID(ctx, userID)
	if err != nil {
		return err
	}

	for _, account := range accounts {
		if err := s.accounts.Remove(ctx, account.ID); err != nil {
			slog.Info(err.Error())
			return err
		}
	}

	s.compose.ExpireUserSessions(userID)

	return s.u.Remove(ctx, userID)
}
