package service

import (
	"context"
	"errors"
	"fmt"

	"ctf-flag-bot/internal/model"
	"ctf-flag-bot/internal/repository"
)

// AccountService handles user account operations. Accounts are
// created lazily: the first interaction upserts a zero-point user.
type AccountService struct {
	userRepo *repository.UserRepository
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(userRepo *repository.UserRepository) *AccountService {
	return &AccountService{userRepo: userRepo}
}

// EnsureUser creates the user on first sight or refreshes the stored
// display handle on later interactions.
func (s *AccountService) EnsureUser(ctx context.Context, telegramID int64, handle string) (*model.User, error) {
	user, err := s.userRepo.Upsert(ctx, telegramID, NormalizeHandle(handle))
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	return user, nil
}

// GetPoints returns a user's point total. Users the bot has never
// seen simply have zero points.
func (s *AccountService) GetPoints(ctx context.Context, telegramID int64) (int64, error) {
	user, err := s.userRepo.GetByID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get points: %w", err)
	}
	return user.Points, nil
}
