// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"strings"

	"ctf-flag-bot/internal/repository"
)

// ErrEmptyHandle is returned when an operation needs a handle and the
// caller has none (Telegram users may have no username at all).
var ErrEmptyHandle = errors.New("empty handle")

// NormalizeHandle strips surrounding whitespace and one leading "@".
// Every comparison and every stored handle goes through this, so
// "@alice" and "alice" always refer to the same admin.
func NormalizeHandle(handle string) string {
	return strings.TrimPrefix(strings.TrimSpace(handle), "@")
}

// AuthService decides whether a handle may perform admin-gated
// operations. Rights come from either the configured super-admin
// handle or a row in the admin allow-list.
type AuthService struct {
	adminRepo  *repository.AdminRepository
	superAdmin string
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(adminRepo *repository.AdminRepository, superAdminHandle string) *AuthService {
	return &AuthService{
		adminRepo:  adminRepo,
		superAdmin: NormalizeHandle(superAdminHandle),
	}
}

// IsAdmin reports whether the handle holds admin rights. An absent
// handle is never an admin.
func (s *AuthService) IsAdmin(ctx context.Context, handle string) (bool, error) {
	h := NormalizeHandle(handle)
	if h == "" {
		return false, nil
	}
	if s.superAdmin != "" && h == s.superAdmin {
		return true, nil
	}
	return s.adminRepo.Exists(ctx, h)
}

// GrantAdmin puts a handle on the allow-list and returns the
// normalized form that was stored.
func (s *AuthService) GrantAdmin(ctx context.Context, handle string) (string, error) {
	h := NormalizeHandle(handle)
	if h == "" {
		return "", ErrEmptyHandle
	}
	if err := s.adminRepo.Grant(ctx, h); err != nil {
		return "", err
	}
	return h, nil
}
