package service

import (
	"context"
	"strings"
	"unicode"

	"ibetu/internal/auth"
	"ibetu/internal/domain"
)

type ProfileStore interface {
	GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error)
	SetDisplayName(ctx context.Context, userID, displayName string) error
	SetUsername(ctx context.Context, userID, username string) error
	SetAvatar(ctx context.Context, userID, avatarPath string) error
	SetPasswordHash(ctx context.Context, userID, passwordHash string) error
	DeleteUser(ctx context.Context, userID string) error
}

type ProfileService struct {
	Users ProfileStore
}

func (s *ProfileService) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if len(displayName) > 48 {
		return domain.NewValidationError(map[string]string{"display_name": "must be 48 characters or less"})
	}
	for _, r := range displayName {
		if !unicode.IsPrint(r) {
			return domain.NewValidationError(map[string]string{"display_name": "contains invalid characters"})
		}
	}
	return s.Users.SetDisplayName(ctx, userID, displayName)
}

func (s *ProfileService) UpdateUsername(ctx context.Context, userID, username string) error {
	username = strings.TrimSpace(username)
	if !usernameRe.MatchString(username) {
		return domain.NewValidationError(map[string]string{"username": "must be 3-24 letters, digits or underscores"})
	}
	return s.Users.SetUsername(ctx, userID, username)
}

func (s *ProfileService) UpdateAvatar(ctx context.Context, userID, avatarPath string) error {
	avatarPath = strings.TrimSpace(avatarPath)
	if avatarPath == "" {
		return domain.NewValidationError(map[string]string{"avatar": "file is required"})
	}
	return s.Users.SetAvatar(ctx, userID, avatarPath)
}

// ChangePassword requires the current password. External-only accounts
// have an empty hash and cannot change a password they never set.
func (s *ProfileService) ChangePassword(ctx context.Context, user domain.User, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return domain.NewValidationError(map[string]string{"new_password": "must be at least 8 characters"})
	}

	u, err := s.Users.GetUserByLogin(ctx, user.Username)
	if err != nil {
		return err
	}
	if u.PasswordHash == "" {
		return domain.ErrInvalidCredentials
	}
	ok, err := auth.VerifyPassword(u.PasswordHash, currentPassword)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Users.SetPasswordHash(ctx, user.ID, hash)
}

func (s *ProfileService) DeleteAccount(ctx context.Context, userID string) error {
	return s.Users.DeleteUser(ctx, userID)
}
