package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ibetu/internal/auth"
	"ibetu/internal/domain"
)

type PasswordResetStore interface {
	CreateToken(ctx context.Context, tokenHash, userID, email string, expiresAt time.Time) error
	ConsumeToken(ctx context.Context, tokenHash string, now time.Time) (string, error)
}

type ResetUsersStore interface {
	GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error)
	SetPasswordHash(ctx context.Context, userID, passwordHash string) error
}

type PasswordResetService struct {
	Store     PasswordResetStore
	Users     ResetUsersStore
	Email     EmailSender
	PublicURL string
	TokenTTL  time.Duration
	Logger    *slog.Logger
	Now       func() time.Time
}

// RequestReset mails a reset link to the account behind the login, if
// one exists. The response is identical either way so the endpoint
// cannot be used to probe for accounts.
func (s *PasswordResetService) RequestReset(ctx context.Context, login string) error {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.TokenTTL == 0 {
		s.TokenTTL = 2 * time.Hour
	}

	login = strings.TrimSpace(login)
	if login == "" {
		return domain.NewValidationError(map[string]string{"login": "required"})
	}

	u, err := s.Users.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if u.Email == "" || u.Status == domain.UserStatusDisabled {
		return nil
	}

	raw, hash, err := newOpaqueToken()
	if err != nil {
		return err
	}
	if err := s.Store.CreateToken(ctx, hash, u.ID, u.Email, s.Now().Add(s.TokenTTL)); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.PublicURL, "/"), raw)
	body := strings.Join([]string{
		"You requested a password reset for your IBetU account.",
		"",
		"Reset your password using this link:",
		resetURL,
		"",
		"If you did not request this, you can ignore this email.",
	}, "\n")

	if s.Email == nil {
		return fmt.Errorf("email not configured")
	}
	if err := s.Email.Send(ctx, u.Email, "Reset your IBetU password", body); err != nil {
		s.log().Error("password reset email failed", "user_id", u.ID, "error", err)
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

func (s *PasswordResetService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if s.Now == nil {
		s.Now = time.Now
	}

	if len(newPassword) < 8 {
		return domain.NewValidationError(map[string]string{"password": "must be at least 8 characters"})
	}

	userID, err := s.Store.ConsumeToken(ctx, hashOpaqueToken(strings.TrimSpace(rawToken)), s.Now())
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Users.SetPasswordHash(ctx, userID, hash)
}

func (s *PasswordResetService) log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
