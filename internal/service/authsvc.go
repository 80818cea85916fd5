package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"ibetu/internal/auth"
	"ibetu/internal/domain"
)

type UsersStore interface {
	CreateUser(ctx context.Context, email, username, passwordHash string) (domain.User, error)
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error)
	GetUserByExternalAccount(ctx context.Context, provider, providerID string) (domain.User, error)
	CreateUserWithExternalAccount(ctx context.Context, email, username, provider, providerID string) (domain.User, error)
	SetLastLogin(ctx context.Context, userID string, when time.Time) error
}

type SessionsStore interface {
	CreateSession(ctx context.Context, userID string, expiresAt time.Time, ip, userAgent string) (string, error)
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
	RevokeSession(ctx context.Context, sessionID string, when time.Time) error
}

// TokenVerifier checks a provider-issued ID token and returns the
// claims this app cares about.
type TokenVerifier func(ctx context.Context, idToken string) (auth.ExternalTokenClaims, error)

type AuthService struct {
	Users      UsersStore
	Sessions   SessionsStore
	SessionTTL time.Duration
	Google     TokenVerifier
	Apple      TokenVerifier
	Now        func() time.Time
}

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,24}$`)

func validateRegistration(email, username, password string) error {
	fields := map[string]string{}
	if email != "" && !strings.Contains(email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if !usernameRe.MatchString(username) {
		fields["username"] = "must be 3-24 letters, digits or underscores"
	}
	if len(password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, email, username, password, ip, userAgent string) (domain.User, string, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)
	if err := validateRegistration(email, username, password); err != nil {
		return domain.User{}, "", err
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", err
	}

	u, err := s.Users.CreateUser(ctx, email, username, passwordHash)
	if err != nil {
		return domain.User{}, "", err
	}

	sessID, err := s.Sessions.CreateSession(ctx, u.ID, s.Now().Add(s.SessionTTL), ip, userAgent)
	if err != nil {
		return domain.User{}, "", err
	}

	return u, sessID, nil
}

func (s *AuthService) Login(ctx context.Context, login, password, ip, userAgent string) (domain.User, string, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	login = strings.TrimSpace(login)

	u, err := s.Users.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, "", domain.ErrInvalidCredentials
		}
		return domain.User{}, "", err
	}
	if u.Status == domain.UserStatusDisabled {
		return domain.User{}, "", domain.ErrUserDisabled
	}

	ok, err := auth.VerifyPassword(u.PasswordHash, password)
	if err != nil {
		return domain.User{}, "", err
	}
	if !ok {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}

	sessID, err := s.Sessions.CreateSession(ctx, u.ID, s.Now().Add(s.SessionTTL), ip, userAgent)
	if err != nil {
		return domain.User{}, "", err
	}

	_ = s.Users.SetLastLogin(ctx, u.ID, s.Now())

	return u.User, sessID, nil
}

// ExternalLogin signs a user in with a Google or Apple ID token,
// creating the account on first sight of the provider subject.
func (s *AuthService) ExternalLogin(ctx context.Context, provider, idToken, username, ip, userAgent string) (domain.User, string, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	var verify TokenVerifier
	switch provider {
	case "google":
		verify = s.Google
	case "apple":
		verify = s.Apple
	default:
		return domain.User{}, "", domain.NewValidationError(map[string]string{"provider": "must be google or apple"})
	}
	if verify == nil {
		return domain.User{}, "", domain.ErrUnauthorized
	}

	claims, err := verify(ctx, idToken)
	if err != nil {
		return domain.User{}, "", domain.ErrUnauthorized
	}

	u, err := s.Users.GetUserByExternalAccount(ctx, provider, claims.Subject)
	if errors.Is(err, domain.ErrNotFound) {
		username = strings.TrimSpace(username)
		if !usernameRe.MatchString(username) {
			return domain.User{}, "", domain.NewValidationError(map[string]string{"username": "must be 3-24 letters, digits or underscores"})
		}
		u, err = s.Users.CreateUserWithExternalAccount(ctx, strings.ToLower(claims.Email), username, provider, claims.Subject)
	}
	if err != nil {
		return domain.User{}, "", err
	}
	if u.Status == domain.UserStatusDisabled {
		return domain.User{}, "", domain.ErrUserDisabled
	}

	sessID, err := s.Sessions.CreateSession(ctx, u.ID, s.Now().Add(s.SessionTTL), ip, userAgent)
	if err != nil {
		return domain.User{}, "", err
	}

	_ = s.Users.SetLastLogin(ctx, u.ID, s.Now())

	return u, sessID, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if s.Now == nil {
		s.Now = time.Now
	}

	return s.Sessions.RevokeSession(ctx, sessionID, s.Now())
}

func (s *AuthService) GetUserForSession(ctx context.Context, sessionID string) (domain.User, error) {
	sess, err := s.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}

	u, err := s.Users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}
	if u.Status == domain.UserStatusDisabled {
		return domain.User{}, domain.ErrForbidden
	}

	return u, nil
}
