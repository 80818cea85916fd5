package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ibetu/internal/auth"
	"ibetu/internal/domain"
)

type stubUsersStore struct {
	users      map[string]domain.UserWithPassword
	created    []string
	createErr  error
	external   map[string]domain.User
	lastLogin  string
	externalOK bool
}

func (s *stubUsersStore) CreateUser(ctx context.Context, email, username, passwordHash string) (domain.User, error) {
	if s.createErr != nil {
		return domain.User{}, s.createErr
	}
	s.created = append(s.created, username)
	return domain.User{ID: "new", Email: email, Username: username, Status: domain.UserStatusActive}, nil
}

func (s *stubUsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u.User, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *stubUsersStore) GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error) {
	u, ok := s.users[login]
	if !ok {
		return domain.UserWithPassword{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *stubUsersStore) GetUserByExternalAccount(ctx context.Context, provider, providerID string) (domain.User, error) {
	u, ok := s.external[provider+":"+providerID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *stubUsersStore) CreateUserWithExternalAccount(ctx context.Context, email, username, provider, providerID string) (domain.User, error) {
	s.externalOK = true
	return domain.User{ID: "ext", Email: email, Username: username, Status: domain.UserStatusActive}, nil
}

func (s *stubUsersStore) SetLastLogin(ctx context.Context, userID string, when time.Time) error {
	s.lastLogin = userID
	return nil
}

type stubSessionsStore struct {
	created bool
	session domain.Session
	err     error
}

func (s *stubSessionsStore) CreateSession(ctx context.Context, userID string, expiresAt time.Time, ip, userAgent string) (string, error) {
	s.created = true
	return "sess-1", s.err
}

func (s *stubSessionsStore) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	if s.err != nil {
		return domain.Session{}, s.err
	}
	return s.session, nil
}

func (s *stubSessionsStore) RevokeSession(ctx context.Context, sessionID string, when time.Time) error {
	return nil
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name                      string
		email, username, password string
	}{
		{"short username", "a@b.com", "ab", "password123"},
		{"bad username chars", "a@b.com", "has space", "password123"},
		{"short password", "a@b.com", "goodname", "short"},
		{"bad email", "nonsense", "goodname", "password123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := &stubUsersStore{}
			svc := &AuthService{Users: users, Sessions: &stubSessionsStore{}, SessionTTL: time.Hour}
			_, _, err := svc.Register(context.Background(), tc.email, tc.username, tc.password, "", "")
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(users.created) != 0 {
				t.Fatal("user should not be created")
			}
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse")
	if err != nil {
		t.Fatal(err)
	}
	users := &stubUsersStore{users: map[string]domain.UserWithPassword{
		"alice": {User: domain.User{ID: "u1", Username: "alice", Status: domain.UserStatusActive}, PasswordHash: hash},
	}}
	sessions := &stubSessionsStore{}
	svc := &AuthService{Users: users, Sessions: sessions, SessionTTL: time.Hour}

	_, _, err = svc.Login(context.Background(), "alice", "wrong", "", "")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if sessions.created {
		t.Fatal("no session should be created")
	}
}

func TestLoginUnknownUserSameError(t *testing.T) {
	svc := &AuthService{Users: &stubUsersStore{}, Sessions: &stubSessionsStore{}, SessionTTL: time.Hour}
	_, _, err := svc.Login(context.Background(), "nobody", "whatever", "", "")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginDisabledUser(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse")
	if err != nil {
		t.Fatal(err)
	}
	users := &stubUsersStore{users: map[string]domain.UserWithPassword{
		"alice": {User: domain.User{ID: "u1", Username: "alice", Status: domain.UserStatusDisabled}, PasswordHash: hash},
	}}
	svc := &AuthService{Users: users, Sessions: &stubSessionsStore{}, SessionTTL: time.Hour}

	_, _, err = svc.Login(context.Background(), "alice", "correct-horse", "", "")
	if !errors.Is(err, domain.ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}
}

func TestExternalLoginCreatesAccountOnFirstSight(t *testing.T) {
	users := &stubUsersStore{external: map[string]domain.User{}}
	sessions := &stubSessionsStore{}
	svc := &AuthService{
		Users:      users,
		Sessions:   sessions,
		SessionTTL: time.Hour,
		Google: func(ctx context.Context, idToken string) (auth.ExternalTokenClaims, error) {
			return auth.ExternalTokenClaims{Subject: "goog-123", Email: "a@b.com"}, nil
		},
	}

	u, sessID, err := svc.ExternalLogin(context.Background(), "google", "token", "alice", "", "")
	if err != nil {
		t.Fatalf("ExternalLogin: %v", err)
	}
	if !users.externalOK {
		t.Fatal("external account should be created")
	}
	if u.Username != "alice" || sessID != "sess-1" {
		t.Fatalf("got user %q session %q", u.Username, sessID)
	}
}

func TestExternalLoginRejectsBadToken(t *testing.T) {
	svc := &AuthService{
		Users:    &stubUsersStore{},
		Sessions: &stubSessionsStore{},
		Google: func(ctx context.Context, idToken string) (auth.ExternalTokenClaims, error) {
			return auth.ExternalTokenClaims{}, errors.New("bad signature")
		},
	}
	_, _, err := svc.ExternalLogin(context.Background(), "google", "token", "alice", "", "")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestGetUserForSessionExpired(t *testing.T) {
	sessions := &stubSessionsStore{err: domain.ErrNotFound}
	svc := &AuthService{Users: &stubUsersStore{}, Sessions: sessions}
	_, err := svc.GetUserForSession(context.Background(), "sess-1")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
