package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ibetu/internal/auth"
	"ibetu/internal/domain"
)

type stubResetStore struct {
	tokens map[string]string // hash -> user ID
}

func (s *stubResetStore) CreateToken(ctx context.Context, tokenHash, userID, email string, expiresAt time.Time) error {
	if s.tokens == nil {
		s.tokens = map[string]string{}
	}
	s.tokens[tokenHash] = userID
	return nil
}

func (s *stubResetStore) ConsumeToken(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	userID, ok := s.tokens[tokenHash]
	if !ok {
		return "", domain.ErrResetTokenInvalid
	}
	delete(s.tokens, tokenHash)
	return userID, nil
}

type stubResetUsers struct {
	byLogin map[string]domain.UserWithPassword

	setUserID string
	setHash   string
}

func (s *stubResetUsers) GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error) {
	u, ok := s.byLogin[login]
	if !ok {
		return domain.UserWithPassword{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *stubResetUsers) SetPasswordHash(ctx context.Context, userID, passwordHash string) error {
	s.setUserID = userID
	s.setHash = passwordHash
	return nil
}

type captureEmail struct {
	to      string
	subject string
	body    string
	sent    int
}

func (c *captureEmail) Send(ctx context.Context, toEmail, subject, textBody string) error {
	c.to = toEmail
	c.subject = subject
	c.body = textBody
	c.sent++
	return nil
}

func resetSvc(store *stubResetStore, users *stubResetUsers, email *captureEmail) *PasswordResetService {
	return &PasswordResetService{
		Store:     store,
		Users:     users,
		Email:     email,
		PublicURL: "https://ibetu.example.com/",
		Now:       fixedNow,
	}
}

func TestRequestResetUnknownLogin(t *testing.T) {
	email := &captureEmail{}
	svc := resetSvc(&stubResetStore{}, &stubResetUsers{}, email)

	// Unknown accounts get the same silent success as known ones.
	if err := svc.RequestReset(context.Background(), "nobody"); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	if email.sent != 0 {
		t.Errorf("sent %d emails, want 0", email.sent)
	}
}

func TestRequestResetSendsLink(t *testing.T) {
	store := &stubResetStore{}
	users := &stubResetUsers{byLogin: map[string]domain.UserWithPassword{
		"frank": {User: domain.User{ID: "u1", Email: "frank@example.com", Username: "frank", Status: domain.UserStatusActive}},
	}}
	email := &captureEmail{}

	if err := resetSvc(store, users, email).RequestReset(context.Background(), "frank"); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	if email.sent != 1 {
		t.Fatalf("sent %d emails, want 1", email.sent)
	}
	if email.to != "frank@example.com" {
		t.Errorf("to = %q", email.to)
	}

	// The mailed link carries the raw token; the store sees only its hash.
	i := strings.Index(email.body, "reset-password?token=")
	if i < 0 {
		t.Fatalf("body missing reset link:\n%s", email.body)
	}
	raw := email.body[i+len("reset-password?token="):]
	if j := strings.IndexAny(raw, "\n "); j >= 0 {
		raw = raw[:j]
	}
	if _, ok := store.tokens[raw]; ok {
		t.Error("store holds the raw token instead of its hash")
	}
	if _, ok := store.tokens[hashOpaqueToken(raw)]; !ok {
		t.Error("store missing the token hash for the mailed token")
	}
}

func TestRequestResetDisabledAccount(t *testing.T) {
	users := &stubResetUsers{byLogin: map[string]domain.UserWithPassword{
		"gone": {User: domain.User{ID: "u2", Email: "gone@example.com", Status: domain.UserStatusDisabled}},
	}}
	email := &captureEmail{}

	if err := resetSvc(&stubResetStore{}, users, email).RequestReset(context.Background(), "gone"); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	if email.sent != 0 {
		t.Errorf("sent %d emails, want 0", email.sent)
	}
}

func TestResetPassword(t *testing.T) {
	store := &stubResetStore{}
	users := &stubResetUsers{byLogin: map[string]domain.UserWithPassword{
		"frank": {User: domain.User{ID: "u1", Email: "frank@example.com", Status: domain.UserStatusActive}},
	}}
	email := &captureEmail{}
	svc := resetSvc(store, users, email)

	if err := svc.RequestReset(context.Background(), "frank"); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	i := strings.Index(email.body, "token=")
	raw := email.body[i+len("token="):]
	if j := strings.IndexAny(raw, "\n "); j >= 0 {
		raw = raw[:j]
	}

	if err := svc.ResetPassword(context.Background(), raw, "brand-new-pass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if users.setUserID != "u1" {
		t.Errorf("setUserID = %q, want u1", users.setUserID)
	}
	ok, err := auth.VerifyPassword(users.setHash, "brand-new-pass")
	if err != nil || !ok {
		t.Errorf("stored hash does not verify new password (ok=%v err=%v)", ok, err)
	}

	// Tokens are single use.
	if err := svc.ResetPassword(context.Background(), raw, "another-pass"); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Errorf("second use err = %v, want ErrResetTokenInvalid", err)
	}
}

func TestResetPasswordShort(t *testing.T) {
	svc := resetSvc(&stubResetStore{}, &stubResetUsers{}, &captureEmail{})
	err := svc.ResetPassword(context.Background(), "whatever", "short")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestResetPasswordUnknownToken(t *testing.T) {
	svc := resetSvc(&stubResetStore{}, &stubResetUsers{}, &captureEmail{})
	err := svc.ResetPassword(context.Background(), "bogus-token", "long-enough-pass")
	if !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("err = %v, want ErrResetTokenInvalid", err)
	}
}
