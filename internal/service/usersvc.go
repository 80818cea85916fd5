package service

import (
	"context"
	"strings"

	"ibetu/internal/domain"
)

type UserSearchStore interface {
	SearchUsers(ctx context.Context, callerID, query string, limit int) ([]domain.UserSummary, error)
}

type UsersService struct {
	Users UserSearchStore
}

func (s *UsersService) Search(ctx context.Context, callerID, q string, limit int) ([]domain.UserSummary, error) {
	q = strings.TrimSpace(q)
	if len(q) < 3 {
		return nil, domain.NewValidationError(map[string]string{"q": "must be at least 3 characters"})
	}
	return s.Users.SearchUsers(ctx, callerID, q, limit)
}
