package postgres

import (
	"context"
	"fmt"
	"strings"

	"ibetu/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
)

// SearchUsers finds active users whose username or display name
// contains the query, case-insensitively. The caller is excluded.
func (s *UsersStore) SearchUsers(ctx context.Context, callerID, query string, limit int) ([]domain.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	q := `
		SELECT ` + prefixedSummaryColumns("u") + `
		FROM users u
		WHERE u.status = 'active'
		  AND u.id <> $1
		  AND (u.username ILIKE '%' || $2 || '%' OR u.display_name ILIKE '%' || $2 || '%')
		ORDER BY lower(u.username) ASC
		LIMIT $3
	`

	rows, err := s.pool.Query(ctx, q, callerID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var out []domain.UserSummary
	for rows.Next() {
		var (
			u      domain.UserSummary
			idUUID pgtype.UUID
		)
		if err := rows.Scan(&idUUID, &u.Username, &u.DisplayName, &u.AvatarPath); err != nil {
			return nil, fmt.Errorf("scan user summary: %w", err)
		}
		u.ID = uuidOrEmpty(idUUID)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return out, nil
}
