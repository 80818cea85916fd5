package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationTokensStore struct {
	pool *pgxpool.Pool
}

func NewNotificationTokensStore(pool *pgxpool.Pool) *NotificationTokensStore {
	return &NotificationTokensStore{pool: pool}
}

func (s *NotificationTokensStore) Register(ctx context.Context, userID, token, platform string) error {
	const q = `
		INSERT INTO notification_tokens (user_id, token, platform)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, token) DO UPDATE SET platform = EXCLUDED.platform, updated_at = now()
	`
	if _, err := s.pool.Exec(ctx, q, userID, token, platform); err != nil {
		return fmt.Errorf("register notification token: %w", err)
	}
	return nil
}

func (s *NotificationTokensStore) Unregister(ctx context.Context, userID, token string) error {
	const q = `DELETE FROM notification_tokens WHERE user_id = $1 AND token = $2`
	if _, err := s.pool.Exec(ctx, q, userID, token); err != nil {
		return fmt.Errorf("unregister notification token: %w", err)
	}
	return nil
}

func (s *NotificationTokensStore) TokensForUser(ctx context.Context, userID string) ([]string, error) {
	const q = `SELECT token FROM notification_tokens WHERE user_id = $1`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("tokens for user: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tokens for user: %w", err)
	}
	return out, nil
}

// Purge removes a token from every user, used when the push provider
// reports it dead.
func (s *NotificationTokensStore) Purge(ctx context.Context, token string) error {
	const q = `DELETE FROM notification_tokens WHERE token = $1`
	if _, err := s.pool.Exec(ctx, q, token); err != nil {
		return fmt.Errorf("purge notification token: %w", err)
	}
	return nil
}
