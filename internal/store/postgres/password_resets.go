package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ibetu/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PasswordResetsStore struct {
	pool *pgxpool.Pool
}

func NewPasswordResetsStore(pool *pgxpool.Pool) *PasswordResetsStore {
	return &PasswordResetsStore{pool: pool}
}

// CreateToken stores the hash of a reset token. Only the hash ever
// touches the database; the plaintext goes out by email and is gone.
func (s *PasswordResetsStore) CreateToken(ctx context.Context, tokenHash, userID, email string, expiresAt time.Time) error {
	const q = `
		INSERT INTO password_reset_tokens (token_hash, user_id, sent_to_email, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.pool.Exec(ctx, q, tokenHash, userID, email, expiresAt); err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}
	return nil
}

// ConsumeToken marks the token used and returns the owning user ID.
// Unknown or already-used tokens report ErrResetTokenInvalid, expired
// ones ErrResetTokenExpired.
func (s *PasswordResetsStore) ConsumeToken(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	const q = `
		UPDATE password_reset_tokens
		SET used_at = $2
		WHERE token_hash = $1 AND used_at IS NULL
		RETURNING user_id, expires_at
	`
	var (
		userUUID  pgtype.UUID
		expiresAt time.Time
	)
	err := s.pool.QueryRow(ctx, q, tokenHash, now).Scan(&userUUID, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrResetTokenInvalid
		}
		return "", fmt.Errorf("consume reset token: %w", err)
	}
	if now.After(expiresAt) {
		return "", domain.ErrResetTokenExpired
	}
	return uuidOrEmpty(userUUID), nil
}
