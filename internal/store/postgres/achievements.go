package postgres

import (
	"context"
	"fmt"
	"time"

	"ibetu/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AchievementsStore struct {
	pool *pgxpool.Pool
}

func NewAchievementsStore(pool *pgxpool.Pool) *AchievementsStore {
	return &AchievementsStore{pool: pool}
}

// TryAward grants an achievement to the user, reporting whether the
// grant was new. The unique key on (user_id, achievement_id) makes the
// call idempotent under concurrent evaluations.
func (s *AchievementsStore) TryAward(ctx context.Context, userID, achievementID string, when time.Time) (bool, error) {
	const q = `
		INSERT INTO achievement_unlocks (user_id, achievement_id, unlocked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`
	tag, err := s.pool.Exec(ctx, q, userID, achievementID, when)
	if err != nil {
		return false, fmt.Errorf("award achievement: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *AchievementsStore) ListUnlocks(ctx context.Context, userID string) ([]domain.AchievementUnlock, error) {
	const q = `
		SELECT achievement_id, unlocked_at
		FROM achievement_unlocks
		WHERE user_id = $1
		ORDER BY unlocked_at ASC
	`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list unlocks: %w", err)
	}
	defer rows.Close()

	var out []domain.AchievementUnlock
	for rows.Next() {
		var u domain.AchievementUnlock
		if err := rows.Scan(&u.AchievementID, &u.UnlockedAt); err != nil {
			return nil, fmt.Errorf("scan unlock: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list unlocks: %w", err)
	}
	return out, nil
}
