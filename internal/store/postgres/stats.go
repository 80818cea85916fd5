package postgres

import (
	"context"
	"errors"
	"fmt"

	"ibetu/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsStore struct {
	pool *pgxpool.Pool
}

func NewStatsStore(pool *pgxpool.Pool) *StatsStore {
	return &StatsStore{pool: pool}
}

// AmountWon returns the user's net winnings over completed bets, in
// cents. Won stakes count positive, lost stakes negative.
func (s *StatsStore) AmountWon(ctx context.Context, userID string) (int64, error) {
	const q = `
		SELECT COALESCE(SUM(CASE WHEN winner_id = $1 THEN amount_cents ELSE -amount_cents END), 0)
		FROM bets
		WHERE status = 'completed' AND (creator_id = $1 OR opponent_id = $1)
	`
	var cents int64
	if err := s.pool.QueryRow(ctx, q, userID).Scan(&cents); err != nil {
		return 0, fmt.Errorf("amount won: %w", err)
	}
	return cents, nil
}

func (s *StatsStore) HeadToHead(ctx context.Context, userID, opponentID string) (domain.HeadToHeadStats, error) {
	q := `
		SELECT ` + prefixedSummaryColumns("u") + `,
		       COUNT(b.id)::int,
		       COUNT(b.id) FILTER (WHERE b.winner_id = $1)::int,
		       COUNT(b.id) FILTER (WHERE b.winner_id = $2)::int
		FROM users u
		LEFT JOIN bets b
		  ON b.status = 'completed'
		 AND ((b.creator_id = $1 AND b.opponent_id = $2) OR (b.creator_id = $2 AND b.opponent_id = $1))
		WHERE u.id = $2
		GROUP BY u.id
	`

	var (
		h      domain.HeadToHeadStats
		idUUID pgtype.UUID
	)
	err := s.pool.QueryRow(ctx, q, userID, opponentID).Scan(
		&idUUID,
		&h.Opponent.Username,
		&h.Opponent.DisplayName,
		&h.Opponent.AvatarPath,
		&h.Total,
		&h.Wins,
		&h.Losses,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.HeadToHeadStats{}, domain.ErrNotFound
		}
		return domain.HeadToHeadStats{}, fmt.Errorf("head to head: %w", err)
	}
	h.Opponent.ID = uuidOrEmpty(idUUID)
	return h, nil
}

// Leaderboard ranks users by win percentage, breaking ties on wins.
// Users with no completed bets are left out. When friendsOf is set the
// board is restricted to that user's accepted friends plus the user.
func (s *StatsStore) Leaderboard(ctx context.Context, friendsOf string, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	q := `
		SELECT ` + prefixedSummaryColumns("u") + `,
		       u.total_bets, u.bets_won
		FROM users u
		WHERE u.status = 'active' AND u.total_bets > 0
	`
	args := []any{}
	if friendsOf != "" {
		q += `
		  AND (u.id = $1::uuid OR EXISTS (
			SELECT 1 FROM friendships f
			WHERE f.status = 'accepted'
			  AND least(f.requester_id, f.addressee_id) = least($1::uuid, u.id)
			  AND greatest(f.requester_id, f.addressee_id) = greatest($1::uuid, u.id)
		  ))
		`
		args = append(args, friendsOf)
	}
	q += fmt.Sprintf(`
		ORDER BY (u.bets_won::float / u.total_bets) DESC, u.bets_won DESC, u.username ASC
		LIMIT %d`, limit)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var out []domain.LeaderboardEntry
	for rows.Next() {
		var (
			e      domain.LeaderboardEntry
			idUUID pgtype.UUID
		)
		err := rows.Scan(
			&idUUID,
			&e.User.Username,
			&e.User.DisplayName,
			&e.User.AvatarPath,
			&e.TotalBets,
			&e.BetsWon,
		)
		if err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		e.User.ID = uuidOrEmpty(idUUID)
		if e.TotalBets > 0 {
			e.WinPct = float64(e.BetsWon) / float64(e.TotalBets) * 100
		}
		e.Rank = len(out) + 1
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return out, nil
}

func prefixedSummaryColumns(alias string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.username, %[1]s.display_name, %[1]s.avatar_path`, alias)
}
