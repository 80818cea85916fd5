package service

import (
	"context"

	"ibetu/internal/domain"
)

type StatsStore interface {
	AmountWon(ctx context.Context, userID string) (int64, error)
	HeadToHead(ctx context.Context, userID, opponentID string) (domain.HeadToHeadStats, error)
	Leaderboard(ctx context.Context, friendsOf string, limit int) ([]domain.LeaderboardEntry, error)
}

type StatsService struct {
	Stats    StatsStore
	Outcomes OutcomeHistoryStore
	Users    AchievementUsersStore
}

// Summary collects the user's lifetime record. Counters come straight
// off the user row; streak and winnings are derived from bet history.
func (s *StatsService) Summary(ctx context.Context, userID string) (domain.StatsSummary, error) {
	u, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		return domain.StatsSummary{}, err
	}

	out := domain.StatsSummary{
		TotalBets: u.TotalBets,
		BetsWon:   u.BetsWon,
		BetsLost:  u.BetsLost,
	}
	if u.TotalBets > 0 {
		out.WinPct = float64(u.BetsWon) / float64(u.TotalBets) * 100
	}

	recent, err := s.Outcomes.RecentOutcomes(ctx, userID, domain.StreakLookback)
	if err != nil {
		return domain.StatsSummary{}, err
	}
	out.CurrentStreak = domain.WinStreak(recent)

	out.AmountWonCents, err = s.Stats.AmountWon(ctx, userID)
	if err != nil {
		return domain.StatsSummary{}, err
	}

	return out, nil
}

func (s *StatsService) HeadToHead(ctx context.Context, userID, opponentID string) (domain.HeadToHeadStats, error) {
	if opponentID == userID {
		return domain.HeadToHeadStats{}, domain.NewValidationError(map[string]string{"opponent_id": "cannot compare against yourself"})
	}
	return s.Stats.HeadToHead(ctx, userID, opponentID)
}

func (s *StatsService) GlobalLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return s.Stats.Leaderboard(ctx, "", limit)
}

func (s *StatsService) FriendsLeaderboard(ctx context.Context, userID string, limit int) ([]domain.LeaderboardEntry, error) {
	return s.Stats.Leaderboard(ctx, userID, limit)
}
