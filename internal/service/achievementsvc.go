package service

import (
	"context"
	"time"

	"ibetu/internal/domain"
)

type AchievementUnlocksStore interface {
	TryAward(ctx context.Context, userID, achievementID string, when time.Time) (bool, error)
	ListUnlocks(ctx context.Context, userID string) ([]domain.AchievementUnlock, error)
}

// OutcomeHistoryStore answers the questions the achievement rules ask
// about a user's completed bets.
type OutcomeHistoryStore interface {
	RecentOutcomes(ctx context.Context, userID string, limit int) ([]domain.BetOutcome, error)
	CountDistinctOpponents(ctx context.Context, userID string) (int, error)
	MonthRecord(ctx context.Context, userID string, start, end time.Time) (total, wins int, err error)
}

type AchievementUsersStore interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
}

type AchievementService struct {
	Unlocks  AchievementUnlocksStore
	Outcomes OutcomeHistoryStore
	Users    AchievementUsersStore
	Now      func() time.Time
}

// AchievementStatus is a catalog entry together with the user's
// progress on it.
type AchievementStatus struct {
	domain.Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// Overview returns the whole catalog in definition order, marking what
// the user has unlocked.
func (s *AchievementService) Overview(ctx context.Context, userID string) ([]AchievementStatus, error) {
	unlocks, err := s.Unlocks.ListUnlocks(ctx, userID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]time.Time, len(unlocks))
	for _, u := range unlocks {
		byID[u.AchievementID] = u.UnlockedAt
	}

	out := make([]AchievementStatus, 0, len(domain.Achievements))
	for _, a := range domain.Achievements {
		st := AchievementStatus{Achievement: a}
		if at, ok := byID[a.ID]; ok {
			st.Unlocked = true
			st.UnlockedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

// EvaluateAfterResolution runs every achievement rule for the user
// against their post-settlement record and awards what newly applies.
// Awards are idempotent, so re-evaluating after a crash or a concurrent
// settlement grants nothing twice.
func (s *AchievementService) EvaluateAfterResolution(ctx context.Context, userID string, in ResolutionFacts) ([]domain.Achievement, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	earned, err := s.earnedIDs(ctx, userID, in)
	if err != nil {
		return nil, err
	}

	when := in.ResolvedAt
	if when.IsZero() {
		when = s.Now()
	}

	// Award in catalog order so multi-unlock batches read sensibly.
	var unlocked []domain.Achievement
	for _, a := range domain.Achievements {
		if !earned[a.ID] {
			continue
		}
		fresh, err := s.Unlocks.TryAward(ctx, userID, a.ID, when)
		if err != nil {
			return unlocked, err
		}
		if fresh {
			unlocked = append(unlocked, a)
		}
	}
	return unlocked, nil
}

// Recheck runs the milestone and social rules outside of settlement,
// catching up users whose record predates a rule. Streak and special
// rules stay settlement-only since they need resolution context.
func (s *AchievementService) Recheck(ctx context.Context, userID string) ([]domain.Achievement, error) {
	return s.EvaluateAfterResolution(ctx, userID, ResolutionFacts{})
}

func (s *AchievementService) earnedIDs(ctx context.Context, userID string, in ResolutionFacts) (map[string]bool, error) {
	u, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	earned := map[string]bool{}
	for id, n := range domain.TotalBetThresholds {
		if u.TotalBets >= n {
			earned[id] = true
		}
	}
	for id, n := range domain.WinThresholds {
		if u.BetsWon >= n {
			earned[id] = true
		}
	}

	// Every bet is against a friend, so one completed bet is enough.
	if u.TotalBets >= 1 {
		earned["first_friend_bet"] = true
	}

	opponents, err := s.Outcomes.CountDistinctOpponents(ctx, userID)
	if err != nil {
		return nil, err
	}
	if opponents >= domain.SocialBreadthThreshold {
		earned["social_butterfly"] = true
	}

	// The remaining rules can only fire on a win, and only for the
	// settlement that just happened.
	if !in.JustWon {
		return earned, nil
	}

	if in.AmountCents >= domain.HighRollerThresholdCents {
		earned["high_roller"] = true
	}

	recent, err := s.Outcomes.RecentOutcomes(ctx, userID, domain.StreakLookback)
	if err != nil {
		return nil, err
	}
	streak := domain.WinStreak(recent)
	for id, n := range domain.StreakThresholds {
		if streak >= n {
			earned[id] = true
		}
	}
	if domain.IsComeback(recent) {
		earned["comeback_king"] = true
	}

	resolvedAt := in.ResolvedAt
	if resolvedAt.IsZero() {
		resolvedAt = s.Now()
	}
	start, end := monthBounds(resolvedAt.UTC())
	total, wins, err := s.Outcomes.MonthRecord(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	if total >= domain.PerfectMonthMinBets && wins == total {
		earned["perfect_month"] = true
	}

	return earned, nil
}

// monthBounds returns the half-open UTC calendar month containing t.
func monthBounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
