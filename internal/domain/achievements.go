package domain

import "time"

type AchievementCategory string

const (
	CategoryMilestone AchievementCategory = "milestone"
	CategoryStreak    AchievementCategory = "streak"
	CategorySocial    AchievementCategory = "social"
	CategorySpecial   AchievementCategory = "special"
)

type AchievementRarity string

const (
	RarityCommon    AchievementRarity = "common"
	RarityUncommon  AchievementRarity = "uncommon"
	RarityRare      AchievementRarity = "rare"
	RarityEpic      AchievementRarity = "epic"
	RarityLegendary AchievementRarity = "legendary"
)

type Achievement struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Icon        string              `json:"icon"`
	Category    AchievementCategory `json:"category"`
	Rarity      AchievementRarity   `json:"rarity"`
}

type AchievementUnlock struct {
	AchievementID string    `json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}

// Achievements is the full badge catalog. It is defined in code, shared by
// server and clients, and immutable at runtime.
var Achievements = []Achievement{
	{ID: "first_bet", Name: "First Blood", Description: "Complete your first bet", Icon: "🎲", Category: CategoryMilestone, Rarity: RarityCommon},
	{ID: "bets_25", Name: "Regular", Description: "Complete 25 bets", Icon: "🎯", Category: CategoryMilestone, Rarity: RarityUncommon},
	{ID: "bets_75", Name: "Seasoned Bettor", Description: "Complete 75 bets", Icon: "🃏", Category: CategoryMilestone, Rarity: RarityRare},
	{ID: "bets_150", Name: "Bet Machine", Description: "Complete 150 bets", Icon: "⚙️", Category: CategoryMilestone, Rarity: RarityEpic},
	{ID: "wins_5", Name: "High Five", Description: "Win 5 bets", Icon: "✋", Category: CategoryMilestone, Rarity: RarityCommon},
	{ID: "wins_10", Name: "Double Digits", Description: "Win 10 bets", Icon: "🔟", Category: CategoryMilestone, Rarity: RarityUncommon},
	{ID: "wins_25", Name: "Quarter Century", Description: "Win 25 bets", Icon: "🏅", Category: CategoryMilestone, Rarity: RarityRare},
	{ID: "wins_50", Name: "Half Century", Description: "Win 50 bets", Icon: "🏆", Category: CategoryMilestone, Rarity: RarityEpic},
	{ID: "wins_100", Name: "Centurion", Description: "Win 100 bets", Icon: "👑", Category: CategoryMilestone, Rarity: RarityLegendary},
	{ID: "first_friend_bet", Name: "Friendly Wager", Description: "Bet with a friend", Icon: "🤝", Category: CategorySocial, Rarity: RarityCommon},
	{ID: "win_streak_3", Name: "Hat Trick", Description: "Win 3 bets in a row", Icon: "🔥", Category: CategoryStreak, Rarity: RarityUncommon},
	{ID: "win_streak_5", Name: "Unstoppable", Description: "Win 5 bets in a row", Icon: "⚡", Category: CategoryStreak, Rarity: RarityRare},
	{ID: "win_streak_10", Name: "Untouchable", Description: "Win 10 bets in a row", Icon: "💫", Category: CategoryStreak, Rarity: RarityLegendary},
	{ID: "comeback_king", Name: "Comeback King", Description: "Win after three straight losses", Icon: "🔄", Category: CategorySpecial, Rarity: RarityRare},
	{ID: "social_butterfly", Name: "Social Butterfly", Description: "Bet against 5 different friends", Icon: "🦋", Category: CategorySocial, Rarity: RarityUncommon},
	{ID: "high_roller", Name: "High Roller", Description: "Win a bet of $100 or more", Icon: "💰", Category: CategorySpecial, Rarity: RarityRare},
	{ID: "perfect_month", Name: "Perfect Month", Description: "Win every bet in a month (5 or more)", Icon: "📅", Category: CategorySpecial, Rarity: RarityEpic},
}

// AchievementsByID keys the catalog for lookup. Built once at process
// start; treat as read-only configuration.
var AchievementsByID = func() map[string]Achievement {
	m := make(map[string]Achievement, len(Achievements))
	for _, a := range Achievements {
		m[a.ID] = a
	}
	return m
}()

const (
	HighRollerThresholdCents = 100_00
	PerfectMonthMinBets      = 5
	SocialBreadthThreshold   = 5
	StreakLookback           = 10
)

var (
	TotalBetThresholds = map[string]int{
		"first_bet": 1,
		"bets_25":   25,
		"bets_75":   75,
		"bets_150":  150,
	}
	WinThresholds = map[string]int{
		"wins_5":   5,
		"wins_10":  10,
		"wins_25":  25,
		"wins_50":  50,
		"wins_100": 100,
	}
	StreakThresholds = map[string]int{
		"win_streak_3":  3,
		"win_streak_5":  5,
		"win_streak_10": 10,
	}
)

// WinStreak counts consecutive wins from the start of outcomes (most
// recent first), stopping at the first non-win.
func WinStreak(outcomes []BetOutcome) int {
	streak := 0
	for _, o := range outcomes {
		if o != OutcomeWin {
			break
		}
		streak++
	}
	return streak
}

// IsComeback reports whether the four most recent completed outcomes (most
// recent first) are exactly a win preceded by three losses.
func IsComeback(outcomes []BetOutcome) bool {
	if len(outcomes) < 4 {
		return false
	}
	if outcomes[0] != OutcomeWin {
		return false
	}
	for _, o := range outcomes[1:4] {
		if o != OutcomeLoss {
			return false
		}
	}
	return true
}
