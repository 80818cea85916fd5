package domain

import "time"

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

type User struct {
	ID          string
	Email       string
	Username    string
	DisplayName string
	AvatarPath  string
	Status      UserStatus

	// Mock wallet balance in cents. There is no payment processor behind
	// it; deposits, withdrawals and stake transfers only move this number.
	WalletBalanceCents int64

	// Cumulative counters maintained by bet resolution. Only completed
	// bets increment them, so TotalBets == BetsWon + BetsLost.
	TotalBets int
	BetsWon   int
	BetsLost  int

	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time
}

type UserWithPassword struct {
	User
	PasswordHash string
}

type UserSummary struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarPath  string `json:"avatar_path,omitempty"`
}

type ExternalAccount struct {
	ID         string
	UserID     string
	Provider   string
	ProviderID string
	Email      string
	CreatedAt  time.Time
}

type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

type PasswordResetToken struct {
	UserID      string
	TokenHash   string
	SentToEmail string
	CreatedBy   string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	UsedAt      *time.Time
}

type NotificationToken struct {
	UserID    string
	Token     string
	Platform  string
	UpdatedAt time.Time
}

type StatsSummary struct {
	TotalBets      int     `json:"total_bets"`
	BetsWon        int     `json:"bets_won"`
	BetsLost       int     `json:"bets_lost"`
	WinPct         float64 `json:"win_pct,omitempty"`
	CurrentStreak  int     `json:"current_streak"`
	AmountWonCents int64   `json:"amount_won_cents"`
}

type HeadToHeadStats struct {
	Opponent UserSummary `json:"opponent"`
	Total    int         `json:"total"`
	Wins     int         `json:"wins"`
	Losses   int         `json:"losses"`
}

type LeaderboardEntry struct {
	User      UserSummary `json:"user"`
	TotalBets int         `json:"total_bets"`
	BetsWon   int         `json:"bets_won"`
	WinPct    float64     `json:"win_pct"`
	Rank      int         `json:"rank"`
}
