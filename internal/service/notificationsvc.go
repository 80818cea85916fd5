package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ibetu/internal/domain"
	"ibetu/internal/notifications"
)

type NotificationTokensStore interface {
	Register(ctx context.Context, userID, token, platform string) error
	Unregister(ctx context.Context, userID, token string) error
	TokensForUser(ctx context.Context, userID string) ([]string, error)
	Purge(ctx context.Context, token string) error
}

type PushSender interface {
	Send(ctx context.Context, token string, data map[string]string) error
}

type EmailSender interface {
	Send(ctx context.Context, toEmail, subject, textBody string) error
}

// NotificationService fans bet and friend events out over push and
// email. Every delivery is best effort; failures are logged and the
// triggering operation never sees them.
type NotificationService struct {
	Tokens NotificationTokensStore
	Users  AchievementUsersStore
	Push   PushSender
	Email  EmailSender
	Logger *slog.Logger
}

func (s *NotificationService) RegisterToken(ctx context.Context, userID, token, platform string) error {
	token = strings.TrimSpace(token)
	platform = strings.TrimSpace(strings.ToLower(platform))
	if token == "" {
		return domain.NewValidationError(map[string]string{"token": "required"})
	}
	switch platform {
	case "android", "ios":
	default:
		return domain.NewValidationError(map[string]string{"platform": "must be ios or android"})
	}
	return s.Tokens.Register(ctx, userID, token, platform)
}

func (s *NotificationService) DeleteToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.NewValidationError(map[string]string{"token": "required"})
	}
	return s.Tokens.Unregister(ctx, userID, token)
}

func (s *NotificationService) NotifyFriendRequest(ctx context.Context, requesterID, addresseeID string) {
	requester, err := s.Users.GetUserByID(ctx, requesterID)
	if err != nil {
		s.log().Warn("friend request notification skipped", "error", err)
		return
	}
	s.deliver(ctx, addresseeID, map[string]string{
		"type":  "friend_request",
		"title": "New friend request",
		"body":  fmt.Sprintf("%s wants to be your friend", displayName(requester)),
	}, "")
}

func (s *NotificationService) NotifyBetInvite(ctx context.Context, bet domain.Bet) {
	creator, err := s.Users.GetUserByID(ctx, bet.CreatorID)
	if err != nil {
		s.log().Warn("bet invite notification skipped", "bet_id", bet.ID, "error", err)
		return
	}
	body := fmt.Sprintf("%s challenged you: %q for %s", displayName(creator), bet.Title, formatCents(bet.AmountCents))
	s.deliver(ctx, bet.OpponentID, map[string]string{
		"type":   "bet_invite",
		"bet_id": bet.ID,
		"title":  "New bet challenge",
		"body":   body,
	}, body+"\n\nOpen IBetU to accept or decline.")
}

func (s *NotificationService) NotifyBetAccepted(ctx context.Context, bet domain.Bet) {
	opponent, err := s.Users.GetUserByID(ctx, bet.OpponentID)
	if err != nil {
		s.log().Warn("bet accepted notification skipped", "bet_id", bet.ID, "error", err)
		return
	}
	body := fmt.Sprintf("%s accepted your bet %q. It's on!", displayName(opponent), bet.Title)
	s.deliver(ctx, bet.CreatorID, map[string]string{
		"type":   "bet_accepted",
		"bet_id": bet.ID,
		"title":  "Bet accepted",
		"body":   body,
	}, body)
}

func (s *NotificationService) NotifyBetDeclined(ctx context.Context, bet domain.Bet) {
	opponent, err := s.Users.GetUserByID(ctx, bet.OpponentID)
	if err != nil {
		s.log().Warn("bet declined notification skipped", "bet_id", bet.ID, "error", err)
		return
	}
	body := fmt.Sprintf("%s declined your bet %q", displayName(opponent), bet.Title)
	s.deliver(ctx, bet.CreatorID, map[string]string{
		"type":   "bet_declined",
		"bet_id": bet.ID,
		"title":  "Bet declined",
		"body":   body,
	}, "")
}

func (s *NotificationService) NotifyResultProposed(ctx context.Context, bet domain.Bet, proposerID string) {
	proposer, err := s.Users.GetUserByID(ctx, proposerID)
	if err != nil {
		s.log().Warn("result proposed notification skipped", "bet_id", bet.ID, "error", err)
		return
	}
	other := bet.Opponent(proposerID)
	body := fmt.Sprintf("%s says the bet %q is settled. Confirm the winner.", displayName(proposer), bet.Title)
	s.deliver(ctx, other, map[string]string{
		"type":   "result_proposed",
		"bet_id": bet.ID,
		"title":  "Confirm bet result",
		"body":   body,
	}, body+"\n\nOpen IBetU to confirm or dispute the result.")
}

func (s *NotificationService) NotifyBetResolved(ctx context.Context, bet domain.Bet) {
	winner, err := s.Users.GetUserByID(ctx, bet.WinnerID)
	if err != nil {
		s.log().Warn("bet resolved notification skipped", "bet_id", bet.ID, "error", err)
		return
	}
	body := fmt.Sprintf("%s won %q for %s", displayName(winner), bet.Title, formatCents(bet.AmountCents))
	for _, userID := range []string{bet.CreatorID, bet.OpponentID} {
		s.deliver(ctx, userID, map[string]string{
			"type":   "bet_resolved",
			"bet_id": bet.ID,
			"title":  "Bet settled",
			"body":   body,
		}, "")
	}
}

func (s *NotificationService) NotifyBetDisputed(ctx context.Context, bet domain.Bet) {
	body := fmt.Sprintf("You and your opponent disagree on who won %q. The bet is now disputed.", bet.Title)
	for _, userID := range []string{bet.CreatorID, bet.OpponentID} {
		s.deliver(ctx, userID, map[string]string{
			"type":   "bet_disputed",
			"bet_id": bet.ID,
			"title":  "Bet disputed",
			"body":   body,
		}, body)
	}
}

func (s *NotificationService) NotifyAchievements(ctx context.Context, userID string, unlocked []domain.Achievement) {
	for _, a := range unlocked {
		s.deliver(ctx, userID, map[string]string{
			"type":           "achievement_unlocked",
			"achievement_id": a.ID,
			"title":          "Achievement unlocked",
			"body":           fmt.Sprintf("%s %s: %s", a.Icon, a.Name, a.Description),
		}, "")
	}
}

// deliver pushes the payload to every registered device and, when
// emailBody is non-empty and the user has an email address, mails it
// too.
func (s *NotificationService) deliver(ctx context.Context, userID string, data map[string]string, emailBody string) {
	if s.Push != nil && s.Tokens != nil {
		tokens, err := s.Tokens.TokensForUser(ctx, userID)
		if err != nil {
			s.log().Warn("list notification tokens failed", "user_id", userID, "error", err)
		}
		for _, token := range tokens {
			err := s.Push.Send(ctx, token, data)
			if errors.Is(err, notifications.ErrInvalidToken) {
				_ = s.Tokens.Purge(ctx, token)
				continue
			}
			if err != nil {
				s.log().Warn("push delivery failed", "user_id", userID, "error", err)
			}
		}
	}

	if s.Email != nil && emailBody != "" {
		u, err := s.Users.GetUserByID(ctx, userID)
		if err != nil || u.Email == "" {
			return
		}
		if err := s.Email.Send(ctx, u.Email, data["title"], emailBody); err != nil {
			s.log().Warn("email delivery failed", "user_id", userID, "error", err)
		}
	}
}

func (s *NotificationService) log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func displayName(u domain.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
