package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ibetu/internal/domain"
)

type BetsStore interface {
	CreateBet(ctx context.Context, d domain.BetDraft) (domain.Bet, error)
	GetBetForUser(ctx context.Context, userID, betID string) (domain.Bet, error)
	ListBetsForUser(ctx context.Context, userID string, status domain.BetStatus, limit int) ([]domain.Bet, error)
	AcceptBet(ctx context.Context, betID, opponentID string, when time.Time) (domain.Bet, error)
	DeclineBet(ctx context.Context, betID, opponentID string) (domain.Bet, error)
	CancelBet(ctx context.Context, betID, creatorID string) (domain.Bet, error)
	ApproveResult(ctx context.Context, betID, callerID, winnerID string, when time.Time) (domain.Bet, domain.ApprovalResult, error)
}

type FriendshipChecker interface {
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
}

// BetNotifier delivers bet lifecycle events to the other party. Calls
// are best effort; delivery failures never fail the operation that
// triggered them.
type BetNotifier interface {
	NotifyBetInvite(ctx context.Context, bet domain.Bet)
	NotifyBetAccepted(ctx context.Context, bet domain.Bet)
	NotifyBetDeclined(ctx context.Context, bet domain.Bet)
	NotifyResultProposed(ctx context.Context, bet domain.Bet, proposerID string)
	NotifyBetResolved(ctx context.Context, bet domain.Bet)
	NotifyBetDisputed(ctx context.Context, bet domain.Bet)
	NotifyAchievements(ctx context.Context, userID string, unlocked []domain.Achievement)
}

// ResolutionEvaluator reruns achievement rules for a participant after
// a bet settles, returning the badges that are newly unlocked.
type ResolutionEvaluator interface {
	EvaluateAfterResolution(ctx context.Context, userID string, in ResolutionFacts) ([]domain.Achievement, error)
}

// ResolutionFacts carries what the evaluator needs to know about the
// settlement that just happened.
type ResolutionFacts struct {
	JustWon     bool
	AmountCents int64
	OpponentID  string
	ResolvedAt  time.Time
}

type BetService struct {
	Bets         BetsStore
	Friends      FriendshipChecker
	Achievements ResolutionEvaluator
	Notify       BetNotifier
	Logger       *slog.Logger
	Now          func() time.Time
}

type CreateBetParams struct {
	OpponentID         string
	Title              string
	Description        string
	AmountCents        int64
	VerificationMethod domain.VerificationMethod
	Deadline           time.Time
}

func (s *BetService) CreateBet(ctx context.Context, creatorID string, p CreateBetParams) (domain.Bet, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.OpponentID = strings.TrimSpace(p.OpponentID)

	fields := map[string]string{}
	if p.Title == "" {
		fields["title"] = "required"
	} else if len(p.Title) > 120 {
		fields["title"] = "must be 120 characters or less"
	}
	if len(p.Description) > 2000 {
		fields["description"] = "must be 2000 characters or less"
	}
	if p.OpponentID == "" {
		fields["opponent_id"] = "required"
	} else if p.OpponentID == creatorID {
		fields["opponent_id"] = "cannot bet against yourself"
	}
	if p.AmountCents <= 0 {
		fields["amount_cents"] = "must be positive"
	}
	if !p.Deadline.After(s.Now()) {
		fields["deadline"] = "must be in the future"
	}
	switch p.VerificationMethod {
	case "":
		p.VerificationMethod = domain.VerifyHonor
	case domain.VerifyHonor, domain.VerifyPhoto, domain.VerifyWitness:
	default:
		fields["verification_method"] = "must be honor, photo or witness"
	}
	if len(fields) > 0 {
		return domain.Bet{}, domain.NewValidationError(fields)
	}

	// Bets are only proposed between accepted friends.
	ok, err := s.Friends.AreFriends(ctx, creatorID, p.OpponentID)
	if err != nil {
		return domain.Bet{}, err
	}
	if !ok {
		return domain.Bet{}, domain.ErrForbidden
	}

	bet, err := s.Bets.CreateBet(ctx, domain.BetDraft{
		CreatorID:          creatorID,
		OpponentID:         p.OpponentID,
		Title:              p.Title,
		Description:        p.Description,
		AmountCents:        p.AmountCents,
		VerificationMethod: p.VerificationMethod,
		Deadline:           p.Deadline,
	})
	if err != nil {
		return domain.Bet{}, err
	}

	s.fanout(func(ctx context.Context) { s.Notify.NotifyBetInvite(ctx, bet) })

	return bet, nil
}

func (s *BetService) GetBet(ctx context.Context, userID, betID string) (domain.Bet, error) {
	return s.Bets.GetBetForUser(ctx, userID, betID)
}

func (s *BetService) ListBets(ctx context.Context, userID string, status domain.BetStatus, limit int) ([]domain.Bet, error) {
	switch status {
	case "", domain.BetStatusPending, domain.BetStatusActive, domain.BetStatusCompleted,
		domain.BetStatusDeclined, domain.BetStatusExpired, domain.BetStatusDisputed:
	default:
		return nil, domain.NewValidationError(map[string]string{"status": "unknown status"})
	}
	return s.Bets.ListBetsForUser(ctx, userID, status, limit)
}

// AcceptBet activates a pending bet. A past deadline does not block
// acceptance; the deadline only affects how the bet is displayed.
func (s *BetService) AcceptBet(ctx context.Context, userID, betID string) (domain.Bet, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	bet, err := s.Bets.AcceptBet(ctx, betID, userID, s.Now())
	if err != nil {
		return domain.Bet{}, err
	}

	s.fanout(func(ctx context.Context) { s.Notify.NotifyBetAccepted(ctx, bet) })

	return bet, nil
}

func (s *BetService) DeclineBet(ctx context.Context, userID, betID string) (domain.Bet, error) {
	bet, err := s.Bets.DeclineBet(ctx, betID, userID)
	if err != nil {
		return domain.Bet{}, err
	}

	s.fanout(func(ctx context.Context) { s.Notify.NotifyBetDeclined(ctx, bet) })

	return bet, nil
}

func (s *BetService) CancelBet(ctx context.Context, userID, betID string) (domain.Bet, error) {
	return s.Bets.CancelBet(ctx, betID, userID)
}

// ApproveResult records the caller's word on who won an active bet.
// The first approval leaves the bet active; a matching second approval
// settles it, a contradicting one marks it disputed. On settlement the
// achievement rules run for both parties.
func (s *BetService) ApproveResult(ctx context.Context, userID, betID, winnerID string) (domain.Bet, domain.ApprovalResult, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	bet, err := s.Bets.GetBetForUser(ctx, userID, betID)
	if err != nil {
		return domain.Bet{}, "", err
	}
	if !bet.IsParticipant(winnerID) {
		return domain.Bet{}, "", domain.NewValidationError(map[string]string{"winner_id": "winner must be one of the participants"})
	}

	bet, result, err := s.Bets.ApproveResult(ctx, betID, userID, winnerID, s.Now())
	if err != nil {
		return domain.Bet{}, "", err
	}

	switch result {
	case domain.ApprovalRecorded:
		s.fanout(func(ctx context.Context) { s.Notify.NotifyResultProposed(ctx, bet, userID) })
	case domain.ApprovalDisputed:
		s.fanout(func(ctx context.Context) { s.Notify.NotifyBetDisputed(ctx, bet) })
	case domain.ApprovalResolved:
		s.fanout(func(ctx context.Context) { s.Notify.NotifyBetResolved(ctx, bet) })
		s.afterResolution(ctx, bet)
	}

	return bet, result, nil
}

// afterResolution runs the achievement rules for both participants.
// Evaluation failures are logged and dropped; the bet is already
// settled and must stay settled.
func (s *BetService) afterResolution(ctx context.Context, bet domain.Bet) {
	if s.Achievements == nil {
		return
	}

	resolvedAt := s.Now()
	if bet.ResolvedAt != nil {
		resolvedAt = *bet.ResolvedAt
	}
	loserID := bet.Opponent(bet.WinnerID)

	for _, p := range []struct {
		userID  string
		justWon bool
		other   string
	}{
		{bet.WinnerID, true, loserID},
		{loserID, false, bet.WinnerID},
	} {
		unlocked, err := s.Achievements.EvaluateAfterResolution(ctx, p.userID, ResolutionFacts{
			JustWon:     p.justWon,
			AmountCents: bet.AmountCents,
			OpponentID:  p.other,
			ResolvedAt:  resolvedAt,
		})
		if err != nil {
			s.log().Warn("achievement evaluation failed", "user_id", p.userID, "bet_id", bet.ID, "error", err)
			continue
		}
		if len(unlocked) > 0 {
			userID := p.userID
			s.fanout(func(ctx context.Context) { s.Notify.NotifyAchievements(ctx, userID, unlocked) })
		}
	}
}

// fanout runs a notification outside the request's cancellation scope.
func (s *BetService) fanout(fn func(context.Context)) {
	if s.Notify == nil {
		return
	}
	go fn(context.Background())
}

func (s *BetService) log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
