package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"ibetu/internal/domain"
)

type FriendshipsStore interface {
	CreateRequest(ctx context.Context, requesterID, addresseeID string, addedVia domain.AddedVia) (string, time.Time, error)
	CreateAccepted(ctx context.Context, requesterID, addresseeID string, addedVia domain.AddedVia, when time.Time) error
	Accept(ctx context.Context, requestID, addresseeID string, when time.Time) error
	Decline(ctx context.Context, requestID, addresseeID string, when time.Time) error
	Cancel(ctx context.Context, requestID, requesterID string) error
	Remove(ctx context.Context, userID, friendID string) error
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
	ListOverview(ctx context.Context, userID string) (domain.FriendsOverview, error)
	CreateInvite(ctx context.Context, tokenHash, createdBy string, expiresAt time.Time) error
	ConsumeInvite(ctx context.Context, tokenHash, redeemerID string, when time.Time) (string, error)
}

type FriendNotifier interface {
	NotifyFriendRequest(ctx context.Context, requesterID, addresseeID string)
}

type FriendsService struct {
	Users       UsersStore
	Friendships FriendshipsStore
	Notify      FriendNotifier
	InviteTTL   time.Duration
	Now         func() time.Time
}

func (s *FriendsService) ListOverview(ctx context.Context, userID string) (domain.FriendsOverview, error) {
	return s.Friendships.ListOverview(ctx, userID)
}

// CreateRequest sends a friend request to the user with the given
// username or email. addedVia records how the target was found.
func (s *FriendsService) CreateRequest(ctx context.Context, requesterID, addresseeLogin string, addedVia domain.AddedVia) (domain.FriendRequest, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	addresseeLogin = strings.TrimSpace(addresseeLogin)
	if addresseeLogin == "" {
		return domain.FriendRequest{}, domain.NewValidationError(map[string]string{"username": "required"})
	}
	switch addedVia {
	case "":
		addedVia = domain.AddedViaNickname
	case domain.AddedViaQR, domain.AddedViaPhone, domain.AddedViaNickname:
	default:
		return domain.FriendRequest{}, domain.NewValidationError(map[string]string{"added_via": "must be qr, phone or nickname"})
	}

	target, err := s.Users.GetUserByLogin(ctx, addresseeLogin)
	if err != nil {
		return domain.FriendRequest{}, err
	}
	if target.ID == requesterID {
		return domain.FriendRequest{}, domain.NewValidationError(map[string]string{"username": "cannot friend yourself"})
	}
	if target.Status == domain.UserStatusDisabled {
		return domain.FriendRequest{}, domain.ErrForbidden
	}

	id, createdAt, err := s.Friendships.CreateRequest(ctx, requesterID, target.ID, addedVia)
	if err != nil {
		return domain.FriendRequest{}, err
	}

	if s.Notify != nil {
		go s.Notify.NotifyFriendRequest(context.Background(), requesterID, target.ID)
	}

	return domain.FriendRequest{
		ID:        id,
		User:      domain.UserSummary{ID: target.ID, Username: target.Username, DisplayName: target.DisplayName, AvatarPath: target.AvatarPath},
		AddedVia:  addedVia,
		CreatedAt: createdAt,
	}, nil
}

func (s *FriendsService) Accept(ctx context.Context, addresseeID, requestID string) error {
	if s.Now == nil {
		s.Now = time.Now
	}
	return s.Friendships.Accept(ctx, requestID, addresseeID, s.Now())
}

func (s *FriendsService) Decline(ctx context.Context, addresseeID, requestID string) error {
	if s.Now == nil {
		s.Now = time.Now
	}
	return s.Friendships.Decline(ctx, requestID, addresseeID, s.Now())
}

func (s *FriendsService) Cancel(ctx context.Context, requesterID, requestID string) error {
	return s.Friendships.Cancel(ctx, requestID, requesterID)
}

func (s *FriendsService) Remove(ctx context.Context, userID, friendID string) error {
	if friendID == userID {
		return domain.NewValidationError(map[string]string{"friend_id": "cannot unfriend yourself"})
	}
	return s.Friendships.Remove(ctx, userID, friendID)
}

// CreateInvite mints a single-use invite link token, for sharing as a
// QR code or URL. The raw token is returned once and never stored.
func (s *FriendsService) CreateInvite(ctx context.Context, userID string) (domain.FriendInvite, error) {
	if s.Now == nil {
		s.Now = time.Now
	}
	ttl := s.InviteTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	raw, hash, err := newOpaqueToken()
	if err != nil {
		return domain.FriendInvite{}, err
	}

	now := s.Now()
	expiresAt := now.Add(ttl)
	if err := s.Friendships.CreateInvite(ctx, hash, userID, expiresAt); err != nil {
		return domain.FriendInvite{}, err
	}

	return domain.FriendInvite{
		Token:     raw,
		CreatedBy: userID,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}, nil
}

// AcceptInvite redeems an invite token and makes the redeemer and the
// inviter friends immediately, skipping the request step. Inviters
// scanning their own code get ErrInviteInvalid without the token being
// consumed, so the link stays live for the intended friend.
func (s *FriendsService) AcceptInvite(ctx context.Context, userID, rawToken string) (domain.UserSummary, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return domain.UserSummary{}, domain.ErrInviteInvalid
	}

	inviterID, err := s.Friendships.ConsumeInvite(ctx, hashOpaqueToken(rawToken), userID, s.Now())
	if err != nil {
		return domain.UserSummary{}, err
	}

	err = s.Friendships.CreateAccepted(ctx, inviterID, userID, domain.AddedViaQR, s.Now())
	if err != nil && !errors.Is(err, domain.ErrFriendshipExists) {
		return domain.UserSummary{}, err
	}

	inviter, err := s.Users.GetUserByID(ctx, inviterID)
	if err != nil {
		return domain.UserSummary{}, err
	}
	return domain.UserSummary{ID: inviter.ID, Username: inviter.Username, DisplayName: inviter.DisplayName, AvatarPath: inviter.AvatarPath}, nil
}
