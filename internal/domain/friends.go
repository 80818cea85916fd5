package domain

import "time"

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipDeclined FriendshipStatus = "declined"
)

type AddedVia string

const (
	AddedViaQR       AddedVia = "qr"
	AddedViaPhone    AddedVia = "phone"
	AddedViaNickname AddedVia = "nickname"
)

type FriendRequest struct {
	ID         string      `json:"id"`
	User       UserSummary `json:"user"`
	AddedVia   AddedVia    `json:"added_via"`
	CreatedAt  time.Time   `json:"created_at"`
	ResolvedAt *time.Time  `json:"resolved_at,omitempty"`
}

type FriendsOverview struct {
	Friends  []UserSummary   `json:"friends"`
	Incoming []FriendRequest `json:"incoming_requests"`
	Outgoing []FriendRequest `json:"outgoing_requests"`
}

type FriendInvite struct {
	Token     string    `json:"token"`
	CreatedBy string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
