package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ibetu/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FriendshipsStore struct {
	pool *pgxpool.Pool
}

func NewFriendshipsStore(pool *pgxpool.Pool) *FriendshipsStore {
	return &FriendshipsStore{pool: pool}
}

func (s *FriendshipsStore) CreateRequest(ctx context.Context, requesterID, addresseeID string, addedVia domain.AddedVia) (string, time.Time, error) {
	const q = `
		INSERT INTO friendships (requester_id, addressee_id, status, added_via)
		VALUES ($1, $2, 'pending', $3)
		RETURNING id, created_at
	`

	var (
		idUUID    pgtype.UUID
		createdAt time.Time
	)
	err := s.pool.QueryRow(ctx, q, requesterID, addresseeID, addedVia).Scan(&idUUID, &createdAt)
	if err != nil {
		return "", time.Time{}, mapFriendshipWriteError(err)
	}

	return uuidOrEmpty(idUUID), createdAt, nil
}

// CreateAccepted inserts a friendship already in the accepted state. The
// invite-link flow uses it: redeeming the link is the mutual consent.
func (s *FriendshipsStore) CreateAccepted(ctx context.Context, requesterID, addresseeID string, addedVia domain.AddedVia, when time.Time) error {
	const q = `
		INSERT INTO friendships (requester_id, addressee_id, status, added_via, responded_at)
		VALUES ($1, $2, 'accepted', $3, $4)
	`
	if _, err := s.pool.Exec(ctx, q, requesterID, addresseeID, addedVia, when); err != nil {
		return mapFriendshipWriteError(err)
	}
	return nil
}

func (s *FriendshipsStore) Accept(ctx context.Context, requestID, addresseeID string, when time.Time) error {
	const q = `
		UPDATE friendships
		SET status = 'accepted', responded_at = $3
		WHERE id = $1 AND addressee_id = $2 AND status = 'pending'
	`
	ct, err := s.pool.Exec(ctx, q, requestID, addresseeID, when)
	if err != nil {
		return fmt.Errorf("accept friend request: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *FriendshipsStore) Decline(ctx context.Context, requestID, addresseeID string, when time.Time) error {
	const q = `
		UPDATE friendships
		SET status = 'declined', responded_at = $3
		WHERE id = $1 AND addressee_id = $2 AND status = 'pending'
	`
	ct, err := s.pool.Exec(ctx, q, requestID, addresseeID, when)
	if err != nil {
		return fmt.Errorf("decline friend request: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Cancel lets the requester withdraw a still-pending request.
func (s *FriendshipsStore) Cancel(ctx context.Context, requestID, requesterID string) error {
	const q = `
		DELETE FROM friendships
		WHERE id = $1 AND requester_id = $2 AND status = 'pending'
	`
	ct, err := s.pool.Exec(ctx, q, requestID, requesterID)
	if err != nil {
		return fmt.Errorf("cancel friend request: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Remove deletes the friendship row for the unordered pair, whichever
// side initiated it.
func (s *FriendshipsStore) Remove(ctx context.Context, userID, friendID string) error {
	const q = `
		DELETE FROM friendships
		WHERE (requester_id = $1 AND addressee_id = $2)
		   OR (requester_id = $2 AND addressee_id = $1)
	`
	ct, err := s.pool.Exec(ctx, q, userID, friendID)
	if err != nil {
		return fmt.Errorf("remove friendship: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *FriendshipsStore) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM friendships
			WHERE status = 'accepted'
			  AND least(requester_id, addressee_id) = least($1::uuid, $2::uuid)
			  AND greatest(requester_id, addressee_id) = greatest($1::uuid, $2::uuid)
		)
	`
	var ok bool
	if err := s.pool.QueryRow(ctx, q, userA, userB).Scan(&ok); err != nil {
		return false, fmt.Errorf("are friends: %w", err)
	}
	return ok, nil
}

func (s *FriendshipsStore) ListOverview(ctx context.Context, userID string) (domain.FriendsOverview, error) {
	friends, err := s.listFriends(ctx, userID)
	if err != nil {
		return domain.FriendsOverview{}, err
	}
	incoming, err := s.listRequests(ctx, userID, false)
	if err != nil {
		return domain.FriendsOverview{}, err
	}
	outgoing, err := s.listRequests(ctx, userID, true)
	if err != nil {
		return domain.FriendsOverview{}, err
	}

	return domain.FriendsOverview{
		Friends:  friends,
		Incoming: incoming,
		Outgoing: outgoing,
	}, nil
}

func (s *FriendshipsStore) listFriends(ctx context.Context, userID string) ([]domain.UserSummary, error) {
	const q = `
		SELECT u.id, u.username, u.display_name, u.avatar_path
		FROM friendships f
		JOIN users u ON u.id = CASE
			WHEN f.requester_id = $1 THEN f.addressee_id
			ELSE f.requester_id
		END
		WHERE f.status = 'accepted' AND (f.requester_id = $1 OR f.addressee_id = $1)
		ORDER BY u.username ASC
	`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	var out []domain.UserSummary
	for rows.Next() {
		var idUUID pgtype.UUID
		var u domain.UserSummary
		if err := rows.Scan(&idUUID, &u.Username, &u.DisplayName, &u.AvatarPath); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		u.ID = uuidOrEmpty(idUUID)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return out, nil
}

func (s *FriendshipsStore) listRequests(ctx context.Context, userID string, outgoing bool) ([]domain.FriendRequest, error) {
	q := `
		SELECT f.id, f.added_via, f.created_at, u.id, u.username, u.display_name, u.avatar_path
		FROM friendships f
		JOIN users u ON u.id = f.requester_id
		WHERE f.status = 'pending' AND f.addressee_id = $1
		ORDER BY f.created_at DESC
	`
	if outgoing {
		q = `
			SELECT f.id, f.added_via, f.created_at, u.id, u.username, u.display_name, u.avatar_path
			FROM friendships f
			JOIN users u ON u.id = f.addressee_id
			WHERE f.status = 'pending' AND f.requester_id = $1
			ORDER BY f.created_at DESC
		`
	}

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	defer rows.Close()

	var out []domain.FriendRequest
	for rows.Next() {
		var (
			reqIDUUID  pgtype.UUID
			userIDUUID pgtype.UUID
			fr         domain.FriendRequest
		)
		if err := rows.Scan(&reqIDUUID, &fr.AddedVia, &fr.CreatedAt, &userIDUUID, &fr.User.Username, &fr.User.DisplayName, &fr.User.AvatarPath); err != nil {
			return nil, fmt.Errorf("scan friend request: %w", err)
		}
		fr.ID = uuidOrEmpty(reqIDUUID)
		fr.User.ID = uuidOrEmpty(userIDUUID)
		out = append(out, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	return out, nil
}

func (s *FriendshipsStore) CreateInvite(ctx context.Context, tokenHash, createdBy string, expiresAt time.Time) error {
	const q = `
		INSERT INTO friend_invites (token_hash, created_by, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := s.pool.Exec(ctx, q, tokenHash, createdBy, expiresAt); err != nil {
		return fmt.Errorf("create friend invite: %w", err)
	}
	return nil
}

// ConsumeInvite marks an unused, unexpired invite as used and returns its
// creator. Expired, unknown and already-used tokens all look the same to
// the caller, and so does the creator redeeming their own token; in that
// case the row is left untouched and the link still works for a friend.
func (s *FriendshipsStore) ConsumeInvite(ctx context.Context, tokenHash, redeemerID string, when time.Time) (string, error) {
	const q = `
		UPDATE friend_invites
		SET used_at = $2
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > $2
		  AND created_by <> $3::uuid
		RETURNING created_by
	`
	var createdBy pgtype.UUID
	err := s.pool.QueryRow(ctx, q, tokenHash, when, redeemerID).Scan(&createdBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrInviteInvalid
		}
		return "", fmt.Errorf("consume friend invite: %w", err)
	}
	return uuidOrEmpty(createdBy), nil
}

func mapFriendshipWriteError(err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" && pgerr.ConstraintName == "friendships_pair_uq" {
		return domain.ErrFriendshipExists
	}
	return fmt.Errorf("write friendship: %w", err)
}
