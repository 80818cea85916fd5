package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ibetu/internal/domain"
	"ibetu/internal/service"
)

type stubFriendshipsStore struct {
	accepted       []string
	removedFriend  string
	requestCreated bool

	consumeErr     error
	consumeInviter string
}

func (s *stubFriendshipsStore) CreateRequest(ctx context.Context, requesterID, addresseeID string, addedVia domain.AddedVia) (string, time.Time, error) {
	s.requestCreated = true
	return "req-1", time.Now(), nil
}

func (s *stubFriendshipsStore) CreateAccepted(ctx context.Context, requesterID, addresseeID string, addedVia domain.AddedVia, when time.Time) error {
	return nil
}

func (s *stubFriendshipsStore) Accept(ctx context.Context, requestID, addresseeID string, when time.Time) error {
	if requestID == "missing" {
		return domain.ErrNotFound
	}
	s.accepted = append(s.accepted, requestID+":"+addresseeID)
	return nil
}

func (s *stubFriendshipsStore) Decline(ctx context.Context, requestID, addresseeID string, when time.Time) error {
	return nil
}

func (s *stubFriendshipsStore) Cancel(ctx context.Context, requestID, requesterID string) error {
	return nil
}

func (s *stubFriendshipsStore) Remove(ctx context.Context, userID, friendID string) error {
	s.removedFriend = friendID
	return nil
}

func (s *stubFriendshipsStore) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	return true, nil
}

func (s *stubFriendshipsStore) ListOverview(ctx context.Context, userID string) (domain.FriendsOverview, error) {
	return domain.FriendsOverview{}, nil
}

func (s *stubFriendshipsStore) CreateInvite(ctx context.Context, tokenHash, createdBy string, expiresAt time.Time) error {
	return nil
}

func (s *stubFriendshipsStore) ConsumeInvite(ctx context.Context, tokenHash, redeemerID string, when time.Time) (string, error) {
	if s.consumeErr != nil {
		return "", s.consumeErr
	}
	return s.consumeInviter, nil
}

type stubFriendUsers struct {
	byLogin map[string]domain.UserWithPassword
	byID    map[string]domain.User
}

func (s *stubFriendUsers) CreateUser(ctx context.Context, email, username, passwordHash string) (domain.User, error) {
	return domain.User{}, domain.ErrNotFound
}

func (s *stubFriendUsers) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *stubFriendUsers) GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error) {
	u, ok := s.byLogin[login]
	if !ok {
		return domain.UserWithPassword{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *stubFriendUsers) GetUserByExternalAccount(ctx context.Context, provider, providerID string) (domain.User, error) {
	return domain.User{}, domain.ErrNotFound
}

func (s *stubFriendUsers) CreateUserWithExternalAccount(ctx context.Context, email, username, provider, providerID string) (domain.User, error) {
	return domain.User{}, domain.ErrNotFound
}

func (s *stubFriendUsers) SetLastLogin(ctx context.Context, userID string, when time.Time) error {
	return nil
}

func friendsAPI(store *stubFriendshipsStore, users *stubFriendUsers) *api {
	return &api{friendsSvc: &service.FriendsService{Users: users, Friendships: store}}
}

func TestFriendsListEmptySlices(t *testing.T) {
	api := friendsAPI(&stubFriendshipsStore{}, &stubFriendUsers{})

	req := authedRequest(http.MethodGet, "/v1/friends", "", "u1")
	rr := httptest.NewRecorder()
	api.handleFriendsList(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, key := range []string{`"friends":[]`, `"incoming_requests":[]`, `"outgoing_requests":[]`} {
		if !strings.Contains(body, key) {
			t.Errorf("body %s missing %s", body, key)
		}
	}
}

func TestFriendsCreateRequest(t *testing.T) {
	store := &stubFriendshipsStore{}
	users := &stubFriendUsers{byLogin: map[string]domain.UserWithPassword{
		"bob": {User: domain.User{ID: "u2", Username: "bob", Status: domain.UserStatusActive}},
	}}
	api := friendsAPI(store, users)

	req := authedRequest(http.MethodPost, "/v1/friends/requests", `{"username":"bob","added_via":"qr"}`, "u1")
	rr := httptest.NewRecorder()
	api.handleFriendsCreateRequest(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rr.Code, rr.Body.String())
	}
	if !store.requestCreated {
		t.Fatal("request was not stored")
	}
	var got domain.FriendRequest
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.User.Username != "bob" || got.AddedVia != domain.AddedViaQR {
		t.Fatalf("request = %+v", got)
	}
}

func TestFriendsAccept(t *testing.T) {
	store := &stubFriendshipsStore{}
	api := friendsAPI(store, &stubFriendUsers{})

	req := authedRequest(http.MethodPost, "/v1/friends/requests/req-1/accept", "", "u2")
	req.SetPathValue("id", "req-1")
	rr := httptest.NewRecorder()
	api.handleFriendsAccept(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if len(store.accepted) != 1 || store.accepted[0] != "req-1:u2" {
		t.Fatalf("accepted = %v", store.accepted)
	}
}

func TestFriendsAcceptUnknownRequest(t *testing.T) {
	api := friendsAPI(&stubFriendshipsStore{}, &stubFriendUsers{})

	req := authedRequest(http.MethodPost, "/v1/friends/requests/missing/accept", "", "u2")
	req.SetPathValue("id", "missing")
	rr := httptest.NewRecorder()
	api.handleFriendsAccept(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestFriendsAcceptInviteInvalidToken(t *testing.T) {
	store := &stubFriendshipsStore{consumeErr: domain.ErrInviteInvalid}
	api := friendsAPI(store, &stubFriendUsers{})

	req := authedRequest(http.MethodPost, "/v1/friends/invites/accept", `{"token":"nope"}`, "u1")
	rr := httptest.NewRecorder()
	api.handleFriendsAcceptInvite(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestFriendsAcceptInvite(t *testing.T) {
	store := &stubFriendshipsStore{consumeInviter: "u9"}
	users := &stubFriendUsers{byID: map[string]domain.User{
		"u9": {ID: "u9", Username: "inviter"},
	}}
	api := friendsAPI(store, users)

	req := authedRequest(http.MethodPost, "/v1/friends/invites/accept", `{"token":"raw-token"}`, "u1")
	rr := httptest.NewRecorder()
	api.handleFriendsAcceptInvite(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var got struct {
		Friend domain.UserSummary `json:"friend"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Friend.ID != "u9" || got.Friend.Username != "inviter" {
		t.Fatalf("friend = %+v", got.Friend)
	}
}
