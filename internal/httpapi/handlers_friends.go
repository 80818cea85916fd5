package httpapi

import (
	"context"
	"net/http"

	"ibetu/internal/domain"
)

func (a *api) handleFriendsList(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	overview, err := a.friendsSvc.ListOverview(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if overview.Friends == nil {
		overview.Friends = []domain.UserSummary{}
	}
	if overview.Incoming == nil {
		overview.Incoming = []domain.FriendRequest{}
	}
	if overview.Outgoing == nil {
		overview.Outgoing = []domain.FriendRequest{}
	}
	WriteJSON(w, http.StatusOK, overview)
}

type createFriendRequestRequest struct {
	Username string `json:"username"`
	AddedVia string `json:"added_via"`
}

func (a *api) handleFriendsCreateRequest(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req createFriendRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	created, err := a.friendsSvc.CreateRequest(r.Context(), u.ID, req.Username, domain.AddedVia(req.AddedVia))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

func (a *api) handleFriendsAccept(w http.ResponseWriter, r *http.Request) {
	a.respondToRequest(w, r, a.friendsSvc.Accept)
}

func (a *api) handleFriendsDecline(w http.ResponseWriter, r *http.Request) {
	a.respondToRequest(w, r, a.friendsSvc.Decline)
}

func (a *api) handleFriendsCancel(w http.ResponseWriter, r *http.Request) {
	a.respondToRequest(w, r, a.friendsSvc.Cancel)
}

// respondToRequest is the shared accept/decline/cancel shape: caller
// identity plus a request ID from the path, 204 on success.
func (a *api) respondToRequest(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID, requestID string) error) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	requestID := r.PathValue("id")
	if requestID == "" {
		WriteDomainError(w, domain.ErrNotFound)
		return
	}

	if err := fn(r.Context(), u.ID, requestID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleFriendsRemove(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	friendID := r.PathValue("id")
	if friendID == "" {
		WriteDomainError(w, domain.ErrNotFound)
		return
	}

	if err := a.friendsSvc.Remove(r.Context(), u.ID, friendID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleFriendsCreateInvite(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	invite, err := a.friendsSvc.CreateInvite(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, invite)
}

type acceptInviteRequest struct {
	Token string `json:"token"`
}

func (a *api) handleFriendsAcceptInvite(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req acceptInviteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	inviter, err := a.friendsSvc.AcceptInvite(r.Context(), u.ID, req.Token)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"friend": inviter})
}
