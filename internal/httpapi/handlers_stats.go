package httpapi

import (
	"net/http"

	"ibetu/internal/domain"
)

func (a *api) handleStatsSummary(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	summary, err := a.statsSvc.Summary(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

func (a *api) handleStatsHeadToHead(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	h, err := a.statsSvc.HeadToHead(r.Context(), u.ID, r.PathValue("id"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h)
}

func (a *api) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := CurrentUser(r.Context()); !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	entries, err := a.statsSvc.GlobalLeaderboard(r.Context(), parseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	WriteJSON(w, http.StatusOK, entries)
}

func (a *api) handleLeaderboardFriends(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	entries, err := a.statsSvc.FriendsLeaderboard(r.Context(), u.ID, parseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	WriteJSON(w, http.StatusOK, entries)
}
