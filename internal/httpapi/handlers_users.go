package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ibetu/internal/auth"
	"ibetu/internal/domain"
)

type userResponse struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email,omitempty"`
	Username           string    `json:"username"`
	DisplayName        string    `json:"display_name"`
	AvatarPath         string    `json:"avatar_path,omitempty"`
	WalletBalanceCents int64     `json:"wallet_balance_cents"`
	TotalBets          int       `json:"total_bets"`
	BetsWon            int       `json:"bets_won"`
	BetsLost           int       `json:"bets_lost"`
	CreatedAt          time.Time `json:"created_at"`
}

func writeUser(w http.ResponseWriter, status int, u domain.User) {
	WriteJSON(w, status, userResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Username:           u.Username,
		DisplayName:        u.DisplayName,
		AvatarPath:         u.AvatarPath,
		WalletBalanceCents: u.WalletBalanceCents,
		TotalBets:          u.TotalBets,
		BetsWon:            u.BetsWon,
		BetsLost:           u.BetsLost,
		CreatedAt:          u.CreatedAt,
	})
}

func (a *api) handleUsersMe(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeUser(w, http.StatusOK, u)
}

func (a *api) handleUsersMeDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	if a.profileSvc == nil {
		WriteError(w, http.StatusServiceUnavailable, "profile_unavailable", "profile unavailable")
		return
	}

	avatarPath := strings.TrimSpace(u.AvatarPath)
	if err := a.profileSvc.DeleteAccount(r.Context(), u.ID); err != nil {
		WriteDomainError(w, err)
		return
	}

	auth.ClearSessionCookie(w, a.cookieSecure)
	if avatarPath != "" {
		_ = os.Remove(filepath.Join(a.avatarDir, avatarPath))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleUsersSearch(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	q := r.URL.Query().Get("q")
	limit := parseLimit(r.URL.Query().Get("limit"))

	results, err := a.usersSvc.Search(r.Context(), u.ID, q, limit)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if results == nil {
		results = []domain.UserSummary{}
	}
	WriteJSON(w, http.StatusOK, results)
}
