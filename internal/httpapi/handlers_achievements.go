package httpapi

import (
	"net/http"

	"ibetu/internal/domain"
)

func (a *api) handleAchievements(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	overview, err := a.achievementSvc.Overview(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, overview)
}

func (a *api) handleAchievementsCheck(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	unlocked, err := a.achievementSvc.Recheck(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if unlocked == nil {
		unlocked = []domain.Achievement{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"unlocked": unlocked})
}
